// Package selection — reroll.go реализует платный перевыбор пидора дня.
//
// Награда первого победителя не отзывается. Новый розыгрыш идёт по всему
// текущему составу, прежний победитель может выиграть снова и получит
// вторую награду. Если защищены все, защита не учитывается.
package selection

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
)

// Reroll перевыбирает победителя дня d за счёт initiatorID.
func (s *Service) Reroll(ctx context.Context, gameID, initiatorID int64, d common.Day, settings config.GameSettings, now time.Time) (*RerollOutcome, error) {
	if !settings.RerollEnabled {
		return nil, common.ErrFeatureDisabled
	}

	var out *RerollOutcome
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		res, err := s.repo.Get(ctx, gameID, d)
		if err != nil {
			return err
		}
		if !res.RerollAvailable || s.rerollExpired(res, settings, now) {
			return common.ErrRerollUnavailable
		}

		pool, err := s.pool(ctx, gameID, d)
		if err != nil {
			return err
		}

		// Цена списывается с инициатора, а не с прежнего победителя
		if _, err := s.ledger.Spend(ctx, gameID, initiatorID, settings.RerollPrice, d.Year, ledger.ReasonReroll); err != nil {
			return err
		}
		choice, _ := s.picker.DrawWinner(pool, true)

		out = &RerollOutcome{PreviousWinnerID: res.WinnerID}
		if choice.Saved != nil {
			out.SavedID = choice.Saved.UserID
			out.Bonus, err = s.creditBonus(ctx, gameID, out.SavedID, d.Year, settings.ProtectionBonus, ledger.ReasonProtectionReroll)
			if err != nil {
				return err
			}
		}

		previous := res.WinnerID
		res.OriginalWinnerID = &previous
		res.RerollInitiatorID = &initiatorID
		res.WinnerID = choice.Winner.UserID
		res.RerollAvailable = false
		if err := s.repo.ApplyReroll(ctx, res); err != nil {
			return err
		}
		out.Result = res

		if err := s.effects.ResetAmplification(ctx, gameID, res.WinnerID); err != nil {
			return err
		}

		out.Reward = settings.CoinsPerWin
		if out.Reward > 0 {
			if _, err := s.ledger.Credit(ctx, gameID, res.WinnerID, out.Reward, d.Year, ledger.ReasonWinReroll); err != nil {
				return err
			}
		}

		out.Predictions, err = s.predictions.Score(ctx, gameID, d, res.WinnerID, settings.PredictionReward)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":   gameID,
		"year":      d.Year,
		"day":       d.Day,
		"initiator": initiatorID,
		"previous":  out.PreviousWinnerID,
		"winner":    out.Result.WinnerID,
	}).Info("Перевыбор выполнен")
	return out, nil
}

// ExpireRerolls закрывает перевыбор у результатов старше timeout(chatID).
// Возвращает закрытые результаты, чтобы убрать у них кнопку.
func (s *Service) ExpireRerolls(ctx context.Context, now time.Time, timeout func(chatID int64) time.Duration) ([]PendingReroll, error) {
	pending, err := s.repo.PendingRerolls(ctx, now)
	if err != nil {
		return nil, err
	}

	var closed []PendingReroll
	for _, p := range pending {
		if now.Sub(p.CreatedAt) < timeout(p.ChatID) {
			continue
		}
		ok, err := s.repo.CloseReroll(ctx, p.GameID, common.Day{Year: p.Year, Day: p.Day})
		if err != nil {
			return closed, err
		}
		if ok {
			closed = append(closed, p)
		}
	}
	return closed, nil
}

func (s *Service) rerollExpired(res *DailyResult, settings config.GameSettings, now time.Time) bool {
	timeout := settings.RerollTimeout()
	if timeout <= 0 || res.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(res.CreatedAt) > timeout
}
