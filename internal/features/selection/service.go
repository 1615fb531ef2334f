// Package selection — service.go проводит розыгрыш дня целиком:
// проверка существующего результата, выбор, начисления и предсказания
// выполняются в одной транзакции игры.
package selection

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
)

// Store — хранилище результатов дней.
type Store interface {
	Get(ctx context.Context, gameID int64, d common.Day) (*DailyResult, error)
	Insert(ctx context.Context, res *DailyResult) error
	ApplyReroll(ctx context.Context, res *DailyResult) error
	AttachMessage(ctx context.Context, gameID int64, d common.Day, messageID int) error
	CloseReroll(ctx context.Context, gameID int64, d common.Day) (bool, error)
	PendingRerolls(ctx context.Context, before time.Time) ([]PendingReroll, error)
	WinCounts(ctx context.Context, gameID int64, year int) ([]WinCount, error)
	Days(ctx context.Context, gameID int64, year int) ([]int, error)
}

// Service проводит розыгрыши.
type Service struct {
	repo        Store
	tx          db.Transactor
	players     *players.Service
	effects     *effects.Registry
	ledger      *ledger.Service
	predictions *predictions.Service
	picker      *Picker
}

// NewService создаёт сервис розыгрыша.
func NewService(
	repo Store,
	tx db.Transactor,
	playerService *players.Service,
	registry *effects.Registry,
	ledgerService *ledger.Service,
	predictionService *predictions.Service,
	picker *Picker,
) *Service {
	return &Service{
		repo:        repo,
		tx:          tx,
		players:     playerService,
		effects:     registry,
		ledger:      ledgerService,
		predictions: predictionService,
		picker:      picker,
	}
}

// Draw проводит розыгрыш дня d. Повторный вызов за тот же день
// возвращает сохранённый результат без новых начислений.
func (s *Service) Draw(ctx context.Context, gameID, invokerID int64, d common.Day, settings config.GameSettings, now time.Time) (*DrawOutcome, error) {
	var out *DrawOutcome
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, gameID, d)
		if err == nil {
			out = &DrawOutcome{Result: existing, Existing: true}
			return nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		pool, err := s.pool(ctx, gameID, d)
		if err != nil {
			return err
		}

		choice, ok := s.picker.DrawWinner(pool, false)
		if !ok {
			out = &DrawOutcome{AllProtected: true}
			log.WithFields(log.Fields{"game_id": gameID, "year": d.Year, "day": d.Day}).
				Info("Все игроки под защитой, победителя нет")
			return nil
		}

		out = &DrawOutcome{Amplified: choice.Winner.Amplified}
		if choice.Saved != nil {
			out.SavedID = choice.Saved.UserID
			out.Bonus, err = s.creditBonus(ctx, gameID, out.SavedID, d.Year, settings.ProtectionBonus, ledger.ReasonProtectionBonus)
			if err != nil {
				return err
			}
		}

		res := &DailyResult{
			GameID:          gameID,
			Year:            d.Year,
			Day:             d.Day,
			WinnerID:        choice.Winner.UserID,
			RerollAvailable: settings.RerollEnabled,
			CreatedAt:       now,
		}
		if err := s.repo.Insert(ctx, res); err != nil {
			return err
		}
		out.Result = res

		if err := s.effects.ResetAmplification(ctx, gameID, res.WinnerID); err != nil {
			return err
		}

		out.Reward = settings.CoinsPerWin
		if res.WinnerID == invokerID && settings.SelfPickMultiplier > 1 {
			out.Reward *= settings.SelfPickMultiplier
		}
		if out.Reward > 0 {
			if _, err := s.ledger.Credit(ctx, gameID, res.WinnerID, out.Reward, d.Year, ledger.ReasonWin); err != nil {
				return err
			}
		}

		out.Predictions, err = s.predictions.Score(ctx, gameID, d, res.WinnerID, settings.PredictionReward)
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.Result != nil && !out.Existing {
		log.WithFields(log.Fields{
			"game_id": gameID,
			"year":    d.Year,
			"day":     d.Day,
			"winner":  out.Result.WinnerID,
			"saved":   out.SavedID,
			"reward":  out.Reward,
		}).Info("Выбран пидор дня")
	}
	return out, nil
}

// AttachMessage запоминает сообщение с объявлением, чтобы потом убрать кнопку перевыбора.
func (s *Service) AttachMessage(ctx context.Context, gameID int64, d common.Day, messageID int) error {
	return s.repo.AttachMessage(ctx, gameID, d, messageID)
}

// Result возвращает результат дня.
func (s *Service) Result(ctx context.Context, gameID int64, d common.Day) (*DailyResult, error) {
	return s.repo.Get(ctx, gameID, d)
}

// WinCounts возвращает победы за год (0: за всё время).
func (s *Service) WinCounts(ctx context.Context, gameID int64, year int) ([]WinCount, error) {
	return s.repo.WinCounts(ctx, gameID, year)
}

// MissedDays возвращает дни года до today (не включая), за которые нет результата.
func (s *Service) MissedDays(ctx context.Context, gameID int64, today common.Day) ([]int, error) {
	taken, err := s.repo.Days(ctx, gameID, today.Year)
	if err != nil {
		return nil, err
	}
	return MissedDays(taken, today), nil
}

// MissedDays — дни 1..today-1 без результата, по возрастанию.
func MissedDays(taken []int, today common.Day) []int {
	has := make(map[int]bool, len(taken))
	for _, d := range taken {
		has[d] = true
	}
	var missed []int
	for d := 1; d < today.Day; d++ {
		if !has[d] {
			missed = append(missed, d)
		}
	}
	return missed
}

// AssignDay записывает результат дня без розыгрыша (итог финального голосования).
// false — день уже занят.
func (s *Service) AssignDay(ctx context.Context, gameID int64, d common.Day, winnerID int64, now time.Time) (bool, error) {
	err := s.repo.Insert(ctx, &DailyResult{GameID: gameID, Year: d.Year, Day: d.Day, WinnerID: winnerID, CreatedAt: now})
	if errors.Is(err, common.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// pool собирает пул розыгрыша по текущему составу игры.
func (s *Service) pool(ctx context.Context, gameID int64, d common.Day) ([]Candidate, error) {
	roster, err := s.players.Roster(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, common.ErrNoPlayers
	}
	ids := make([]int64, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.UserID)
	}

	fx, err := s.effects.Snapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return BuildPool(ids, fx, s.effects, d), nil
}

func (s *Service) creditBonus(ctx context.Context, gameID, userID int64, year int, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}
	if _, err := s.ledger.Credit(ctx, gameID, userID, amount, year, reason); err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"game_id": gameID, "user_id": userID, "bonus": amount}).Info("Сработала защита")
	return amount, nil
}
