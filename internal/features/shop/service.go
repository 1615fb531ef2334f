// Package shop — service.go содержит покупки.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

// Ключи товаров
const (
	ItemImmunity     = "immunity"
	ItemDoubleChance = "double"
	ItemPrediction   = "predict"
)

// Service продаёт товары магазина.
type Service struct {
	tx          db.Transactor
	ledger      *ledger.Service
	effects     *effects.Registry
	predictions *predictions.Service
	players     *players.Service
}

// NewService создаёт сервис магазина.
func NewService(
	tx db.Transactor,
	ledgerService *ledger.Service,
	registry *effects.Registry,
	predictionService *predictions.Service,
	playerService *players.Service,
) *Service {
	return &Service{
		tx:          tx,
		ledger:      ledgerService,
		effects:     registry,
		predictions: predictionService,
		players:     playerService,
	}
}

// Items возвращает витрину с ценами и флагами чата.
func Items(settings config.GameSettings) []Item {
	return []Item{
		{
			Key:         ItemImmunity,
			Name:        "🛡️ Защита от пидора",
			Description: fmt.Sprintf("Защита на завтра (кулдаун %d %s)", settings.ImmunityCooldownDays, common.PluralizeDays(settings.ImmunityCooldownDays)),
			Price:       settings.ImmunityPrice,
			Enabled:     settings.ImmunityEnabled,
		},
		{
			Key:         ItemDoubleChance,
			Name:        "🎲 Двойной шанс",
			Description: "Удваивает шанс выбранного игрока стать пидором до его победы",
			Price:       settings.DoubleChancePrice,
			Enabled:     settings.DoubleChanceEnabled,
		},
		{
			Key:         ItemPrediction,
			Name:        "🔮 Предсказание",
			Description: fmt.Sprintf("Угадай пидора завтрашнего дня (%s при успехе)", common.FormatCoinsAmount(settings.PredictionReward)),
			Price:       settings.PredictionPrice,
			Enabled:     settings.PredictionEnabled,
		},
	}
}

// BuyImmunity покупает защиту на завтрашний день.
func (s *Service) BuyImmunity(ctx context.Context, gameID, userID int64, settings config.GameSettings, now time.Time) (*Receipt, error) {
	if !settings.ImmunityEnabled {
		return nil, common.ErrFeatureDisabled
	}
	today := common.DayOf(now)
	target := today.Next()
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		e, err := s.effects.Get(ctx, gameID, userID)
		if err != nil {
			return err
		}
		if e.ProtectedUntil != nil && !e.ProtectedUntil.Before(target) {
			return common.ErrAlreadyExists
		}
		if left, err := s.effects.CheckProtectionCooldown(ctx, gameID, userID, now, settings.ImmunityCooldownDays); err != nil {
			if errors.Is(err, common.ErrCooldown) {
				return &CooldownError{DaysLeft: left}
			}
			return err
		}

		if _, err := s.ledger.Spend(ctx, gameID, userID, settings.ImmunityPrice, today.Year, ledger.ReasonShopImmunity); err != nil {
			return err
		}
		return s.effects.GrantProtection(ctx, gameID, userID, target, now)
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{Price: settings.ImmunityPrice, Day: target}, nil
}

// BuyDoubleChance покупает усиление для targetID. Один раз в день на покупателя.
func (s *Service) BuyDoubleChance(ctx context.Context, gameID, buyerID, targetID int64, settings config.GameSettings, now time.Time) (*Receipt, error) {
	if !settings.DoubleChanceEnabled {
		return nil, common.ErrFeatureDisabled
	}
	today := common.DayOf(now)
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		if err := s.inRoster(ctx, gameID, targetID); err != nil {
			return err
		}
		bought, err := s.effects.AmplifiedToday(ctx, gameID, buyerID, today)
		if err != nil {
			return err
		}
		if bought {
			return common.ErrAlreadyExists
		}

		reason := ledger.ReasonShopDoublePrefix + strconv.FormatInt(targetID, 10)
		if _, err := s.ledger.Spend(ctx, gameID, buyerID, settings.DoubleChancePrice, today.Year, reason); err != nil {
			return err
		}
		_, err = s.effects.Amplify(ctx, gameID, buyerID, targetID, today)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{Price: settings.DoubleChancePrice, Day: today}, nil
}

// BuyPrediction покупает предсказание на завтрашний день.
func (s *Service) BuyPrediction(ctx context.Context, gameID, userID int64, candidates []int64, settings config.GameSettings, now time.Time) (*Receipt, error) {
	if !settings.PredictionEnabled {
		return nil, common.ErrFeatureDisabled
	}
	today := common.DayOf(now)
	target := today.Next()
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		roster, err := s.rosterIDs(ctx, gameID)
		if err != nil {
			return err
		}
		if err := predictions.Validate(userID, candidates, roster); err != nil {
			return err
		}

		_, err = s.predictions.Get(ctx, gameID, userID, target)
		if err == nil {
			return common.ErrAlreadyExists
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if _, err := s.ledger.Spend(ctx, gameID, userID, settings.PredictionPrice, today.Year, ledger.ReasonShopPrediction); err != nil {
			return err
		}
		_, err = s.predictions.Place(ctx, gameID, userID, target, candidates)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{Price: settings.PredictionPrice, Day: target}, nil
}

// Status возвращает баланс и активные покупки игрока.
func (s *Service) Status(ctx context.Context, gameID, userID int64, settings config.GameSettings, now time.Time) (*Status, error) {
	today := common.DayOf(now)
	st := &Status{PredictionDay: today.Next()}

	var err error
	if st.Balance, err = s.ledger.Balance(ctx, gameID, userID); err != nil {
		return nil, err
	}

	e, err := s.effects.Get(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if e.ProtectedUntil != nil && !e.ProtectedUntil.Before(today) {
		st.ProtectedUntil = e.ProtectedUntil
	}
	st.CooldownLeft = e.CooldownLeft(now, settings.ImmunityCooldownDays)

	if st.AmplifiedToday, err = s.effects.AmplifiedToday(ctx, gameID, userID, today); err != nil {
		return nil, err
	}

	_, err = s.predictions.Get(ctx, gameID, userID, st.PredictionDay)
	switch {
	case err == nil:
		st.Predicted = true
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	log.WithFields(log.Fields{"game_id": gameID, "user_id": userID}).Debug("Статус магазина")
	return st, nil
}

func (s *Service) rosterIDs(ctx context.Context, gameID int64) ([]int64, error) {
	roster, err := s.players.Roster(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

func (s *Service) inRoster(ctx context.Context, gameID, userID int64) error {
	ids, err := s.rosterIDs(ctx, gameID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == userID {
			return nil
		}
	}
	return common.ErrNotFound
}
