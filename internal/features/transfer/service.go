// Package transfer — service.go содержит перевод и ежедневный бонус.
package transfer

import (
	"context"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
)

// Store — хранилище переводов, банка и бонусов.
type Store interface {
	InsertTransfer(ctx context.Context, t *Transfer) error
	TransferredOn(ctx context.Context, gameID, senderID int64, d common.Day) (bool, error)
	AddToBank(ctx context.Context, gameID, amount int64) (int64, error)
	BankBalance(ctx context.Context, gameID int64) (int64, error)
	InsertClaim(ctx context.Context, c *BonusClaim) error
}

// Service выполняет переводы и выдаёт бонусы.
type Service struct {
	repo      Store
	tx        db.Transactor
	ledger    *ledger.Service
	selection *selection.Service
}

// NewService создаёт сервис переводов.
func NewService(repo Store, tx db.Transactor, ledgerService *ledger.Service, selectionService *selection.Service) *Service {
	return &Service{repo: repo, tx: tx, ledger: ledgerService, selection: selectionService}
}

// Commission считает комиссию: процент от суммы, но не меньше минимума.
func Commission(amount int64, settings config.GameSettings) int64 {
	c := amount * settings.TransferCommissionPercent / 100
	if c < settings.TransferMinCommission {
		c = settings.TransferMinCommission
	}
	return c
}

// Send переводит amount койнов от senderID к receiverID.
// Получатель получает amount за вычетом комиссии, комиссия уходит в банк чата.
func (s *Service) Send(ctx context.Context, gameID, senderID, receiverID, amount int64, settings config.GameSettings, now time.Time) (*Transfer, error) {
	if !settings.TransferEnabled {
		return nil, common.ErrFeatureDisabled
	}
	if senderID == receiverID {
		return nil, common.ErrSelfTarget
	}
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if amount < settings.TransferMinAmount {
		return nil, common.ErrTransferTooSmall
	}
	commission := Commission(amount, settings)
	if amount-commission <= 0 {
		return nil, common.ErrTransferTooSmall
	}

	today := common.DayOf(now)
	t := &Transfer{
		GameID:     gameID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Commission: commission,
		Year:       today.Year,
		Day:        today.Day,
	}
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		done, err := s.repo.TransferredOn(ctx, gameID, senderID, today)
		if err != nil {
			return err
		}
		if done {
			return common.ErrAlreadyClaimed
		}

		if _, err := s.ledger.Spend(ctx, gameID, senderID, amount, today.Year,
			ledger.ReasonTransferToPrefix+strconv.FormatInt(receiverID, 10)); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, gameID, receiverID, t.Received(), today.Year,
			ledger.ReasonTransferFromPrefix+strconv.FormatInt(senderID, 10)); err != nil {
			return err
		}
		if _, err := s.repo.AddToBank(ctx, gameID, commission); err != nil {
			return err
		}
		return s.repo.InsertTransfer(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":    gameID,
		"from":       senderID,
		"to":         receiverID,
		"amount":     amount,
		"commission": commission,
	}).Info("Перевод выполнен")
	return t, nil
}

// ClaimBonus выдаёт ежедневный бонус: GiveCoinsAmount, а пидору дня: GiveCoinsWinnerAmount.
func (s *Service) ClaimBonus(ctx context.Context, gameID, userID int64, settings config.GameSettings, now time.Time) (*BonusClaim, error) {
	if !settings.GiveCoinsEnabled {
		return nil, common.ErrFeatureDisabled
	}
	today := common.DayOf(now)
	claim := &BonusClaim{GameID: gameID, UserID: userID, Year: today.Year, Day: today.Day}
	ctx = ledger.WithOperation(ctx)

	err := s.tx.InGame(ctx, gameID, func(ctx context.Context) error {
		res, err := s.selection.Result(ctx, gameID, today)
		switch {
		case err == nil:
			claim.IsWinner = res.WinnerID == userID
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		claim.Amount = settings.GiveCoinsAmount
		if claim.IsWinner {
			claim.Amount = settings.GiveCoinsWinnerAmount
		}
		if err := s.repo.InsertClaim(ctx, claim); err != nil {
			return err
		}
		if claim.Amount <= 0 {
			return nil
		}
		_, err = s.ledger.Credit(ctx, gameID, userID, claim.Amount, today.Year, ledger.ReasonGiveCoins)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":   gameID,
		"user_id":   userID,
		"amount":    claim.Amount,
		"is_winner": claim.IsWinner,
	}).Info("Выдан ежедневный бонус")
	return claim, nil
}

// Bank возвращает баланс банка чата.
func (s *Service) Bank(ctx context.Context, gameID int64) (int64, error) {
	return s.repo.BankBalance(ctx, gameID)
}
