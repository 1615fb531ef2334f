// Package ledger — service.go содержит операции с койнами.
//
// Debit не проверяет достаточность средств: вызывающий код сначала
// проверяет CanAfford внутри той же транзакции игры, а затем списывает.
// Spend объединяет оба шага для типичных покупок.
package ledger

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// Store — хранилище журнала.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
	Balance(ctx context.Context, gameID, userID int64) (int64, error)
	YearBalance(ctx context.Context, gameID, userID int64, year int) (int64, error)
	Leaderboard(ctx context.Context, gameID int64, year, limit int) ([]Standing, error)
	History(ctx context.Context, gameID, userID int64, limit int) ([]*Entry, error)
}

type operationKey struct{}

// WithOperation помечает ctx новым ID операции: все записи,
// сделанные с этим ctx, получат один operation_id.
func WithOperation(ctx context.Context) context.Context {
	return context.WithValue(ctx, operationKey{}, uuid.New())
}

// OperationID возвращает ID операции из ctx или новый, если его нет.
func OperationID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(operationKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.New()
}

// Service управляет койнами игроков.
type Service struct {
	repo Store
}

// NewService создаёт сервис журнала.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Credit начисляет amount койнов.
func (s *Service) Credit(ctx context.Context, gameID, userID, amount int64, year int, reason string) (*Entry, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	return s.insert(ctx, gameID, userID, amount, year, reason)
}

// Debit списывает amount койнов (запись с отрицательной суммой).
// Достаточность средств не проверяется.
func (s *Service) Debit(ctx context.Context, gameID, userID, amount int64, year int, reason string) (*Entry, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	return s.insert(ctx, gameID, userID, -amount, year, reason)
}

// Spend проверяет баланс и списывает price.
// Возвращает common.ErrInsufficientFunds, если койнов не хватает.
// Нулевая цена ничего не списывает и возвращает nil запись.
func (s *Service) Spend(ctx context.Context, gameID, userID, price int64, year int, reason string) (*Entry, error) {
	if price == 0 {
		return nil, nil
	}
	ok, err := s.CanAfford(ctx, gameID, userID, price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientFunds
	}
	return s.Debit(ctx, gameID, userID, price, year, reason)
}

// Balance возвращает баланс игрока за всё время.
func (s *Service) Balance(ctx context.Context, gameID, userID int64) (int64, error) {
	return s.repo.Balance(ctx, gameID, userID)
}

// YearBalance возвращает сумму движений игрока за год.
func (s *Service) YearBalance(ctx context.Context, gameID, userID int64, year int) (int64, error) {
	return s.repo.YearBalance(ctx, gameID, userID, year)
}

// CanAfford — хватает ли баланса (balance >= price).
func (s *Service) CanAfford(ctx context.Context, gameID, userID, price int64) (bool, error) {
	balance, err := s.repo.Balance(ctx, gameID, userID)
	if err != nil {
		return false, err
	}
	return balance >= price, nil
}

// Leaderboard возвращает топ по койнам; year == 0: за всё время.
func (s *Service) Leaderboard(ctx context.Context, gameID int64, year, limit int) ([]Standing, error) {
	return s.repo.Leaderboard(ctx, gameID, year, limit)
}

// History возвращает последние движения игрока.
func (s *Service) History(ctx context.Context, gameID, userID int64, limit int) ([]*Entry, error) {
	return s.repo.History(ctx, gameID, userID, limit)
}

func (s *Service) insert(ctx context.Context, gameID, userID, amount int64, year int, reason string) (*Entry, error) {
	e := &Entry{
		OperationID: OperationID(ctx),
		GameID:      gameID,
		UserID:      userID,
		Amount:      amount,
		Year:        year,
		Reason:      reason,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":   gameID,
		"user_id":   userID,
		"amount":    amount,
		"year":      year,
		"reason":    reason,
		"operation": e.OperationID.String(),
	}).Debug("Движение койнов")
	return e, nil
}
