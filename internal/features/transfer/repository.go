// Package transfer — repository.go работает с таблицами coin_transfers,
// chat_banks и bonus_claims.
package transfer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит переводы, банк и бонусы в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий переводов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertTransfer сохраняет перевод. Второй за день: common.ErrAlreadyClaimed.
func (r *Repository) InsertTransfer(ctx context.Context, t *Transfer) error {
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO coin_transfers (game_id, sender_id, receiver_id, amount, commission, year, day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, t.GameID, t.SenderID, t.ReceiverID, t.Amount, t.Commission, t.Year, t.Day).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrAlreadyClaimed
		}
		return fmt.Errorf("ошибка сохранения перевода: %w", err)
	}
	return nil
}

// TransferredOn — был ли перевод от senderID в день d.
func (r *Repository) TransferredOn(ctx context.Context, gameID, senderID int64, d common.Day) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM coin_transfers
			WHERE game_id = $1 AND sender_id = $2 AND year = $3 AND day = $4
		)
	`, gameID, senderID, d.Year, d.Day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки перевода: %w", err)
	}
	return exists, nil
}

// AddToBank пополняет банк чата и возвращает новый баланс.
func (r *Repository) AddToBank(ctx context.Context, gameID, amount int64) (int64, error) {
	var balance int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO chat_banks (game_id, balance) VALUES ($1, $2)
		ON CONFLICT (game_id) DO UPDATE
		SET balance = chat_banks.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`, gameID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка пополнения банка: %w", err)
	}
	return balance, nil
}

// BankBalance возвращает баланс банка чата (0, если банка ещё нет).
func (r *Repository) BankBalance(ctx context.Context, gameID int64) (int64, error) {
	var balance int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT COALESCE((SELECT balance FROM chat_banks WHERE game_id = $1), 0)`, gameID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения банка: %w", err)
	}
	return balance, nil
}

// InsertClaim сохраняет получение бонуса. Повтор за день: common.ErrAlreadyClaimed.
func (r *Repository) InsertClaim(ctx context.Context, c *BonusClaim) error {
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO bonus_claims (game_id, user_id, year, day, is_winner, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.GameID, c.UserID, c.Year, c.Day, c.IsWinner, c.Amount).Scan(&c.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrAlreadyClaimed
		}
		return fmt.Errorf("ошибка сохранения бонуса: %w", err)
	}
	return nil
}
