// Package postgres — tx.go реализует транзакции игры поверх pgx.
// Транзакция кладётся в context, репозитории достают её через Conn,
// поэтому сервисы не знают, работают они в транзакции или нет.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Querier — общее подмножество pgx.Tx и *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Conn возвращает транзакцию из ctx, если она открыта, иначе пул.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor открывает транзакцию на игру с advisory-блокировкой по game_id.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor создаёт транзактор поверх пула.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InGame выполняет fn в транзакции, держа pg_advisory_xact_lock(gameID).
// Блокировка снимается при commit/rollback.
func (t *Transactor) InGame(ctx context.Context, gameID int64, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", gameID); err != nil {
		return fmt.Errorf("ошибка блокировки игры %d: %w", gameID, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.WithError(err).WithField("game_id", gameID).Error("Не удалось зафиксировать транзакцию")
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// IsUniqueViolation — нарушено ли ограничение уникальности.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsNoRows — пустой результат QueryRow.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
