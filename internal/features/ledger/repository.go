// Package ledger — repository.go работает с таблицей ledger_entries.
// Записи только добавляются; баланс считается агрегатом SUM(amount).
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит журнал в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий журнала.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert добавляет запись и заполняет ID и CreatedAt.
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO ledger_entries (operation_id, game_id, user_id, amount, year, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.OperationID, e.GameID, e.UserID, e.Amount, e.Year, e.Reason).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}

// Balance возвращает баланс за всё время.
func (r *Repository) Balance(ctx context.Context, gameID, userID int64) (int64, error) {
	var balance int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE game_id = $1 AND user_id = $2
	`, gameID, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// YearBalance возвращает сумму движений за календарный год.
func (r *Repository) YearBalance(ctx context.Context, gameID, userID int64, year int) (int64, error) {
	var balance int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE game_id = $1 AND user_id = $2 AND year = $3
	`, gameID, userID, year).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса за %d: %w", year, err)
	}
	return balance, nil
}

// Leaderboard возвращает игроков с наибольшим балансом.
// year == 0: за всё время.
func (r *Repository) Leaderboard(ctx context.Context, gameID int64, year, limit int) ([]Standing, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT user_id, SUM(amount) AS balance
		FROM ledger_entries
		WHERE game_id = $1 AND ($2 = 0 OR year = $2)
		GROUP BY user_id
		ORDER BY balance DESC, user_id
		LIMIT $3
	`, gameID, year, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения топа: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.Balance); err != nil {
			return nil, fmt.Errorf("ошибка сканирования топа: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// History возвращает последние записи игрока.
func (r *Repository) History(ctx context.Context, gameID, userID int64, limit int) ([]*Entry, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT id, operation_id, game_id, user_id, amount, year, reason, created_at
		FROM ledger_entries
		WHERE game_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, gameID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OperationID, &e.GameID, &e.UserID,
			&e.Amount, &e.Year, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
