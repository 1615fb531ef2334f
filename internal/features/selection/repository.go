// Package selection — repository.go работает с таблицей daily_results.
package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит результаты дней в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий результатов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get возвращает результат дня или common.ErrNotFound.
func (r *Repository) Get(ctx context.Context, gameID int64, d common.Day) (*DailyResult, error) {
	var res DailyResult
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT game_id, year, day, winner_id, original_winner_id, reroll_initiator_id,
		       reroll_available, message_id, created_at
		FROM daily_results
		WHERE game_id = $1 AND year = $2 AND day = $3
	`, gameID, d.Year, d.Day).Scan(&res.GameID, &res.Year, &res.Day, &res.WinnerID,
		&res.OriginalWinnerID, &res.RerollInitiatorID, &res.RerollAvailable, &res.MessageID, &res.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения результата %d-%d: %w", d.Year, d.Day, err)
	}
	return &res, nil
}

// Insert создаёт результат дня. Повтор: common.ErrAlreadyExists.
func (r *Repository) Insert(ctx context.Context, res *DailyResult) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO daily_results (game_id, year, day, winner_id, reroll_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, year, day) DO NOTHING
	`, res.GameID, res.Year, res.Day, res.WinnerID, res.RerollAvailable, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения результата %d-%d: %w", res.Year, res.Day, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

// ApplyReroll записывает нового победителя, если перевыбор ещё доступен.
// Иначе возвращает common.ErrRerollUnavailable.
func (r *Repository) ApplyReroll(ctx context.Context, res *DailyResult) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE daily_results
		SET winner_id = $4, original_winner_id = $5, reroll_initiator_id = $6, reroll_available = FALSE
		WHERE game_id = $1 AND year = $2 AND day = $3 AND reroll_available
	`, res.GameID, res.Year, res.Day, res.WinnerID, res.OriginalWinnerID, res.RerollInitiatorID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения перевыбора: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrRerollUnavailable
	}
	return nil
}

// AttachMessage запоминает сообщение с объявлением результата.
func (r *Repository) AttachMessage(ctx context.Context, gameID int64, d common.Day, messageID int) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE daily_results SET message_id = $4 WHERE game_id = $1 AND year = $2 AND day = $3
	`, gameID, d.Year, d.Day, messageID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сообщения результата: %w", err)
	}
	return nil
}

// CloseReroll снимает доступность перевыбора. false: уже был закрыт.
func (r *Repository) CloseReroll(ctx context.Context, gameID int64, d common.Day) (bool, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE daily_results SET reroll_available = FALSE
		WHERE game_id = $1 AND year = $2 AND day = $3 AND reroll_available
	`, gameID, d.Year, d.Day)
	if err != nil {
		return false, fmt.Errorf("ошибка закрытия перевыбора: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PendingRerolls возвращает результаты с открытым перевыбором, созданные до before.
func (r *Repository) PendingRerolls(ctx context.Context, before time.Time) ([]PendingReroll, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT dr.game_id, g.chat_id, dr.year, dr.day, dr.message_id, dr.created_at
		FROM daily_results dr
		JOIN games g ON g.id = dr.game_id
		WHERE dr.reroll_available AND dr.created_at < $1
		ORDER BY dr.created_at
	`, before)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения открытых перевыборов: %w", err)
	}
	defer rows.Close()

	var out []PendingReroll
	for rows.Next() {
		var p PendingReroll
		if err := rows.Scan(&p.GameID, &p.ChatID, &p.Year, &p.Day, &p.MessageID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования перевыбора: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// WinCounts возвращает число побед игроков за год (year == 0: за всё время),
// по убыванию побед.
func (r *Repository) WinCounts(ctx context.Context, gameID int64, year int) ([]WinCount, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT winner_id, COUNT(*) AS wins
		FROM daily_results
		WHERE game_id = $1 AND ($2 = 0 OR year = $2)
		GROUP BY winner_id
		ORDER BY wins DESC, winner_id
	`, gameID, year)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта побед: %w", err)
	}
	defer rows.Close()

	var out []WinCount
	for rows.Next() {
		var w WinCount
		if err := rows.Scan(&w.UserID, &w.Wins); err != nil {
			return nil, fmt.Errorf("ошибка сканирования побед: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Days возвращает номера дней года, за которые есть результат.
func (r *Repository) Days(ctx context.Context, gameID int64, year int) ([]int, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT day FROM daily_results WHERE game_id = $1 AND year = $2 ORDER BY day
	`, gameID, year)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения дней: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ошибка сканирования дня: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
