// Package predictions — repository.go работает с таблицей predictions.
package predictions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит предсказания в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий предсказаний.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert сохраняет предсказание. Второе на тот же день: common.ErrAlreadyExists.
func (r *Repository) Insert(ctx context.Context, p *Prediction) error {
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO predictions (game_id, user_id, year, day, candidates)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.GameID, p.UserID, p.Year, p.Day, p.Candidates).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("ошибка сохранения предсказания: %w", err)
	}
	return nil
}

// Get возвращает предсказание игрока на день.
func (r *Repository) Get(ctx context.Context, gameID, userID int64, d common.Day) (*Prediction, error) {
	list, err := r.query(ctx, `
		SELECT id, game_id, user_id, year, day, candidates, rewarded_winners, is_correct, created_at
		FROM predictions
		WHERE game_id = $1 AND user_id = $2 AND year = $3 AND day = $4
	`, gameID, userID, d.Year, d.Day)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrNotFound
	}
	return list[0], nil
}

// ForDay возвращает все предсказания игры на день.
func (r *Repository) ForDay(ctx context.Context, gameID int64, d common.Day) ([]*Prediction, error) {
	return r.query(ctx, `
		SELECT id, game_id, user_id, year, day, candidates, rewarded_winners, is_correct, created_at
		FROM predictions
		WHERE game_id = $1 AND year = $2 AND day = $3
		ORDER BY id
	`, gameID, d.Year, d.Day)
}

// Update сохраняет итог проверки.
func (r *Repository) Update(ctx context.Context, p *Prediction) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE predictions SET rewarded_winners = $2, is_correct = $3 WHERE id = $1
	`, p.ID, p.RewardedWinners, p.IsCorrect)
	if err != nil {
		return fmt.Errorf("ошибка обновления предсказания %d: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]*Prediction, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения предсказаний: %w", err)
	}
	defer rows.Close()

	var out []*Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &p.Year, &p.Day,
			&p.Candidates, &p.RewardedWinners, &p.IsCorrect, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования предсказания: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
