// Package effects — repository.go работает с таблицами player_effects
// и amplification_purchases.
package effects

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит эффекты в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий эффектов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const effectColumns = `game_id, user_id, protected_until_year, protected_until_day,
	protection_bought_at, amplification_count`

// GetOrCreate возвращает эффекты игрока, создавая нулевую строку при отсутствии.
// Внутри транзакции строка блокируется до её конца.
func (r *Repository) GetOrCreate(ctx context.Context, gameID, userID int64) (*PlayerEffect, error) {
	q := postgres.Conn(ctx, r.db)
	_, err := q.Exec(ctx, `
		INSERT INTO player_effects (game_id, user_id) VALUES ($1, $2)
		ON CONFLICT (game_id, user_id) DO NOTHING
	`, gameID, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания эффектов игрока %d: %w", userID, err)
	}

	row := q.QueryRow(ctx, `SELECT `+effectColumns+`
		FROM player_effects WHERE game_id = $1 AND user_id = $2 FOR UPDATE`, gameID, userID)
	e, err := scanEffect(row)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения эффектов игрока %d: %w", userID, err)
	}
	return e, nil
}

// Save перезаписывает защиту и счётчик усилений.
func (r *Repository) Save(ctx context.Context, e *PlayerEffect) error {
	var year, day *int
	if e.ProtectedUntil != nil {
		year, day = &e.ProtectedUntil.Year, &e.ProtectedUntil.Day
	}
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO player_effects (game_id, user_id, protected_until_year, protected_until_day,
			protection_bought_at, amplification_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, user_id) DO UPDATE
		SET protected_until_year = EXCLUDED.protected_until_year,
		    protected_until_day = EXCLUDED.protected_until_day,
		    protection_bought_at = EXCLUDED.protection_bought_at,
		    amplification_count = EXCLUDED.amplification_count,
		    updated_at = NOW()
	`, e.GameID, e.UserID, year, day, e.ProtectionBoughtAt, e.AmplificationCount)
	if err != nil {
		return fmt.Errorf("ошибка сохранения эффектов игрока %d: %w", e.UserID, err)
	}
	return nil
}

// ForGame возвращает все строки эффектов игры.
func (r *Repository) ForGame(ctx context.Context, gameID int64) ([]*PlayerEffect, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `SELECT `+effectColumns+`
		FROM player_effects WHERE game_id = $1`, gameID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения эффектов игры %d: %w", gameID, err)
	}
	defer rows.Close()

	var out []*PlayerEffect
	for rows.Next() {
		e, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования эффектов: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertAmplification сохраняет покупку усиления.
// Вторая покупка того же покупателя в тот же день: common.ErrAlreadyExists.
func (r *Repository) InsertAmplification(ctx context.Context, p *AmplificationPurchase) error {
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO amplification_purchases (game_id, buyer_id, target_id, year, day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.GameID, p.BuyerID, p.TargetID, p.Year, p.Day).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("ошибка сохранения покупки усиления: %w", err)
	}
	return nil
}

// AmplificationBoughtBy возвращает покупку покупателя за день, если она есть.
func (r *Repository) AmplificationBoughtBy(ctx context.Context, gameID, buyerID int64, d common.Day) (*AmplificationPurchase, error) {
	var p AmplificationPurchase
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, game_id, buyer_id, target_id, year, day, created_at
		FROM amplification_purchases
		WHERE game_id = $1 AND buyer_id = $2 AND year = $3 AND day = $4
	`, gameID, buyerID, d.Year, d.Day).Scan(&p.ID, &p.GameID, &p.BuyerID, &p.TargetID, &p.Year, &p.Day, &p.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения покупки усиления: %w", err)
	}
	return &p, nil
}

// ResetAmplification обнуляет счётчик усилений игрока.
func (r *Repository) ResetAmplification(ctx context.Context, gameID, userID int64) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE player_effects SET amplification_count = 0, updated_at = NOW()
		WHERE game_id = $1 AND user_id = $2
	`, gameID, userID)
	if err != nil {
		return fmt.Errorf("ошибка сброса усиления игрока %d: %w", userID, err)
	}
	return nil
}

func scanEffect(row pgx.Row) (*PlayerEffect, error) {
	var (
		e         PlayerEffect
		year, day *int
	)
	if err := row.Scan(&e.GameID, &e.UserID, &year, &day, &e.ProtectionBoughtAt, &e.AmplificationCount); err != nil {
		return nil, err
	}
	if year != nil && day != nil {
		e.ProtectedUntil = &common.Day{Year: *year, Day: *day}
	}
	return &e, nil
}
