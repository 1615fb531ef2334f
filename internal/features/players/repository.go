// Package players — repository.go отвечает за таблицы games, players и game_players.
package players

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит игры и составы в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureGame возвращает игру чата, создавая её при первом обращении.
func (r *Repository) EnsureGame(ctx context.Context, chatID int64) (*Game, error) {
	q := postgres.Conn(ctx, r.db)
	var g Game
	err := q.QueryRow(ctx, `
		INSERT INTO games (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING id, chat_id, created_at
	`, chatID).Scan(&g.ID, &g.ChatID, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания игры (chat_id=%d): %w", chatID, err)
	}
	return &g, nil
}

// GameByID возвращает игру по ID.
func (r *Repository) GameByID(ctx context.Context, gameID int64) (*Game, error) {
	var g Game
	err := postgres.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, chat_id, created_at FROM games WHERE id = $1`, gameID,
	).Scan(&g.ID, &g.ChatID, &g.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения игры %d: %w", gameID, err)
	}
	return &g, nil
}

// UpsertPlayer создаёт игрока или обновляет его имя/username.
func (r *Repository) UpsertPlayer(ctx context.Context, p *Player) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO players (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`, p.UserID, p.Username, p.FirstName, p.LastName)
	if err != nil {
		return fmt.Errorf("ошибка сохранения игрока %d: %w", p.UserID, err)
	}
	return nil
}

// AddToRoster добавляет игрока в игру. false: уже был в составе.
func (r *Repository) AddToRoster(ctx context.Context, gameID, userID int64) (bool, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO game_players (game_id, user_id) VALUES ($1, $2)
		ON CONFLICT (game_id, user_id) DO NOTHING
	`, gameID, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка регистрации игрока %d: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveFromRoster убирает игрока из игры. false: его там не было.
func (r *Repository) RemoveFromRoster(ctx context.Context, gameID, userID int64) (bool, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx,
		`DELETE FROM game_players WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления игрока %d: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Roster возвращает состав игры в порядке регистрации.
func (r *Repository) Roster(ctx context.Context, gameID int64) ([]*Player, error) {
	return r.queryPlayers(ctx, `
		SELECT p.user_id, p.username, p.first_name, p.last_name
		FROM game_players gp
		JOIN players p ON p.user_id = gp.user_id
		WHERE gp.game_id = $1
		ORDER BY gp.created_at, p.user_id
	`, gameID)
}

// Player возвращает игрока по Telegram user ID.
func (r *Repository) Player(ctx context.Context, userID int64) (*Player, error) {
	players, err := r.queryPlayers(ctx, `
		SELECT user_id, username, first_name, last_name FROM players WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, common.ErrNotFound
	}
	return players[0], nil
}

// FindInGame ищет игрока состава по @username без учёта регистра.
func (r *Repository) FindInGame(ctx context.Context, gameID int64, username string) (*Player, error) {
	players, err := r.queryPlayers(ctx, `
		SELECT p.user_id, p.username, p.first_name, p.last_name
		FROM game_players gp
		JOIN players p ON p.user_id = gp.user_id
		WHERE gp.game_id = $1 AND LOWER(p.username) = LOWER($2)
	`, gameID, username)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, common.ErrNotFound
	}
	return players[0], nil
}

func (r *Repository) queryPlayers(ctx context.Context, query string, args ...any) ([]*Player, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса игроков: %w", err)
	}
	defer rows.Close()

	var out []*Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.UserID, &p.Username, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
