// Package voting — repository.go работает с таблицами final_votings,
// final_voting_candidates, final_voting_ballots и final_voting_winners.
package voting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
)

// Repository хранит голосования в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий голосований.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const votingColumns = `
	id, game_id, year, status, poll_id, poll_message_id, started_at, ended_at,
	missed_days, max_choices, excluded_leaders, version`

// Create создаёт активное голосование вместе с кандидатами.
// Если голосование за год уже есть: common.ErrAlreadyExists.
func (r *Repository) Create(ctx context.Context, v *Voting, candidates []Candidate) error {
	q := postgres.Conn(ctx, r.db)
	err := q.QueryRow(ctx, `
		INSERT INTO final_votings (game_id, year, status, started_at, missed_days, max_choices, excluded_leaders)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id, year) DO NOTHING
		RETURNING id, version
	`, v.GameID, v.Year, StatusActive, v.StartedAt, v.MissedDays, v.MaxChoices, v.ExcludedLeaders,
	).Scan(&v.ID, &v.Version)
	if err != nil {
		if postgres.IsNoRows(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("ошибка создания голосования за %d: %w", v.Year, err)
	}
	v.Status = StatusActive

	for _, c := range candidates {
		if _, err := q.Exec(ctx, `
			INSERT INTO final_voting_candidates (voting_id, position, user_id, wins)
			VALUES ($1, $2, $3, $4)
		`, v.ID, c.Position, c.UserID, c.Wins); err != nil {
			return fmt.Errorf("ошибка сохранения кандидата %d: %w", c.UserID, err)
		}
	}
	return nil
}

// Get возвращает голосование игры за год или common.ErrNotFound.
func (r *Repository) Get(ctx context.Context, gameID int64, year int) (*Voting, error) {
	return r.queryOne(ctx, `SELECT `+votingColumns+` FROM final_votings WHERE game_id = $1 AND year = $2`, gameID, year)
}

// GetByPoll ищет голосование по ID опроса Telegram.
func (r *Repository) GetByPoll(ctx context.Context, pollID string) (*Voting, error) {
	return r.queryOne(ctx, `SELECT `+votingColumns+` FROM final_votings WHERE poll_id = $1`, pollID)
}

// AttachPoll запоминает опрос, открытый для голосования.
func (r *Repository) AttachPoll(ctx context.Context, votingID int64, pollID string, messageID int) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE final_votings SET poll_id = $2, poll_message_id = $3 WHERE id = $1
	`, votingID, pollID, messageID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения опроса: %w", err)
	}
	return nil
}

// Delete удаляет голосование (если опрос не удалось открыть).
func (r *Repository) Delete(ctx context.Context, votingID int64) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `DELETE FROM final_votings WHERE id = $1`, votingID)
	if err != nil {
		return fmt.Errorf("ошибка удаления голосования %d: %w", votingID, err)
	}
	return nil
}

// Candidates возвращает кандидатов в порядке вариантов опроса.
func (r *Repository) Candidates(ctx context.Context, votingID int64) ([]Candidate, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT position, user_id, wins FROM final_voting_candidates
		WHERE voting_id = $1 ORDER BY position
	`, votingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кандидатов: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Position, &c.UserID, &c.Wins); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кандидата: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveBallot сохраняет или заменяет бюллетень игрока.
func (r *Repository) SaveBallot(ctx context.Context, votingID int64, b Ballot) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO final_voting_ballots (voting_id, voter_id, candidate_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (voting_id, voter_id) DO UPDATE
		SET candidate_ids = EXCLUDED.candidate_ids, updated_at = NOW()
	`, votingID, b.VoterID, b.CandidateIDs)
	if err != nil {
		return fmt.Errorf("ошибка сохранения голоса %d: %w", b.VoterID, err)
	}
	return nil
}

// DeleteBallot удаляет бюллетень (игрок отозвал голос).
func (r *Repository) DeleteBallot(ctx context.Context, votingID, voterID int64) error {
	_, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		DELETE FROM final_voting_ballots WHERE voting_id = $1 AND voter_id = $2
	`, votingID, voterID)
	if err != nil {
		return fmt.Errorf("ошибка удаления голоса %d: %w", voterID, err)
	}
	return nil
}

// Ballots возвращает все бюллетени голосования.
func (r *Repository) Ballots(ctx context.Context, votingID int64) ([]Ballot, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT voter_id, candidate_ids FROM final_voting_ballots
		WHERE voting_id = $1 ORDER BY voter_id
	`, votingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения голосов: %w", err)
	}
	defer rows.Close()

	var out []Ballot
	for rows.Next() {
		var b Ballot
		if err := rows.Scan(&b.VoterID, &b.CandidateIDs); err != nil {
			return nil, fmt.Errorf("ошибка сканирования голоса: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Complete переводит голосование active → completed и сохраняет победителей.
// false — голосование уже закрыто кем-то другим, ничего не записано.
func (r *Repository) Complete(ctx context.Context, v *Voting, winners []Winner, endedAt time.Time) (bool, error) {
	q := postgres.Conn(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE final_votings
		SET status = $2, ended_at = $3, version = version + 1
		WHERE id = $1 AND status = $4
	`, v.ID, StatusCompleted, endedAt, StatusActive)
	if err != nil {
		return false, fmt.Errorf("ошибка закрытия голосования %d: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, w := range winners {
		if _, err := q.Exec(ctx, `
			INSERT INTO final_voting_winners (voting_id, rank, user_id, score, days)
			VALUES ($1, $2, $3, $4::numeric, $5)
		`, v.ID, w.Rank, w.UserID, w.Score.String(), w.Days); err != nil {
			return false, fmt.Errorf("ошибка сохранения победителя %d: %w", w.UserID, err)
		}
	}

	v.Status = StatusCompleted
	v.EndedAt = &endedAt
	v.Version++
	return true, nil
}

// Winners возвращает победителей по рангу.
func (r *Repository) Winners(ctx context.Context, votingID int64) ([]Winner, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT rank, user_id, score::text, days FROM final_voting_winners
		WHERE voting_id = $1 ORDER BY rank
	`, votingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения победителей: %w", err)
	}
	defer rows.Close()

	var out []Winner
	for rows.Next() {
		var (
			w     Winner
			score string
		)
		if err := rows.Scan(&w.Rank, &w.UserID, &score, &w.Days); err != nil {
			return nil, fmt.Errorf("ошибка сканирования победителя: %w", err)
		}
		if w.Score, err = decimal.NewFromString(score); err != nil {
			return nil, fmt.Errorf("некорректные очки %q: %w", score, err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Active возвращает все активные голосования с чатами игр.
func (r *Repository) Active(ctx context.Context) ([]Due, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT fv.id, fv.game_id, fv.year, fv.status, fv.poll_id, fv.poll_message_id, fv.started_at, fv.ended_at,
		       fv.missed_days, fv.max_choices, fv.excluded_leaders, fv.version, g.chat_id
		FROM final_votings fv
		JOIN games g ON g.id = fv.game_id
		WHERE fv.status = $1
		ORDER BY fv.started_at
	`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных голосований: %w", err)
	}
	defer rows.Close()

	var out []Due
	for rows.Next() {
		var (
			v      Voting
			chatID int64
		)
		if err := rows.Scan(&v.ID, &v.GameID, &v.Year, &v.Status, &v.PollID, &v.PollMessageID,
			&v.StartedAt, &v.EndedAt, &v.MissedDays, &v.MaxChoices, &v.ExcludedLeaders, &v.Version, &chatID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования голосования: %w", err)
		}
		out = append(out, Due{Voting: &v, ChatID: chatID})
	}
	return out, rows.Err()
}

func (r *Repository) queryOne(ctx context.Context, query string, args ...any) (*Voting, error) {
	var v Voting
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.GameID, &v.Year, &v.Status, &v.PollID, &v.PollMessageID,
		&v.StartedAt, &v.EndedAt, &v.MissedDays, &v.MaxChoices, &v.ExcludedLeaders, &v.Version)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения голосования: %w", err)
	}
	return &v, nil
}
