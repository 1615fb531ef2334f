// Package voting проводит финальное голосование года: пропущенные дни
// разыгрываются взвешенным голосованием, где вес игрока: число его побед.
// models.go описывает голосование, кандидатов, бюллетени и итоги.
package voting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status — состояние голосования. Переходы только вперёд:
// NotStarted → Active → Completed.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
)

// Voting — финальное голосование игры за год. Одно на (игра, год).
type Voting struct {
	ID            int64      `db:"id"`
	GameID        int64      `db:"game_id"`
	Year          int        `db:"year"`
	Status        Status     `db:"status"`
	PollID        string     `db:"poll_id"`
	PollMessageID int        `db:"poll_message_id"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`

	MissedDays      []int   `db:"missed_days"`
	MaxChoices      int     `db:"max_choices"`
	ExcludedLeaders []int64 `db:"excluded_leaders"`
	Version         int     `db:"version"`
}

// Excluded — исключён ли игрок из числа победителей.
func (v *Voting) Excluded(userID int64) bool {
	for _, id := range v.ExcludedLeaders {
		if id == userID {
			return true
		}
	}
	return false
}

// Candidate — вариант ответа в опросе. Position — индекс варианта.
type Candidate struct {
	Position int   `db:"position"`
	UserID   int64 `db:"user_id"`
	Wins     int   `db:"wins"`
}

// Ballot — бюллетень игрока: список выбранных кандидатов.
type Ballot struct {
	VoterID      int64   `db:"voter_id"`
	CandidateIDs []int64 `db:"candidate_ids"`
}

// Score — итог подсчёта по одному кандидату.
type Score struct {
	UserID int64
	Score  decimal.Decimal
	// Votes — ручные голоса, AutoVotes — из автоматического бюллетеня
	Votes     int
	AutoVotes int
	AutoVoted bool
	Excluded  bool
}

// Winner — победитель голосования и доставшиеся ему дни.
type Winner struct {
	Rank   int             `db:"rank"`
	UserID int64           `db:"user_id"`
	Score  decimal.Decimal `db:"score"`
	Days   []int           `db:"days"`
}

// Result — итог закрытия голосования.
type Result struct {
	Voting  *Voting
	Scores  []Score
	Winners []Winner
	// Random — никто не набрал веса, победители выбраны случайно
	Random bool
	// AlreadyCompleted — голосование уже было закрыто, ничего не менялось
	AlreadyCompleted bool
}

// Overview — состояние голосования для команды статуса.
type Overview struct {
	Status     Status
	Voting     *Voting
	Candidates []Candidate
	Voters     int
	Winners    []Winner
}

// Due — активное голосование, которое пора закрыть.
type Due struct {
	Voting *Voting
	ChatID int64
}
