// Package predictions ведёт предсказания пидора дня: игрок платит
// и называет кандидатов на завтра, при угадывании получает награду.
package predictions

import (
	"slices"
	"time"
)

// Prediction — предсказание игрока на день.
type Prediction struct {
	ID     int64 `db:"id"`
	GameID int64 `db:"game_id"`
	UserID int64 `db:"user_id"`
	Year   int   `db:"year"`
	Day    int   `db:"day"`

	Candidates []int64 `db:"candidates"`
	// RewardedWinners — победители дня, за которых награда уже выплачена
	RewardedWinners []int64   `db:"rewarded_winners"`
	IsCorrect       *bool     `db:"is_correct"`
	CreatedAt       time.Time `db:"created_at"`
}

// Names — угадан ли userID.
func (p *Prediction) Names(userID int64) bool {
	return slices.Contains(p.Candidates, userID)
}

// Rewarded — выплачена ли награда за победителя userID.
func (p *Prediction) Rewarded(userID int64) bool {
	return slices.Contains(p.RewardedWinners, userID)
}

// Outcome — итог проверки одного предсказания.
type Outcome struct {
	Prediction *Prediction
	Correct    bool
	// Reward — начисленная сейчас награда (0, если не угадал или уже получал)
	Reward int64
}
