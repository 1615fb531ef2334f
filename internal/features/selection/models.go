// Package selection выбирает пидора дня: взвешенный розыгрыш с учётом
// защиты и усиления, платный перевыбор и статистика побед.
// models.go описывает результат дня и итоги розыгрыша.
package selection

import (
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
)

// DailyResult — итог розыгрыша за день. Один на (игра, год, день).
// После создания меняются только поля перевыбора, и только один раз.
type DailyResult struct {
	GameID   int64 `db:"game_id"`
	Year     int   `db:"year"`
	Day      int   `db:"day"`
	WinnerID int64 `db:"winner_id"`

	OriginalWinnerID  *int64 `db:"original_winner_id"`
	RerollInitiatorID *int64 `db:"reroll_initiator_id"`
	RerollAvailable   bool   `db:"reroll_available"`

	// MessageID — сообщение с объявлением и кнопкой перевыбора
	MessageID int       `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`
}

// GameDay возвращает игровой день результата.
func (r *DailyResult) GameDay() common.Day {
	return common.Day{Year: r.Year, Day: r.Day}
}

// Rerolled — был ли перевыбор.
func (r *DailyResult) Rerolled() bool {
	return r.OriginalWinnerID != nil
}

// DrawOutcome — итог вызова розыгрыша.
type DrawOutcome struct {
	Result *DailyResult
	// Existing — результат уже был, ничего не начислялось
	Existing bool
	// AllProtected — все игроки под защитой, победителя нет
	AllProtected bool
	// SavedID — защищённый игрок, которого выпало пропустить (0, если нет)
	SavedID int64
	Bonus   int64
	Reward  int64
	// Amplified — у победителя было усиление
	Amplified   bool
	Predictions []predictions.Outcome
}

// RerollOutcome — итог перевыбора.
type RerollOutcome struct {
	Result           *DailyResult
	PreviousWinnerID int64
	SavedID          int64
	Bonus            int64
	Reward           int64
	Predictions      []predictions.Outcome
}

// WinCount — число побед игрока.
type WinCount struct {
	UserID int64
	Wins   int
}

// PendingReroll — результат с ещё открытой кнопкой перевыбора.
type PendingReroll struct {
	GameID    int64
	ChatID    int64
	Year      int
	Day       int
	MessageID int
	CreatedAt time.Time
}
