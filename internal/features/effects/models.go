// Package effects ведёт временные эффекты игроков: защиту от выбора
// и усиление шанса («двойной шанс»).
// models.go описывает строку эффектов игрока и покупку усиления.
package effects

import (
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// PlayerEffect — эффекты игрока в игре. Отсутствие строки равно нулевому состоянию.
type PlayerEffect struct {
	GameID int64 `db:"game_id"`
	UserID int64 `db:"user_id"`

	// ProtectedUntil — последний день действия защиты (включительно)
	ProtectedUntil *common.Day
	// ProtectionBoughtAt — время последней покупки защиты, от него считается кулдаун
	ProtectionBoughtAt *time.Time `db:"protection_bought_at"`

	// AmplificationCount — число невыигранных покупок усиления
	AmplificationCount int `db:"amplification_count"`
}

// IsProtected — действует ли защита в день d.
// 31 декабря защита не работает.
func (e *PlayerEffect) IsProtected(d common.Day) bool {
	if e == nil || e.ProtectedUntil == nil || d.IsLastOfYear() {
		return false
	}
	return !e.ProtectedUntil.Before(d)
}

// CooldownLeft возвращает, сколько дней осталось до возможности
// снова купить защиту. 0: можно покупать.
func (e *PlayerEffect) CooldownLeft(now time.Time, cooldownDays int) int {
	if e == nil || e.ProtectionBoughtAt == nil {
		return 0
	}
	passed := common.DaysBetween(*e.ProtectionBoughtAt, now)
	if passed >= cooldownDays {
		return 0
	}
	return cooldownDays - passed
}

// AmplificationPurchase — покупка усиления. Покупатель может сделать
// одну покупку в день, цель может получить усиление от нескольких покупателей.
type AmplificationPurchase struct {
	ID        int64     `db:"id"`
	GameID    int64     `db:"game_id"`
	BuyerID   int64     `db:"buyer_id"`
	TargetID  int64     `db:"target_id"`
	Year      int       `db:"year"`
	Day       int       `db:"day"`
	CreatedAt time.Time `db:"created_at"`
}
