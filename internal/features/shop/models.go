// Package shop продаёт эффекты за койны: защиту, двойной шанс и предсказание.
// Каждая покупка проверяет баланс, списывает цену и записывает эффект
// в одной транзакции игры.
package shop

import (
	"fmt"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// Item — товар магазина.
type Item struct {
	Key         string
	Name        string
	Description string
	Price       int64
	Enabled     bool
}

// Status — что игрок уже купил.
type Status struct {
	Balance int64
	// ProtectedUntil — день окончания защиты (nil — защиты нет)
	ProtectedUntil *common.Day
	CooldownLeft   int
	AmplifiedToday bool
	PredictionDay  common.Day
	Predicted      bool
}

// Receipt — итог покупки.
type Receipt struct {
	Price int64
	// Day — день, на который действует покупка
	Day common.Day
}

// CooldownError — защиту нельзя купить ещё DaysLeft дней.
type CooldownError struct {
	DaysLeft int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: осталось %d %s", common.ErrCooldown, e.DaysLeft, common.PluralizeDays(e.DaysLeft))
}

// Unwrap позволяет проверять ошибку через errors.Is(err, common.ErrCooldown).
func (e *CooldownError) Unwrap() error {
	return common.ErrCooldown
}
