// Package common — pluralize.go содержит вспомогательные функции
// для правильного склонения русских числительных.
package common

import "fmt"

// pluralize выбирает форму слова для числа n по правилам русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, ...)
//   - остальное → many (0, 5-20, 25-30, ...)
func pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeCoins возвращает форму слова «койн» для числа n.
//
//	PluralizeCoins(1)  → "койн"
//	PluralizeCoins(3)  → "койна"
//	PluralizeCoins(11) → "койнов"
func PluralizeCoins(n int64) string {
	return pluralize(n, "койн", "койна", "койнов")
}

// PluralizeDays возвращает форму слова «день» для числа n.
func PluralizeDays(n int) string {
	return pluralize(int64(n), "день", "дня", "дней")
}

// PluralizeTimes возвращает форму слова «раз» для числа n.
func PluralizeTimes(n int) string {
	return pluralize(int64(n), "раз", "раза", "раз")
}

// FormatBalance форматирует баланс: FormatBalance(150) → "150 койнов".
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(balance), PluralizeCoins(balance))
}

// FormatCoinsAmount создаёт строку вида "+100 койнов" или "-50 койнов".
func FormatCoinsAmount(amount int64) string {
	if amount >= 0 {
		return "+" + FormatBalance(amount)
	}
	return FormatBalance(amount)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
