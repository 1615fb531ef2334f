// Package common — calendar.go описывает игровой день (год + номер дня в году).
// Все эффекты, результаты и покупки привязаны к паре (год, день).
package common

import "time"

// Day — игровой день: календарный год и номер дня в году (1..366).
type Day struct {
	Year int
	Day  int
}

// DayOf возвращает игровой день для момента времени в его часовом поясе.
func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Day: t.YearDay()}
}

// IsLeapYear — високосный ли год.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear возвращает количество дней в году.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// Next возвращает следующий день с переходом через Новый год.
func (d Day) Next() Day {
	if d.Day >= DaysInYear(d.Year) {
		return Day{Year: d.Year + 1, Day: 1}
	}
	return Day{Year: d.Year, Day: d.Day + 1}
}

// Before — строго раньше ли d, чем o.
func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	return d.Day < o.Day
}

// IsLastOfYear — последний ли это день года (31 декабря).
func (d Day) IsLastOfYear() bool {
	return d.Day == DaysInYear(d.Year)
}

// Date возвращает полночь этого дня в указанном часовом поясе.
func (d Day) Date(loc *time.Location) time.Time {
	return time.Date(d.Year, time.January, 1, 0, 0, 0, 0, loc).AddDate(0, 0, d.Day-1)
}

// DaysBetween возвращает число полных суток между двумя моментами
// (по календарю Москвы).
func DaysBetween(from, to time.Time) int {
	loc := MoscowLocation()
	a := from.In(loc)
	b := to.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
