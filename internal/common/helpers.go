// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"time"
)

// MoscowLocation возвращает часовой пояс Europe/Moscow.
// Игровые сутки считаются по Москве.
func MoscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить: используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// GetMoscowTime возвращает текущее время в часовом поясе Москвы.
func GetMoscowTime() time.Time {
	return time.Now().In(MoscowLocation())
}

// Today возвращает игровой день для текущего московского времени.
func Today() Day {
	return DayOf(GetMoscowTime())
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
func FormatDateTime(t time.Time) string {
	return t.In(MoscowLocation()).Format("02.01.2006 15:04")
}

// FormatDay форматирует игровой день как "02.01.2006".
func FormatDay(d Day) string {
	return d.Date(MoscowLocation()).Format("02.01.2006")
}

// FormatUserMention возвращает @username или имя, если username пустой.
func FormatUserMention(username, firstName string, userID int64) string {
	if username != "" {
		return "@" + username
	}
	if firstName != "" {
		return firstName
	}
	return fmt.Sprintf("id%d", userID)
}
