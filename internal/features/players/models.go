// Package players управляет играми (одна на чат) и их составом.
// models.go описывает игру и игрока.
package players

import "time"

// Game — игра, привязанная к чату. Создаётся при первом обращении и не удаляется.
type Game struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Player — пользователь Telegram. Экономика и эффекты всегда
// привязаны к паре (игра, игрок).
type Player struct {
	UserID    int64  `db:"user_id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// DisplayName возвращает @username или имя + фамилию.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

// FullName возвращает имя без упоминания, чтобы не тегать людей в статистике.
func (p *Player) FullName() string {
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	if p.Username != "" {
		name += " (" + p.Username + ")"
	}
	return name
}
