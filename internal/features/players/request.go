package players

import (
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
)

// Request — контекст одной команды: игра, автор, настройки чата и время.
// Собирается ботом на каждый апдейт и передаётся в обработчики.
type Request struct {
	Game      *Game
	Player    *Player
	Settings  config.GameSettings
	Now       time.Time
	MessageID int
	Args      []string
}

// Today — игровой день запроса.
func (r *Request) Today() common.Day {
	return common.DayOf(r.Now)
}
