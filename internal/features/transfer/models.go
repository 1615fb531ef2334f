// Package transfer отвечает за переводы койнов между игроками
// (с комиссией в банк чата) и за ежедневный бонус.
package transfer

import "time"

// Transfer — перевод койнов. Один перевод на отправителя в день.
type Transfer struct {
	ID         int64     `db:"id"`
	GameID     int64     `db:"game_id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Amount     int64     `db:"amount"`     // списано с отправителя
	Commission int64     `db:"commission"` // ушло в банк чата
	Year       int       `db:"year"`
	Day        int       `db:"day"`
	CreatedAt  time.Time `db:"created_at"`
}

// Received — сколько получил получатель.
func (t *Transfer) Received() int64 {
	return t.Amount - t.Commission
}

// BonusClaim — получение ежедневного бонуса.
type BonusClaim struct {
	GameID    int64     `db:"game_id"`
	UserID    int64     `db:"user_id"`
	Year      int       `db:"year"`
	Day       int       `db:"day"`
	IsWinner  bool      `db:"is_winner"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}
