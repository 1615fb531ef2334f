// Package ledger ведёт журнал движений койнов.
// models.go описывает запись журнала и причины начислений/списаний.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry — неизменяемая запись журнала. Сумма со знаком:
// начисление положительное, списание отрицательное.
// Баланс игрока = сумма всех его записей в игре.
type Entry struct {
	ID          int64     `db:"id"`
	OperationID uuid.UUID `db:"operation_id"` // общий для всех записей одной операции
	GameID      int64     `db:"game_id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Year        int       `db:"year"`
	Reason      string    `db:"reason"`
	CreatedAt   time.Time `db:"created_at"`
}

// Standing — строка таблицы лидеров по койнам.
type Standing struct {
	UserID  int64
	Balance int64
}

// Причины движений
const (
	ReasonWin                = "pidor_win"
	ReasonWinReroll          = "pidor_win_reroll"
	ReasonProtectionBonus    = "immunity_save"
	ReasonProtectionReroll   = "immunity_save_reroll"
	ReasonShopImmunity       = "shop_immunity"
	ReasonShopDoublePrefix   = "shop_double_chance_for_"
	ReasonShopPrediction     = "shop_prediction"
	ReasonPredictionCorrect  = "prediction_correct"
	ReasonReroll             = "reroll"
	ReasonTransferToPrefix   = "transfer_to_"
	ReasonTransferFromPrefix = "transfer_from_"
	ReasonGiveCoins          = "give_coins_button"
)
