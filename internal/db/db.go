// Package db описывает границу транзакций, общую для всех хранилищ.
// Каждая составная операция над игрой (розыгрыш, покупка, перевыбор,
// закрытие голосования) выполняется внутри InGame: все записи либо
// фиксируются вместе, либо не фиксируются вовсе.
package db

import "context"

// Transactor выполняет fn в критической секции игры.
// Вложенный вызов с тем же ctx переиспользует уже открытую транзакцию.
// Ошибка fn откатывает транзакцию и возвращается без изменений.
type Transactor interface {
	InGame(ctx context.Context, gameID int64, fn func(ctx context.Context) error) error
}
