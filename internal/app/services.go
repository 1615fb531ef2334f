// Package app — services.go собирает хранилища и сервисы игры.
// Одна и та же сборка используется ботом (PostgreSQL или память)
// и тестами сервисов (память).
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/dailypick-bot/internal/db"
	"serotonyl.ru/dailypick-bot/internal/db/memory"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/shop"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

// Stores — хранилища всех фич и граница транзакций.
type Stores struct {
	Tx          db.Transactor
	Players     players.Store
	Ledger      ledger.Store
	Effects     effects.Store
	Predictions predictions.Store
	Results     selection.Store
	Transfers   transfer.Store
	Votings     voting.Store
}

// PostgresStores — репозитории поверх пула PostgreSQL.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Tx:          postgres.NewTransactor(pool),
		Players:     players.NewRepository(pool),
		Ledger:      ledger.NewRepository(pool),
		Effects:     effects.NewRepository(pool),
		Predictions: predictions.NewRepository(pool),
		Results:     selection.NewRepository(pool),
		Transfers:   transfer.NewRepository(pool),
		Votings:     voting.NewRepository(pool),
	}
}

// MemoryStores — хранилища в памяти процесса.
func MemoryStores(m *memory.DB) Stores {
	return Stores{
		Tx:          m,
		Players:     m.Players(),
		Ledger:      m.Ledger(),
		Effects:     m.Effects(),
		Predictions: m.Predictions(),
		Results:     m.Results(),
		Transfers:   m.Transfers(),
		Votings:     m.Votings(),
	}
}

// Services — сервисы игры, связанные друг с другом.
type Services struct {
	Players     *players.Service
	Ledger      *ledger.Service
	Effects     *effects.Registry
	Predictions *predictions.Service
	Selection   *selection.Service
	Shop        *shop.Service
	Transfer    *transfer.Service
	Voting      *voting.Service
	Picker      *selection.Picker
}

// NewServices создаёт сервисы. Порядок важен: розыгрыш опирается
// на журнал, эффекты и предсказания, голосование на розыгрыш.
func NewServices(st Stores, picker *selection.Picker, poller voting.Poller, settings voting.SettingsFunc) *Services {
	playerService := players.NewService(st.Players)
	ledgerService := ledger.NewService(st.Ledger)
	registry := effects.NewRegistry(st.Effects)
	predictionService := predictions.NewService(st.Predictions, ledgerService)

	selectionService := selection.NewService(st.Results, st.Tx, playerService, registry, ledgerService, predictionService, picker)
	shopService := shop.NewService(st.Tx, ledgerService, registry, predictionService, playerService)
	transferService := transfer.NewService(st.Transfers, st.Tx, ledgerService, selectionService)
	votingService := voting.NewService(st.Votings, st.Tx, playerService, selectionService, picker, poller, settings)

	return &Services{
		Players:     playerService,
		Ledger:      ledgerService,
		Effects:     registry,
		Predictions: predictionService,
		Selection:   selectionService,
		Shop:        shopService,
		Transfer:    transferService,
		Voting:      votingService,
		Picker:      picker,
	}
}
