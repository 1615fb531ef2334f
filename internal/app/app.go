// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище, применяет миграции,
// создаёт сервисы, обработчики, фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/bot"
	"serotonyl.ru/dailypick-bot/internal/bot/filters"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db/memory"
	"serotonyl.ru/dailypick-bot/internal/db/postgres"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/shop"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
	"serotonyl.ru/dailypick-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	// DB — пул PostgreSQL; nil при STORAGE_DRIVER=memory
	DB     *pgxpool.Pool
	BotAPI *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	stores, pool, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development" && cfg.AppLogLevel == "trace"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Сервисы ===
	services := NewServices(stores, selection.NewPicker(0), voting.NewTelegramPoller(botAPI), cfg.Settings)
	weight, err := effects.WeightByName(cfg.AmplificationWeight)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	services.Effects.UseWeight(weight)

	// === 4. Обработчики ===
	selectionHandler := selection.NewHandler(services.Selection, services.Players, botAPI)
	votingHandler := voting.NewHandler(services.Voting, services.Players, botAPI, cfg.IsAdmin)
	handlers := bot.Handlers{
		Players:   players.NewHandler(services.Players, botAPI),
		Ledger:    ledger.NewHandler(services.Ledger, services.Players, botAPI),
		Selection: selectionHandler,
		Shop:      shop.NewHandler(services.Shop, services.Players, botAPI),
		Transfer:  transfer.NewHandler(services.Transfer, services.Ledger, services.Players, botAPI),
		Voting:    votingHandler,
	}

	// === 5. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.IsChatEnabled)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, services.Players, handlers, chatFilter)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, services.Selection, services.Voting, selectionHandler, votingHandler)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает соединения с базой.
func (a *App) Close() {
	closePool(a.DB)
}

// openStorage подключает выбранное хранилище.
func openStorage(ctx context.Context, cfg *config.Config) (Stores, *pgxpool.Pool, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Warn("Хранилище в памяти: данные пропадут при перезапуске")
		return MemoryStores(memory.New()), nil, nil

	default:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return Stores{}, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			return Stores{}, nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return PostgresStores(pool), pool, nil
	}
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
