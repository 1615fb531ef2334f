// Package bot содержит главный модуль бота: запуск, остановку и маршрутизацию.
// bot.go принимает апдейты long polling'ом, собирает players.Request
// и передаёт его обработчикам фич.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/bot/filters"
	"serotonyl.ru/dailypick-bot/internal/bot/middleware"
	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/shop"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

// Handlers — обработчики фич, между которыми бот распределяет команды.
type Handlers struct {
	Players   *players.Handler
	Ledger    *ledger.Handler
	Selection *selection.Handler
	Shop      *shop.Handler
	Transfer  *transfer.Handler
	Voting    *voting.Handler
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	playerService *players.Service
	handlers      Handlers

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerService *players.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerService: playerService,
		handlers:      handlers,
		parser:        NewCommandParser(api.Self.UserName),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	// poll_answer не приходит без явной подписки
	u.AllowedUpdates = []string{"message", "callback_query", "poll", "poll_answer"}

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.rateLimiter.Close()
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	middleware.LogUpdate(&update)

	switch {
	case update.PollAnswer != nil:
		b.handlers.Voting.HandlePollAnswer(ctx, update.PollAnswer)
	case update.Poll != nil:
		b.handlers.Voting.HandlePollClosed(ctx, update.Poll, common.GetMoscowTime())
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !b.chatFilter.CheckAccess(message) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand || !knownCommand(cmd) {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	req, err := b.newRequest(ctx, message.Chat.ID, message.From)
	if err != nil {
		log.WithError(err).WithField("chat_id", message.Chat.ID).Error("Не удалось подготовить запрос")
		return
	}
	req.MessageID = message.MessageID
	req.Args = args

	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"game_id": req.Game.ID,
		"user_id": req.Player.UserID,
	}).Debug("routing command")
	b.routeCommand(ctx, cmd, req)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || !b.chatFilter.Allowed(cb.Message.Chat) {
		return
	}
	if _, ok := selection.ParseRerollData(cb.Data); !ok {
		return
	}
	if !b.rateLimiter.Allow(cb.From.ID) {
		b.answerCallback(cb.ID, "Слишком часто, попробуй позже")
		return
	}

	req, err := b.newRequest(ctx, cb.Message.Chat.ID, cb.From)
	if err != nil {
		log.WithError(err).WithField("chat_id", cb.Message.Chat.ID).Error("Не удалось подготовить запрос")
		b.answerCallback(cb.ID, "Ошибка, попробуй ещё раз")
		return
	}
	b.handlers.Selection.HandleReroll(ctx, req, cb)
}

// newRequest находит игру чата, обновляет данные автора и берёт настройки чата.
func (b *Bot) newRequest(ctx context.Context, chatID int64, from *tgbotapi.User) (*players.Request, error) {
	game, err := b.playerService.EnsureGame(ctx, chatID)
	if err != nil {
		return nil, err
	}

	player := &players.Player{
		UserID:    from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.playerService.EnsurePlayer(ctx, player); err != nil {
		// имя обновится при следующей команде
		log.WithError(err).WithField("user_id", from.ID).Warn("EnsurePlayer failed")
	}

	return &players.Request{
		Game:     game,
		Player:   player,
		Settings: b.cfg.Settings(chatID),
		Now:      common.GetMoscowTime(),
	}, nil
}

var commands = map[string]bool{
	"start": true, "help": true,
	"pidoreg": true, "pidorunreg": true, "pidorlist": true,
	"pidor": true, "pidorstats": true, "pidorall": true, "pidorme": true, "pidormissed": true,
	"pidorcoins": true, "pidorcoinstop": true, "pidorcoinshistory": true,
	"pidorshop": true, "pidorbuy": true,
	"pidorsend": true, "pidorbonus": true, "pidorbank": true,
	"pidorfinal": true, "pidorfinalstatus": true, "pidorfinalclose": true,
}

func knownCommand(cmd string) bool {
	return commands[cmd]
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, cmd string, req *players.Request) {
	h := b.handlers
	switch cmd {
	case "start", "help":
		b.sendMessage(req.Game.ChatID, helpText)

	case "pidoreg":
		h.Players.HandleRegister(ctx, req)
	case "pidorunreg":
		h.Players.HandleUnregister(ctx, req)
	case "pidorlist":
		h.Players.HandleList(ctx, req)

	case "pidor":
		h.Selection.HandleDraw(ctx, req)
	case "pidorstats":
		h.Selection.HandleYearStats(ctx, req)
	case "pidorall":
		h.Selection.HandleAllStats(ctx, req)
	case "pidorme":
		h.Selection.HandleMyStats(ctx, req)
	case "pidormissed":
		h.Selection.HandleMissed(ctx, req)

	case "pidorcoins":
		h.Ledger.HandleBalance(ctx, req)
	case "pidorcoinstop":
		h.Ledger.HandleLeaderboard(ctx, req)
	case "pidorcoinshistory":
		h.Ledger.HandleHistory(ctx, req)

	case "pidorshop":
		h.Shop.HandleShop(ctx, req)
	case "pidorbuy":
		h.Shop.HandleBuy(ctx, req)

	case "pidorsend":
		h.Transfer.HandleSend(ctx, req)
	case "pidorbonus":
		h.Transfer.HandleBonus(ctx, req)
	case "pidorbank":
		h.Transfer.HandleBank(ctx, req)

	case "pidorfinal":
		h.Voting.HandleStart(ctx, req)
	case "pidorfinalstatus":
		h.Voting.HandleStatus(ctx, req)
	case "pidorfinalclose":
		h.Voting.HandleClose(ctx, req)
	}
}

var helpText = strings.TrimSpace(`
🎯 Пидор дня

/pidoreg — участвовать, /pidorunreg — выйти, /pidorlist — игроки
/pidor — розыгрыш дня
/pidorstats — итоги года, /pidorall — за всё время, /pidorme — моя статистика
/pidormissed — пропущенные дни
/pidorcoins — баланс, /pidorcoinstop — топ, /pidorcoinshistory — история
/pidorshop — магазин, /pidorbuy — купить
/pidorsend @user сумма — перевод, /pidorbonus — бонус дня, /pidorbank — банк чата
/pidorfinal — финальное голосование, /pidorfinalstatus — его статус, /pidorfinalclose — закрыть
`)

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
