// Package transfer — handlers.go обрабатывает команды:
// /pidorsend @username сумма, /pidorbonus, /pidorbank.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
)

// Handler обрабатывает команды переводов.
type Handler struct {
	service       *Service
	ledger        *ledger.Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик переводов.
func NewHandler(service *Service, ledgerService *ledger.Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, ledger: ledgerService, playerService: playerService, bot: bot}
}

// HandleSend обрабатывает /pidorsend @username 100.
//
// Ответ при успехе:
//
//	✅ @alice → @bob: 100 койнов
//	Получено: 90 койнов, комиссия в банк: 10 койнов
func (h *Handler) HandleSend(ctx context.Context, req *players.Request) {
	chatID := req.Game.ChatID
	if len(req.Args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /pidorsend @username сумма")
		return
	}

	username := strings.TrimPrefix(req.Args[0], "@")
	if username == "" {
		h.sendMessage(chatID, "❌ Укажите @username получателя")
		return
	}

	amount, err := strconv.ParseInt(req.Args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, err := h.playerService.FindByUsername(ctx, req.Game.ID, username)
	if err != nil {
		h.sendMessage(chatID, "❌ Игрок не найден в этом чате")
		return
	}

	t, err := h.service.Send(ctx, req.Game.ID, req.Player.UserID, recipient.UserID, amount, req.Settings, req.Now)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTarget):
			h.sendMessage(chatID, "❌ Нельзя переводить койны самому себе")
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно койнов на счёте")
		case errors.Is(err, common.ErrTransferTooSmall):
			h.sendMessage(chatID, fmt.Sprintf("❌ Минимальная сумма перевода: %s", common.FormatBalance(req.Settings.TransferMinAmount)))
		case errors.Is(err, common.ErrAlreadyClaimed):
			h.sendMessage(chatID, "❌ Сегодня ты уже делал перевод")
		case errors.Is(err, common.ErrFeatureDisabled):
			h.sendMessage(chatID, "🚫 Переводы отключены в этом чате")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	balance, _ := h.ledger.Balance(ctx, req.Game.ID, req.Player.UserID)
	h.sendMessage(chatID, fmt.Sprintf("✅ %s → %s: %s\nПолучено: %s, комиссия в банк: %s\nТвой баланс: %s",
		req.Player.DisplayName(), recipient.DisplayName(), common.FormatBalance(t.Amount),
		common.FormatBalance(t.Received()), common.FormatBalance(t.Commission), common.FormatBalance(balance)))
}

// HandleBonus выдаёт ежедневный бонус.
func (h *Handler) HandleBonus(ctx context.Context, req *players.Request) {
	claim, err := h.service.ClaimBonus(ctx, req.Game.ID, req.Player.UserID, req.Settings, req.Now)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyClaimed):
			h.sendMessage(req.Game.ChatID, "⏳ Бонус сегодня уже получен")
		case errors.Is(err, common.ErrFeatureDisabled):
			h.sendMessage(req.Game.ChatID, "🚫 Бонусы отключены в этом чате")
		default:
			log.WithError(err).Error("Ошибка выдачи бонуса")
			h.sendMessage(req.Game.ChatID, "❌ Ошибка выдачи бонуса")
		}
		return
	}

	text := fmt.Sprintf("🎁 %s получает %s", req.Player.DisplayName(), common.FormatCoinsAmount(claim.Amount))
	if claim.IsWinner {
		text += " (пидору дня положено больше)"
	}
	h.sendMessage(req.Game.ChatID, text)
}

// HandleBank показывает баланс банка чата.
func (h *Handler) HandleBank(ctx context.Context, req *players.Request) {
	balance, err := h.service.Bank(ctx, req.Game.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения банка")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка чтения банка")
		return
	}
	h.sendMessage(req.Game.ChatID, fmt.Sprintf("🏦 В банке чата: %s", common.FormatBalance(balance)))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
