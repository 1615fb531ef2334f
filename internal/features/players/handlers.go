// Package players — handlers.go обрабатывает команды:
// /pidoreg (регистрация), /pidorunreg (выход), /pidorlist (состав).
package players

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// Handler обрабатывает команды состава.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик состава.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleRegister добавляет автора в розыгрыш.
func (h *Handler) HandleRegister(ctx context.Context, req *Request) {
	err := h.service.Register(ctx, req.Game.ID, req.Player)
	switch {
	case err == nil:
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("✅ %s теперь участвует в розыгрыше!", req.Player.DisplayName()))
	case errors.Is(err, common.ErrAlreadyExists):
		h.sendMessage(req.Game.ChatID, "👌 Ты уже в игре")
	default:
		log.WithError(err).WithField("user_id", req.Player.UserID).Error("Ошибка регистрации")
		h.sendMessage(req.Game.ChatID, "❌ Не удалось зарегистрироваться")
	}
}

// HandleUnregister убирает автора из розыгрыша.
func (h *Handler) HandleUnregister(ctx context.Context, req *Request) {
	err := h.service.Unregister(ctx, req.Game.ID, req.Player.UserID)
	switch {
	case err == nil:
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("👋 %s больше не участвует. Койны и статистика сохранены", req.Player.DisplayName()))
	case errors.Is(err, common.ErrNotFound):
		h.sendMessage(req.Game.ChatID, "🤷 Ты и так не в игре. Регистрация: /pidoreg")
	default:
		log.WithError(err).WithField("user_id", req.Player.UserID).Error("Ошибка выхода из игры")
		h.sendMessage(req.Game.ChatID, "❌ Не удалось выйти из игры")
	}
}

// HandleList показывает состав без упоминаний.
func (h *Handler) HandleList(ctx context.Context, req *Request) {
	roster, err := h.service.Roster(ctx, req.Game.ID)
	if err != nil {
		log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка получения состава")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения списка игроков")
		return
	}
	if len(roster) == 0 {
		h.sendMessage(req.Game.ChatID, "Пока никто не играет. Регистрация: /pidoreg")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Игроки (%d):\n", len(roster))
	for i, p := range roster {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p.FullName())
	}
	h.sendMessage(req.Game.ChatID, strings.TrimRight(sb.String(), "\n"))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
