// Package ledger — handlers.go обрабатывает команды:
// /pidorcoins (баланс), /pidorcoinstop (топ), /pidorcoinshistory (история).
package ledger

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/players"
)

const (
	leaderboardSize = 10
	historySize     = 10
)

// Handler обрабатывает команды журнала.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд журнала.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, playerService: playerService, bot: bot}
}

// HandleBalance показывает баланс автора: всего и за текущий год.
func (h *Handler) HandleBalance(ctx context.Context, req *players.Request) {
	gameID, userID := req.Game.ID, req.Player.UserID
	total, err := h.service.Balance(ctx, gameID, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения баланса")
		return
	}
	year, err := h.service.YearBalance(ctx, gameID, userID, req.Now.Year())
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса за год")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения баланса")
		return
	}

	h.sendMessage(req.Game.ChatID, fmt.Sprintf("💰 %s, у тебя %s\nЗа %d год: %s",
		req.Player.DisplayName(), common.FormatBalance(total), req.Now.Year(), common.FormatCoinsAmount(year)))
}

// HandleLeaderboard показывает топ по койнам. Аргумент "all": за всё время.
func (h *Handler) HandleLeaderboard(ctx context.Context, req *players.Request) {
	year := req.Now.Year()
	title := fmt.Sprintf("🏦 Топ по койнам за %d год", year)
	if len(req.Args) > 0 && strings.EqualFold(req.Args[0], "all") {
		year = 0
		title = "🏦 Топ по койнам за всё время"
	}

	standings, err := h.service.Leaderboard(ctx, req.Game.ID, year, leaderboardSize)
	if err != nil {
		log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка получения топа")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения топа")
		return
	}
	if len(standings) == 0 {
		h.sendMessage(req.Game.ChatID, "Пока ни у кого нет койнов")
		return
	}

	ids := make([]int64, 0, len(standings))
	for _, s := range standings {
		ids = append(ids, s.UserID)
	}
	names := h.playerService.Names(ctx, ids)

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for i, s := range standings {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, names[s.UserID], common.FormatBalance(s.Balance))
	}
	h.sendMessage(req.Game.ChatID, sb.String())
}

// HandleHistory показывает последние движения койнов автора.
func (h *Handler) HandleHistory(ctx context.Context, req *players.Request) {
	entries, err := h.service.History(ctx, req.Game.ID, req.Player.UserID, historySize)
	if err != nil {
		log.WithError(err).WithField("user_id", req.Player.UserID).Error("Ошибка получения истории")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения истории")
		return
	}
	if len(entries) == 0 {
		h.sendMessage(req.Game.ChatID, "📜 История пуста")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Последние операции:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %s  %s\n", common.FormatDateTime(e.CreatedAt), common.FormatCoinsAmount(e.Amount), e.Reason)
	}
	h.sendMessage(req.Game.ChatID, sb.String())
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
