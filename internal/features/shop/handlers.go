// Package shop — handlers.go обрабатывает команды:
// /pidorshop (витрина и статус), /pidorbuy <товар> [@игроки].
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик магазина.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, playerService: playerService, bot: bot}
}

// HandleShop показывает товары и текущие покупки автора.
func (h *Handler) HandleShop(ctx context.Context, req *players.Request) {
	st, err := h.service.Status(ctx, req.Game.ID, req.Player.UserID, req.Settings, req.Now)
	if err != nil {
		log.WithError(err).WithField("user_id", req.Player.UserID).Error("Ошибка получения статуса магазина")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка магазина")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏪 Магазин\n💰 Баланс: %s\n\n", common.FormatBalance(st.Balance))
	for _, item := range Items(req.Settings) {
		if !item.Enabled {
			continue
		}
		fmt.Fprintf(&sb, "%s — %s\n%s\n/pidorbuy %s\n\n", item.Name, common.FormatBalance(item.Price), item.Description, item.Key)
	}

	if st.ProtectedUntil != nil {
		fmt.Fprintf(&sb, "🛡️ Защита до %s\n", common.FormatDay(*st.ProtectedUntil))
	} else if st.CooldownLeft > 0 {
		fmt.Fprintf(&sb, "⏳ Защита будет доступна через %d %s\n", st.CooldownLeft, common.PluralizeDays(st.CooldownLeft))
	}
	if st.AmplifiedToday {
		sb.WriteString("🎲 Двойной шанс сегодня уже куплен\n")
	}
	if st.Predicted {
		fmt.Fprintf(&sb, "🔮 Предсказание на %s сделано\n", common.FormatDay(st.PredictionDay))
	}
	h.sendMessage(req.Game.ChatID, strings.TrimRight(sb.String(), "\n"))
}

// HandleBuy обрабатывает /pidorbuy <товар> [@игроки].
func (h *Handler) HandleBuy(ctx context.Context, req *players.Request) {
	if len(req.Args) == 0 {
		h.sendMessage(req.Game.ChatID, "❌ Формат: /pidorbuy immunity | double @username | predict @username ...")
		return
	}

	item := strings.ToLower(req.Args[0])
	switch item {
	case ItemImmunity:
		rc, err := h.service.BuyImmunity(ctx, req.Game.ID, req.Player.UserID, req.Settings, req.Now)
		if err != nil {
			h.replyError(ctx, req, err, item)
			return
		}
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("🛡️ %s купил защиту на %s за %s",
			req.Player.DisplayName(), common.FormatDay(rc.Day), common.FormatBalance(rc.Price)))

	case ItemDoubleChance:
		targets, ok := h.resolve(ctx, req, req.Args[1:])
		if !ok {
			return
		}
		if len(targets) != 1 {
			h.sendMessage(req.Game.ChatID, "❌ Формат: /pidorbuy double @username")
			return
		}
		rc, err := h.service.BuyDoubleChance(ctx, req.Game.ID, req.Player.UserID, targets[0].UserID, req.Settings, req.Now)
		if err != nil {
			h.replyError(ctx, req, err, item)
			return
		}
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("🎲 %s купил двойной шанс для %s за %s",
			req.Player.DisplayName(), targets[0].DisplayName(), common.FormatBalance(rc.Price)))

	case ItemPrediction:
		targets, ok := h.resolve(ctx, req, req.Args[1:])
		if !ok {
			return
		}
		ids := make([]int64, 0, len(targets))
		for _, p := range targets {
			ids = append(ids, p.UserID)
		}
		rc, err := h.service.BuyPrediction(ctx, req.Game.ID, req.Player.UserID, ids, req.Settings, req.Now)
		if err != nil {
			h.replyError(ctx, req, err, item)
			return
		}
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("🔮 %s сделал предсказание на %s за %s",
			req.Player.DisplayName(), common.FormatDay(rc.Day), common.FormatBalance(rc.Price)))

	default:
		h.sendMessage(req.Game.ChatID, "❌ Нет такого товара. Список: /pidorshop")
	}
}

// resolve находит игроков состава по @username.
func (h *Handler) resolve(ctx context.Context, req *players.Request, args []string) ([]*players.Player, bool) {
	out := make([]*players.Player, 0, len(args))
	for _, arg := range args {
		username := strings.TrimPrefix(arg, "@")
		if username == "" {
			continue
		}
		p, err := h.playerService.FindByUsername(ctx, req.Game.ID, username)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				h.sendMessage(req.Game.ChatID, fmt.Sprintf("❌ @%s не играет в этом чате", username))
				return nil, false
			}
			log.WithError(err).Error("Ошибка поиска игрока")
			h.sendMessage(req.Game.ChatID, "❌ Ошибка поиска игрока")
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func (h *Handler) replyError(ctx context.Context, req *players.Request, err error, item string) {
	var cooldown *CooldownError
	switch {
	case errors.As(err, &cooldown):
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("⏳ Защиту можно купить через %d %s", cooldown.DaysLeft, common.PluralizeDays(cooldown.DaysLeft)))
	case errors.Is(err, common.ErrInsufficientFunds):
		h.sendMessage(req.Game.ChatID, "❌ Недостаточно койнов")
	case errors.Is(err, common.ErrFeatureDisabled):
		h.sendMessage(req.Game.ChatID, "🚫 Этот товар отключён в чате")
	case errors.Is(err, common.ErrAlreadyExists):
		h.sendMessage(req.Game.ChatID, "❌ Уже куплено")
	case errors.Is(err, common.ErrSelfTarget):
		h.sendMessage(req.Game.ChatID, "❌ Нельзя предсказать себя")
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(req.Game.ChatID, fmt.Sprintf("❌ Назови ровно %d кандидат(ов)", h.candidates(ctx, req)))
	case errors.Is(err, common.ErrNotFound):
		h.sendMessage(req.Game.ChatID, "❌ Игрок не зарегистрирован")
	default:
		log.WithError(err).WithFields(log.Fields{"user_id": req.Player.UserID, "item": item}).Error("Ошибка покупки")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка покупки")
	}
}

func (h *Handler) candidates(ctx context.Context, req *players.Request) int {
	roster, err := h.playerService.Roster(ctx, req.Game.ID)
	if err != nil {
		return 1
	}
	return predictions.CandidatesCount(len(roster))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
