// Package selection — handlers.go обрабатывает команды:
// /pidor (розыгрыш), кнопку перевыбора, /pidorstats, /pidorall, /pidorme, /pidormissed.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
)

const rerollPrefix = "reroll:"

// Handler обрабатывает команды розыгрыша.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик розыгрыша.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, playerService: playerService, bot: bot}
}

// RerollData формирует callback_data кнопки перевыбора.
func RerollData(d common.Day) string {
	return fmt.Sprintf("%s%d:%d", rerollPrefix, d.Year, d.Day)
}

// ParseRerollData разбирает callback_data вида reroll:<год>:<день>.
func ParseRerollData(data string) (common.Day, bool) {
	rest, ok := strings.CutPrefix(data, rerollPrefix)
	if !ok {
		return common.Day{}, false
	}
	yearStr, dayStr, ok := strings.Cut(rest, ":")
	if !ok {
		return common.Day{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return common.Day{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > common.DaysInYear(year) {
		return common.Day{}, false
	}
	return common.Day{Year: year, Day: day}, true
}

// HandleDraw проводит розыгрыш дня и объявляет результат.
func (h *Handler) HandleDraw(ctx context.Context, req *players.Request) {
	chatID := req.Game.ChatID
	today := req.Today()

	out, err := h.service.Draw(ctx, req.Game.ID, req.Player.UserID, today, req.Settings, req.Now)
	if err != nil {
		if errors.Is(err, common.ErrNoPlayers) {
			h.sendMessage(chatID, "🤷 Никто не зарегистрирован. Жми /pidoreg")
			return
		}
		log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка розыгрыша")
		h.sendMessage(chatID, "❌ Ошибка розыгрыша, попробуйте позже")
		return
	}

	if out.AllProtected {
		h.sendMessage(chatID, "🛡️ Сегодня все под защитой. Пидора дня нет!")
		return
	}

	names := h.names(ctx, out.Result.WinnerID, out.SavedID)
	if out.Existing {
		h.sendMessage(chatID, fmt.Sprintf("Согласно моей информации, по результатам сегодняшнего розыгрыша пидор дня — %s!",
			names[out.Result.WinnerID]))
		return
	}

	var sb strings.Builder
	sb.WriteString("🔎 Ищу пидора дня...\n\n")
	if out.SavedID != 0 {
		fmt.Fprintf(&sb, "🛡️ Выбор пал на %s, но сработала защита! %s за спасение\n\n",
			names[out.SavedID], common.FormatCoinsAmount(out.Bonus))
	}
	fmt.Fprintf(&sb, "🎉 Сегодня пидор дня — %s!", names[out.Result.WinnerID])
	if out.Amplified {
		sb.WriteString(" 🎲 Двойной шанс сыграл")
	}
	if out.Reward > 0 {
		fmt.Fprintf(&sb, "\n💰 Награда: %s", common.FormatCoinsAmount(out.Reward))
	}
	sb.WriteString(h.predictionsSummary(ctx, out.Predictions))

	msg := tgbotapi.NewMessage(chatID, sb.String())
	if out.Result.RerollAvailable {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔄 Перевыбрать (%s)", common.FormatBalance(req.Settings.RerollPrice)),
				RerollData(today),
			),
		))
	}
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).Error("Ошибка отправки результата")
		return
	}
	if err := h.service.AttachMessage(ctx, req.Game.ID, today, sent.MessageID); err != nil {
		log.WithError(err).Warn("Не удалось сохранить сообщение результата")
	}
}

// HandleReroll обрабатывает нажатие кнопки перевыбора.
func (h *Handler) HandleReroll(ctx context.Context, req *players.Request, cb *tgbotapi.CallbackQuery) {
	d, ok := ParseRerollData(cb.Data)
	if !ok {
		h.answer(cb.ID, "Некорректная кнопка")
		return
	}

	out, err := h.service.Reroll(ctx, req.Game.ID, req.Player.UserID, d, req.Settings, req.Now)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInsufficientFunds):
		h.answer(cb.ID, fmt.Sprintf("Недостаточно койнов, нужно %s", common.FormatBalance(req.Settings.RerollPrice)))
		return
	case errors.Is(err, common.ErrRerollUnavailable), errors.Is(err, common.ErrNotFound):
		h.answer(cb.ID, "Перевыбор уже недоступен")
		return
	case errors.Is(err, common.ErrFeatureDisabled):
		h.answer(cb.ID, "Перевыбор отключён в этом чате")
		return
	default:
		log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка перевыбора")
		h.answer(cb.ID, "Ошибка перевыбора")
		return
	}

	h.answer(cb.ID, "Перевыбор запущен!")
	if cb.Message != nil {
		h.ClearRerollButton(cb.Message.Chat.ID, cb.Message.MessageID)
	}

	names := h.names(ctx, out.PreviousWinnerID, out.Result.WinnerID, out.SavedID, req.Player.UserID)
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔄 %s заплатил %s за перевыбор!\n\n", names[req.Player.UserID], common.FormatBalance(req.Settings.RerollPrice))
	if out.SavedID != 0 {
		fmt.Fprintf(&sb, "🛡️ %s спасла защита (%s)\n\n", names[out.SavedID], common.FormatCoinsAmount(out.Bonus))
	}
	if out.Result.WinnerID == out.PreviousWinnerID {
		fmt.Fprintf(&sb, "😈 И снова %s! Двойная награда", names[out.Result.WinnerID])
	} else {
		fmt.Fprintf(&sb, "Был %s, теперь пидор дня — %s!", names[out.PreviousWinnerID], names[out.Result.WinnerID])
	}
	sb.WriteString(h.predictionsSummary(ctx, out.Predictions))
	h.sendMessage(req.Game.ChatID, sb.String())
}

// ClearRerollButton убирает кнопку перевыбора с сообщения.
func (h *Handler) ClearRerollButton(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := h.bot.Request(edit); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось убрать кнопку перевыбора")
	}
}

// HandleYearStats показывает топ пидоров за текущий год.
func (h *Handler) HandleYearStats(ctx context.Context, req *players.Request) {
	h.stats(ctx, req, req.Now.Year(), fmt.Sprintf("📊 Топ пидоров за %d год", req.Now.Year()))
}

// HandleAllStats показывает топ пидоров за всё время.
func (h *Handler) HandleAllStats(ctx context.Context, req *players.Request) {
	h.stats(ctx, req, 0, "📊 Топ пидоров за всё время")
}

// HandleMyStats показывает личную статистику автора.
func (h *Handler) HandleMyStats(ctx context.Context, req *players.Request) {
	year, err := h.service.WinCounts(ctx, req.Game.ID, req.Now.Year())
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения статистики")
		return
	}
	all, err := h.service.WinCounts(ctx, req.Game.ID, 0)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения статистики")
		return
	}

	yearWins, place := winsOf(year, req.Player.UserID)
	allWins, _ := winsOf(all, req.Player.UserID)
	text := fmt.Sprintf("👤 %s\nЗа %d год: %s", req.Player.DisplayName(), req.Now.Year(), timesText(yearWins))
	if place > 0 {
		text += fmt.Sprintf(" (%d место)", place)
	}
	text += fmt.Sprintf("\nЗа всё время: %s", timesText(allWins))
	h.sendMessage(req.Game.ChatID, text)
}

// HandleMissed показывает пропущенные дни текущего года.
func (h *Handler) HandleMissed(ctx context.Context, req *players.Request) {
	missed, err := h.service.MissedDays(ctx, req.Game.ID, req.Today())
	if err != nil {
		log.WithError(err).Error("Ошибка получения пропущенных дней")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения пропущенных дней")
		return
	}
	if len(missed) == 0 {
		h.sendMessage(req.Game.ChatID, "✅ В этом году нет пропущенных дней")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Пропущено %d %s:\n", len(missed), common.PluralizeDays(len(missed)))
	for i, d := range missed {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(common.FormatDay(common.Day{Year: req.Now.Year(), Day: d}))
	}
	h.sendMessage(req.Game.ChatID, sb.String())
}

func (h *Handler) stats(ctx context.Context, req *players.Request, year int, title string) {
	counts, err := h.service.WinCounts(ctx, req.Game.ID, year)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.sendMessage(req.Game.ChatID, "❌ Ошибка получения статистики")
		return
	}
	if len(counts) == 0 {
		h.sendMessage(req.Game.ChatID, "Пока никто не становился пидором дня")
		return
	}

	ids := make([]int64, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.UserID)
	}
	names := h.playerService.Names(ctx, ids)

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for i, c := range counts {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, names[c.UserID], timesText(c.Wins))
	}
	h.sendMessage(req.Game.ChatID, sb.String())
}

func (h *Handler) predictionsSummary(ctx context.Context, outcomes []predictions.Outcome) string {
	if len(outcomes) == 0 {
		return ""
	}
	ids := make([]int64, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.Prediction.UserID)
	}
	names := h.playerService.Names(ctx, ids)

	var sb strings.Builder
	sb.WriteString("\n\n🔮 Предсказания:\n")
	for _, o := range outcomes {
		switch {
		case o.Reward > 0:
			fmt.Fprintf(&sb, "✅ %s угадал! %s\n", names[o.Prediction.UserID], common.FormatCoinsAmount(o.Reward))
		case o.Correct:
			fmt.Fprintf(&sb, "✅ %s угадал\n", names[o.Prediction.UserID])
		default:
			fmt.Fprintf(&sb, "❌ %s не угадал\n", names[o.Prediction.UserID])
		}
	}
	return sb.String()
}

func (h *Handler) names(ctx context.Context, ids ...int64) map[int64]string {
	return h.playerService.Names(ctx, ids)
}

func timesText(n int) string {
	return fmt.Sprintf("%d %s", n, common.PluralizeTimes(n))
}

func winsOf(counts []WinCount, userID int64) (wins, place int) {
	for i, c := range counts {
		if c.UserID == userID {
			return c.Wins, i + 1
		}
	}
	return 0, 0
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
