// Package voting — handlers.go обрабатывает команды:
// /pidorfinal (запуск), /pidorfinalstatus (состояние), /pidorfinalclose (закрытие),
// а также ответы в опросе и его закрытие.
package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/players"
)

// Handler обрабатывает команды финального голосования.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
	// isOperator — операторы бота могут закрывать голосование в любом чате
	isOperator func(userID int64) bool
}

// NewHandler создаёт обработчик голосования.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI, isOperator func(userID int64) bool) *Handler {
	return &Handler{service: service, playerService: playerService, bot: bot, isOperator: isOperator}
}

// HandleStart запускает финальное голосование.
func (h *Handler) HandleStart(ctx context.Context, req *players.Request) {
	chatID := req.Game.ChatID
	v, candidates, err := h.service.Start(ctx, req.Game, req.Settings, req.Now)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrFeatureDisabled):
			h.sendMessage(chatID, "🚫 Финальное голосование отключено в этом чате")
		case errors.Is(err, common.ErrOutsideVotingWindow):
			h.sendMessage(chatID, fmt.Sprintf("📅 Финальное голосование можно запустить только %d–%d декабря",
				req.Settings.FinalVotingWindowFrom, req.Settings.FinalVotingWindowTo))
		case errors.Is(err, common.ErrTooManyMissedDays):
			h.sendMessage(chatID, fmt.Sprintf("😬 Пропущено слишком много дней (лимит %d). Голосование недоступно",
				req.Settings.MaxMissedDaysForFinalVoting))
		case errors.Is(err, common.ErrAlreadyExists):
			h.sendMessage(chatID, "🗳 Голосование в этом году уже было. Смотри /pidorfinalstatus")
		case errors.Is(err, common.ErrNothingToVote):
			h.sendMessage(chatID, "🤷 Разыгрывать нечего: нет пропущенных дней или кандидатов")
		default:
			log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка запуска голосования")
			h.sendMessage(chatID, "❌ Не удалось запустить голосование")
		}
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗳 Финальное голосование %d запущено!\n", v.Year)
	fmt.Fprintf(&sb, "Пропущено: %d %s\n", len(v.MissedDays), common.PluralizeDays(len(v.MissedDays)))
	fmt.Fprintf(&sb, "Победителей будет: %d\n", v.MaxChoices)
	sb.WriteString("Вес голоса = число побед за год. Кто не проголосует, голосует за себя.")
	if len(v.ExcludedLeaders) > 0 {
		names := h.playerService.Names(ctx, v.ExcludedLeaders)
		list := make([]string, 0, len(v.ExcludedLeaders))
		for _, id := range v.ExcludedLeaders {
			list = append(list, names[id])
		}
		fmt.Fprintf(&sb, "\n👑 Лидеры не участвуют в розыгрыше: %s", strings.Join(list, ", "))
	}
	if len(candidates) == 1 {
		sb.WriteString("\nКандидат всего один, опрос не нужен. Закрыть: /pidorfinalclose")
	}
	h.sendMessage(chatID, sb.String())
}

// HandleStatus показывает состояние голосования за текущий год.
func (h *Handler) HandleStatus(ctx context.Context, req *players.Request) {
	chatID := req.Game.ChatID
	ov, err := h.service.Overview(ctx, req.Game.ID, req.Now.Year())
	if err != nil {
		log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка получения статуса голосования")
		h.sendMessage(chatID, "❌ Ошибка получения статуса")
		return
	}

	switch ov.Status {
	case StatusNotStarted:
		h.sendMessage(chatID, "🗳 Финальное голосование ещё не запускалось. Команда: /pidorfinal")
		return
	case StatusCompleted:
		h.sendMessage(chatID, h.formatWinners(ctx, ov.Voting, ov.Winners, false))
		return
	}

	v := ov.Voting
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗳 Голосование %d идёт с %s\n", v.Year, common.FormatDateTime(v.StartedAt))
	fmt.Fprintf(&sb, "Дней на кону: %d, победителей: %d\n", len(v.MissedDays), v.MaxChoices)
	fmt.Fprintf(&sb, "Проголосовало: %d\n", ov.Voters)
	if !req.Settings.IsTest {
		closeAt := v.StartedAt.Add(req.Settings.FinalVotingMinDuration())
		if req.Now.Before(closeAt) {
			fmt.Fprintf(&sb, "Закрыть можно после %s", common.FormatDateTime(closeAt))
		}
	}
	h.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}

// HandleClose закрывает голосование. Только для админов чата и операторов бота.
func (h *Handler) HandleClose(ctx context.Context, req *players.Request) {
	chatID := req.Game.ChatID
	if !h.isAdmin(chatID, req.Player.UserID) {
		h.sendMessage(chatID, "🚫 "+common.ErrNotAdmin.Error())
		return
	}

	res, err := h.service.Finalize(ctx, req.Game, req.Now.Year(), req.Settings, req.Now, false)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			h.sendMessage(chatID, "🤷 Голосование не запущено")
		case errors.Is(err, common.ErrVotingTooEarly):
			h.sendMessage(chatID, fmt.Sprintf("⏳ Голосование должно идти хотя бы %d ч.", req.Settings.FinalVotingMinDurationHours))
		default:
			log.WithError(err).WithField("game_id", req.Game.ID).Error("Ошибка закрытия голосования")
			h.sendMessage(chatID, "❌ Не удалось закрыть голосование")
		}
		return
	}
	if res.AlreadyCompleted {
		h.sendMessage(chatID, "🏁 Голосование уже завершено. Итоги: /pidorfinalstatus")
		return
	}
	h.Announce(ctx, chatID, res)
}

// HandlePollAnswer записывает ответ игрока в опросе.
func (h *Handler) HandlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) {
	err := h.service.RecordBallot(ctx, answer.PollID, answer.User.ID, answer.OptionIDs)
	if err == nil {
		return
	}
	fields := log.Fields{"poll_id": answer.PollID, "user_id": answer.User.ID, "options": answer.OptionIDs}
	switch {
	case errors.Is(err, common.ErrNotFound):
		log.WithFields(fields).Debug("Ответ в чужом или закрытом опросе")
	case errors.Is(err, common.ErrTooManyChoices):
		log.WithFields(fields).Info("Слишком много вариантов, голос не учтён")
	default:
		log.WithError(err).WithFields(fields).Error("Ошибка записи голоса")
	}
}

// HandlePollClosed закрывает голосование, когда Telegram закрыл опрос.
func (h *Handler) HandlePollClosed(ctx context.Context, poll *tgbotapi.Poll, now time.Time) {
	if !poll.IsClosed {
		return
	}
	res, game, err := h.service.FinalizeByPoll(ctx, poll.ID, now)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.WithError(err).WithField("poll_id", poll.ID).Error("Ошибка закрытия голосования по опросу")
		}
		return
	}
	if res.AlreadyCompleted {
		return
	}
	h.Announce(ctx, game.ChatID, res)
}

// Announce публикует итоги голосования.
func (h *Handler) Announce(ctx context.Context, chatID int64, res *Result) {
	h.sendMessage(chatID, h.formatWinners(ctx, res.Voting, res.Winners, res.Random))
}

func (h *Handler) formatWinners(ctx context.Context, v *Voting, winners []Winner, random bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 Финальное голосование %d завершено!\n", v.Year)
	if random {
		sb.WriteString("Никто не набрал голосов, победители выбраны случайно 🎲\n")
	}
	if len(winners) == 0 {
		sb.WriteString("\nПобедителей нет")
		return sb.String()
	}

	ids := make([]int64, 0, len(winners))
	for _, w := range winners {
		ids = append(ids, w.UserID)
	}
	names := h.playerService.Names(ctx, ids)

	sb.WriteString("\n")
	for _, w := range winners {
		fmt.Fprintf(&sb, "%d. %s — %s очк., %d %s", w.Rank, names[w.UserID], w.Score.StringFixed(1),
			len(w.Days), common.PluralizeDays(len(w.Days)))
		if len(w.Days) > 0 {
			fmt.Fprintf(&sb, ": %s", FormatDays(v.Year, w.Days))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// isAdmin — админ или создатель чата, либо оператор бота.
func (h *Handler) isAdmin(chatID, userID int64) bool {
	if h.isOperator != nil && h.isOperator(userID) {
		return true
	}
	member, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "user_id": userID}).Warn("Не удалось проверить права")
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
