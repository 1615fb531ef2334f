// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const maxLoggedText = 50

// LogUpdate пишет в debug-лог, что пришло: сообщение, кнопка или голос в опросе.
func LogUpdate(update *tgbotapi.Update) {
	if update == nil {
		return
	}
	fields := log.Fields{"update_id": update.UpdateID}

	switch {
	case update.Message != nil:
		m := update.Message
		fields["kind"] = "message"
		fields["text"] = shorten(m.Text)
		if m.Chat != nil {
			fields["chat_id"] = m.Chat.ID
		}
		if m.From != nil {
			fields["user_id"] = m.From.ID
			fields["username"] = m.From.UserName
		}
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		fields["kind"] = "callback"
		fields["data"] = cb.Data
		if cb.From != nil {
			fields["user_id"] = cb.From.ID
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			fields["chat_id"] = cb.Message.Chat.ID
		}
	case update.PollAnswer != nil:
		fields["kind"] = "poll_answer"
		fields["poll_id"] = update.PollAnswer.PollID
		fields["user_id"] = update.PollAnswer.User.ID
		fields["options"] = update.PollAnswer.OptionIDs
	case update.Poll != nil:
		fields["kind"] = "poll"
		fields["poll_id"] = update.Poll.ID
		fields["closed"] = update.Poll.IsClosed
	default:
		return
	}

	log.WithFields(fields).Debug("Входящий апдейт")
}

// shorten обрезает текст до maxLoggedText символов, не разрывая UTF-8.
func shorten(text string) string {
	if utf8.RuneCountInString(text) <= maxLoggedText {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLoggedText]) + "..."
}
