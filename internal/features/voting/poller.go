// Package voting — poller.go открывает опросы через Bot API:
// неанонимный опрос с несколькими ответами.
package voting

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramPoller реализует Poller на нативных опросах Telegram.
type TelegramPoller struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramPoller создаёт поллер.
func NewTelegramPoller(bot *tgbotapi.BotAPI) *TelegramPoller {
	return &TelegramPoller{bot: bot}
}

// OpenPoll отправляет опрос и возвращает его ID и ID сообщения.
func (p *TelegramPoller) OpenPoll(_ context.Context, chatID int64, question string, options []string) (string, int, error) {
	cfg := tgbotapi.NewPoll(chatID, question, options...)
	cfg.IsAnonymous = false
	cfg.AllowsMultipleAnswers = true

	msg, err := p.bot.Send(cfg)
	if err != nil {
		return "", 0, err
	}
	if msg.Poll == nil {
		return "", 0, fmt.Errorf("в ответе нет опроса (message_id=%d)", msg.MessageID)
	}
	return msg.Poll.ID, msg.MessageID, nil
}

// StopPoll закрывает опрос.
func (p *TelegramPoller) StopPoll(_ context.Context, chatID int64, messageID int) error {
	_, err := p.bot.Request(tgbotapi.NewStopPoll(chatID, messageID))
	return err
}
