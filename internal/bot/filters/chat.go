// Package filters решает, какие апдейты бот обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только групповые чаты из списка разрешённых.
// Личные сообщения игнорируются: игра живёт в чате.
type ChatFilter struct {
	isEnabled func(chatID int64) bool
}

// NewChatFilter создаёт фильтр. isEnabled == nil разрешает все группы.
func NewChatFilter(isEnabled func(chatID int64) bool) *ChatFilter {
	return &ChatFilter{isEnabled: isEnabled}
}

// CheckAccess — можно ли обрабатывать сообщение.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		return false
	}
	if message.From == nil || message.From.IsBot {
		// служебные сообщения и сообщения каналов
		return false
	}
	return f.Allowed(message.Chat)
}

// Allowed — разрешён ли чат.
func (f *ChatFilter) Allowed(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
	})

	if !chat.IsGroup() && !chat.IsSuperGroup() {
		logger.Debug("deny: not a group")
		return false
	}
	if f.isEnabled != nil && !f.isEnabled(chat.ID) {
		logger.Debug("deny: chat not enabled")
		return false
	}
	return true
}
