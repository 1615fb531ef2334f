package filters

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/bmizerany/assert"
)

func message(chatID int64, chatType string, from *tgbotapi.User) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: chatType}, From: from}
}

func TestChatFilter(t *testing.T) {
	user := &tgbotapi.User{ID: 10}
	f := NewChatFilter(func(chatID int64) bool { return chatID == -100 })

	assert.T(t, f.CheckAccess(message(-100, "supergroup", user)))
	assert.T(t, f.CheckAccess(message(-100, "group", user)))
	assert.T(t, !f.CheckAccess(message(-200, "supergroup", user)), "чат не в списке")
	assert.T(t, !f.CheckAccess(message(10, "private", user)), "личка")
	assert.T(t, !f.CheckAccess(message(-100, "supergroup", nil)), "без автора")
	assert.T(t, !f.CheckAccess(message(-100, "supergroup", &tgbotapi.User{ID: 11, IsBot: true})), "бот")
	assert.T(t, !f.CheckAccess(nil))
}

func TestChatFilterAllowsAllGroupsByDefault(t *testing.T) {
	f := NewChatFilter(nil)
	assert.T(t, f.Allowed(&tgbotapi.Chat{ID: -5, Type: "group"}))
	assert.T(t, !f.Allowed(&tgbotapi.Chat{ID: 5, Type: "private"}))
}
