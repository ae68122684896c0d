package tgUtils

import (
	"errors"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// IsUnreachable reports whether Telegram refused a message because the chat
// can never receive messages from the bot again.
func IsUnreachable(err error) bool {
	var telegramErr *gotgbot.TelegramError
	if !errors.As(err, &telegramErr) {
		return false
	}

	switch telegramErr.Description {
	case ErrBlockedByUser, ErrChatNotFound, ErrNotStartedByUser, ErrUserIsDeactivated:
		return true
	default:
		return false
	}
}
