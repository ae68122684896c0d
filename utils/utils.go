package utils

import (
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// DefaultSendOptions returns a fresh copy each time, since gotgbot options are
// pointers and must not be shared between concurrent handlers.
func DefaultSendOptions() *gotgbot.SendMessageOpts {
	return &gotgbot.SendMessageOpts{
		ReplyParameters: &gotgbot.ReplyParameters{
			AllowSendingWithoutReply: true,
		},
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{
			IsDisabled: true,
		},
		ParseMode: gotgbot.ParseModeHTML,
	}
}

// NotificationSendOptions is used for messages that are not replies,
// e.g. reminders, which should make the phone ring.
func NotificationSendOptions() *gotgbot.SendMessageOpts {
	return &gotgbot.SendMessageOpts{
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{
			IsDisabled: true,
		},
		ParseMode: gotgbot.ParseModeHTML,
	}
}

func AnyText(message *gotgbot.Message) string {
	text := message.Text
	if message.Text == "" {
		text = message.Caption
	}
	return text
}

func TimestampToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0)
}
