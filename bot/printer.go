package bot

import (
	"fmt"
	"strings"

	"github.com/Brawl345/prayerbot/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	green = "\033[32m"
	cyan  = "\033[36m"
)

func printUser(user *gotgbot.User) string {
	var sb strings.Builder
	sb.WriteString(
		fmt.Sprintf(
			"%s%s%s",
			bold,
			red,
			user.FirstName,
		),
	)

	if user.LastName != "" {
		sb.WriteString(" ")
		sb.WriteString(user.LastName)
	}

	sb.WriteString(reset)

	if user.Username != "" {
		sb.WriteString(
			fmt.Sprintf(
				" %s(@%s)%s",
				red,
				user.Username,
				reset,
			),
		)
	}

	return sb.String()
}

// formatMessage renders an incoming message as one colored console line.
func formatMessage(msg *gotgbot.Message) string {
	var sb strings.Builder

	var msgTime string
	if msg.EditDate != 0 {
		msgTime = utils.TimestampToTime(msg.EditDate).Format("15:04:05")
	} else {
		msgTime = utils.TimestampToTime(msg.Date).Format("15:04:05")
	}

	sb.WriteString(fmt.Sprintf("%s[%v]", cyan, msgTime))

	if msg.Chat.Title != "" {
		sb.WriteString(fmt.Sprintf(" %s:", msg.Chat.Title))
	} else {
		sb.WriteString(fmt.Sprintf(" %d:", msg.Chat.Id))
	}

	sb.WriteString(reset)

	if msg.From != nil {
		sb.WriteString(fmt.Sprintf(" %s", printUser(msg.From)))
	}

	sb.WriteString(fmt.Sprintf("%s >>> %s", cyan, reset))

	if msg.EditDate != 0 {
		sb.WriteString(fmt.Sprintf("%s(edited) %s", green, reset))
	}

	text := utils.AnyText(msg)
	if text == "" {
		text = "[no text]"
	}
	sb.WriteString(text)

	return sb.String()
}
