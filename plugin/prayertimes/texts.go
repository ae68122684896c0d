package prayertimes

import (
	"fmt"
	"strings"
	"time"

	"github.com/Brawl345/prayerbot/model"
	"github.com/Brawl345/prayerbot/utils"
)

const (
	greetingText = "🌙 Welcome! Send me your city and country, e.g. <code>Dhaka,Bangladesh</code>"

	formatErrorText = "❗ Correct format: <code>City,Country</code> (e.g. <code>Dhaka,Bangladesh</code>)"

	fetchFailedText = "🙏 Sorry, no prayer times found. Please check the city name."

	storageErrorText = "💾 Your prayer times could not be saved. Please try again later."

	notSubscribedText = "📍 You have not set a location yet.\nSend me your city and country, e.g. <code>Dhaka,Bangladesh</code>"

	unsubscribedText = "✅ Reminders stopped. Send a new location to start again."
)

func scheduleText(sub *model.Subscription, lead time.Duration) string {
	var sb strings.Builder

	sb.WriteString("📿 <b>Today's prayer times")
	if sub.City != "" {
		sb.WriteString(fmt.Sprintf(" for %s, %s", utils.Escape(sub.City), utils.Escape(sub.Country)))
	}
	sb.WriteString(":</b>\n\n")

	for _, name := range sub.Timings.Names() {
		sb.WriteString(
			fmt.Sprintf(
				"🕓 %s: %s\n",
				utils.Escape(name),
				utils.Escape(sub.Timings[name]),
			),
		)
	}

	sb.WriteString(fmt.Sprintf("\n⏰ You will be notified %s before every prayer!", leadText(lead)))
	return sb.String()
}

func reminderText(name string, lead time.Duration) string {
	return fmt.Sprintf("⏰ %s is in %s!", utils.Escape(name), leadText(lead))
}

func leadText(lead time.Duration) string {
	minutes := int(lead.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
