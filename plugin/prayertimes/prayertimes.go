package prayertimes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/metrics"
	"github.com/Brawl345/prayerbot/model"
	"github.com/Brawl345/prayerbot/plugin"
	"github.com/Brawl345/prayerbot/utils"
	"github.com/Brawl345/prayerbot/utils/tgUtils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/xid"
)

var log = logger.New("prayertimes")

type Plugin struct {
	service *Service
	lead    time.Duration
}

func New(service *Service, lead time.Duration) *Plugin {
	return &Plugin{
		service: service,
		lead:    lead,
	}
}

func (p *Plugin) Name() string {
	return "prayertimes"
}

func (p *Plugin) Commands() []gotgbot.BotCommand {
	return []gotgbot.BotCommand{
		{
			Command:     "start",
			Description: "How to set your location",
		},
		{
			Command:     "times",
			Description: "Show today's prayer times",
		},
		{
			Command:     "stop",
			Description: "Stop prayer reminders",
		},
	}
}

func (p *Plugin) Handlers(botInfo *gotgbot.User) []plugin.Handler {
	return []plugin.Handler{
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/start(?:@%s)?(?:\s.*)?$`, botInfo.Username)),
			HandlerFunc: p.onStart,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/times(?:@%s)?$`, botInfo.Username)),
			HandlerFunc: p.onTimes,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/stop(?:@%s)?$`, botInfo.Username)),
			HandlerFunc: p.onStop,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(`(?s)^([^/].*)$`),
			HandlerFunc: p.onLocation,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?s)^/[^\s@]*(?:@%s)?(?:\s.*)?$`, botInfo.Username)),
			HandlerFunc: p.onUnknownCommand,
			Fallback:    true,
		},
	}
}

func chatID(c plugin.GobotContext) string {
	return strconv.FormatInt(c.EffectiveChat.Id, 10)
}

func (p *Plugin) onStart(b *gotgbot.Bot, c plugin.GobotContext) error {
	_, err := c.EffectiveMessage.Reply(b, greetingText, utils.DefaultSendOptions())
	return err
}

func (p *Plugin) onLocation(b *gotgbot.Bot, c plugin.GobotContext) error {
	_, _ = b.SendChatAction(c.EffectiveChat.Id, tgUtils.ChatActionTyping, nil)

	text, err := p.locationReply(context.Background(), chatID(c), c.Matches[1])
	if err != nil {
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, text, utils.DefaultSendOptions())
	return err
}

// locationReply subscribes the chat to the location in text and returns the
// reply. Errors without a dedicated reply are returned to the caller.
func (p *Plugin) locationReply(ctx context.Context, chatID string, text string) (string, error) {
	sub, err := p.service.Subscribe(ctx, chatID, text)
	switch {
	case err == nil:
		metrics.IncSubscribe("ok")
		log.Info().
			Str("chat_id", chatID).
			Str("city", sub.City).
			Str("country", sub.Country).
			Int("timings", len(sub.Timings)).
			Msg("Subscribed")
		return scheduleText(sub, p.lead), nil

	case errors.Is(err, model.ErrInputFormat):
		metrics.IncSubscribe("input_format")
		return formatErrorText, nil

	case errors.Is(err, model.ErrFetchFailed):
		metrics.IncSubscribe("fetch_failed")
		log.Warn().
			Err(err).
			Str("chat_id", chatID).
			Str("text", text).
			Msg("Failed to fetch prayer times")
		return fetchFailedText, nil

	case errors.Is(err, model.ErrStorage):
		metrics.IncSubscribe("storage")
		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Str("chat_id", chatID).
			Msg("Failed to store subscription")
		return storageErrorText + utils.EmbedGUID(guid), nil

	default:
		metrics.IncSubscribe("error")
		return "", err
	}
}

// onUnknownCommand answers commands addressed to this bot that no other
// handler took. ParseLocation rejects them, so the chat gets the format hint.
func (p *Plugin) onUnknownCommand(b *gotgbot.Bot, c plugin.GobotContext) error {
	text, err := p.locationReply(context.Background(), chatID(c), c.Matches[0])
	if err != nil {
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, text, utils.DefaultSendOptions())
	return err
}

func (p *Plugin) onTimes(b *gotgbot.Bot, c plugin.GobotContext) error {
	text, err := p.timesReply(context.Background(), chatID(c))
	if err != nil {
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, text, utils.DefaultSendOptions())
	return err
}

func (p *Plugin) timesReply(ctx context.Context, chatID string) (string, error) {
	sub, err := p.service.Subscription(ctx, chatID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return notSubscribedText, nil
		}
		return "", err
	}
	return scheduleText(sub, p.lead), nil
}

func (p *Plugin) onStop(b *gotgbot.Bot, c plugin.GobotContext) error {
	text, err := p.stopReply(context.Background(), chatID(c))
	if err != nil {
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, text, utils.DefaultSendOptions())
	return err
}

func (p *Plugin) stopReply(ctx context.Context, chatID string) (string, error) {
	err := p.service.Unsubscribe(ctx, chatID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return notSubscribedText, nil
		}
		return "", err
	}

	log.Info().
		Str("chat_id", chatID).
		Msg("Unsubscribed")
	return unsubscribedText, nil
}
