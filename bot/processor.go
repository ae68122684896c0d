package bot

import (
	"fmt"

	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/plugin"
	"github.com/Brawl345/prayerbot/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/rs/xid"
)

var log = logger.New("bot")

type (
	Processor struct {
		plugins       []plugin.Plugin
		printMessages bool
	}

	match struct {
		plugin       plugin.Plugin
		handler      plugin.Handler
		matches      []string
		namedMatches map[string]string
	}
)

func NewProcessor(plugins []plugin.Plugin, printMessages bool) *Processor {
	return &Processor{
		plugins:       plugins,
		printMessages: printMessages,
	}
}

func (p *Processor) ProcessUpdate(d *ext.Dispatcher, b *gotgbot.Bot, ctx *ext.Context) error {
	if ctx.Message != nil || ctx.EditedMessage != nil {
		return p.onMessage(b, ctx)
	}
	return nil
}

// matchHandlers returns every handler that should run for text.
func (p *Processor) matchHandlers(botInfo *gotgbot.User, text string, isEdited bool) []match {
	var result []match
	for _, plg := range p.plugins {
		for _, m := range plugin.MatchAll(plg.Handlers(botInfo), text, isEdited) {
			result = append(result, match{
				plugin:       plg,
				handler:      m.Handler,
				matches:      m.Matches,
				namedMatches: m.NamedMatches,
			})
		}
	}
	return result
}

func (p *Processor) onMessage(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	isEdited := msg.EditDate != 0

	if p.printMessages {
		fmt.Println(formatMessage(msg))
	}

	text := utils.AnyText(msg)
	if text == "" {
		return nil
	}

	for _, m := range p.matchHandlers(&b.User, text, isEdited) {
		m := m
		log.Debug().
			Str("plugin", m.plugin.Name()).
			Str("trigger", m.handler.Command().String()).
			Msg("Matched plugin")

		go func() {
			defer func() {
				if r := recover(); r != nil {
					p.replyError(b, ctx, m.plugin.Name(), fmt.Errorf("panic: %v", r))
				}
			}()

			err := m.handler.Run(b, plugin.GobotContext{
				Context:      ctx,
				Matches:      m.matches,
				NamedMatches: m.namedMatches,
			})
			if err != nil {
				p.replyError(b, ctx, m.plugin.Name(), err)
			}
		}()
	}

	return nil
}

// replyError logs err under a fresh GUID and tells the user that GUID.
func (p *Processor) replyError(b *gotgbot.Bot, ctx *ext.Context, component string, err error) {
	guid := xid.New().String()

	event := log.Err(err).
		Str("guid", guid).
		Int64("chat_id", ctx.EffectiveChat.Id).
		Str("text", ctx.EffectiveMessage.Text).
		Str("component", component)
	if ctx.EffectiveUser != nil {
		event = event.Int64("user_id", ctx.EffectiveUser.Id)
	}
	event.Send()

	_, replyErr := ctx.EffectiveMessage.Reply(b,
		fmt.Sprintf("❌ An error occurred.%s", utils.EmbedGUID(guid)),
		utils.DefaultSendOptions(),
	)
	if replyErr != nil {
		log.Err(replyErr).
			Str("guid", guid).
			Msg("Failed to send error reply")
	}
}
