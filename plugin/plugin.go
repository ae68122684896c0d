package plugin

import (
	"regexp"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

type (
	Plugin interface {
		Name() string

		// Commands will be shown in the menu button
		Commands() []gotgbot.BotCommand

		// Handlers are used to react to specific strings in a message
		Handlers(botInfo *gotgbot.User) []Handler
	}

	Handler interface {
		Command() *regexp.Regexp
		Run(b *gotgbot.Bot, c GobotContext) error
	}

	GobotContext struct {
		*ext.Context
		Matches      []string          // Regex matches
		NamedMatches map[string]string // Named Regex matches
	}

	GobotHandlerFunc func(b *gotgbot.Bot, c GobotContext) error

	CommandHandler struct {
		Trigger     *regexp.Regexp
		HandlerFunc GobotHandlerFunc
		HandleEdits bool
		// Fallback handlers only run when no other handler of the plugin matched.
		Fallback bool
	}

	Matched struct {
		Handler      Handler
		Matches      []string
		NamedMatches map[string]string
	}
)

func (h *CommandHandler) Command() *regexp.Regexp {
	return h.Trigger
}

func (h *CommandHandler) Run(b *gotgbot.Bot, c GobotContext) error {
	return h.HandlerFunc(b, c)
}

// Match runs the handler's trigger against text and returns the positional
// and named submatches.
func Match(h Handler, text string) ([]string, map[string]string, bool) {
	command := h.Command()
	if command == nil {
		return nil, nil, false
	}

	matches := command.FindStringSubmatch(text)
	if len(matches) == 0 {
		return nil, nil, false
	}

	namedMatches := make(map[string]string)
	for i, name := range command.SubexpNames() {
		if name != "" {
			namedMatches[name] = matches[i]
		}
	}
	return matches, namedMatches, true
}

// MatchAll returns the handlers of one plugin that should run for text.
// Fallback handlers are only returned when nothing else matched.
func MatchAll(handlers []Handler, text string, isEdited bool) []Matched {
	var matched, fallbacks []Matched
	for _, h := range handlers {
		var isFallback bool
		if handler, ok := h.(*CommandHandler); ok {
			if isEdited && !handler.HandleEdits {
				continue
			}
			isFallback = handler.Fallback
		}

		matches, namedMatches, ok := Match(h, text)
		if !ok {
			continue
		}

		m := Matched{
			Handler:      h,
			Matches:      matches,
			NamedMatches: namedMatches,
		}
		if isFallback {
			fallbacks = append(fallbacks, m)
		} else {
			matched = append(matched, m)
		}
	}

	if len(matched) > 0 {
		return matched
	}
	return fallbacks
}
