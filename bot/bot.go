package bot

import (
	"github.com/Brawl345/prayerbot/plugin"
	"github.com/PaulSonOfLars/gotgbot/v2"
)

// Commands collects the menu commands of all plugins in registration order.
func Commands(plugins []plugin.Plugin) []gotgbot.BotCommand {
	var commands []gotgbot.BotCommand
	for _, plg := range plugins {
		commands = append(commands, plg.Commands()...)
	}
	return commands
}

// RegisterCommands replaces the bot's command menu with the plugins' commands.
func RegisterCommands(b *gotgbot.Bot, plugins []plugin.Plugin) error {
	commands := Commands(plugins)
	if len(commands) == 0 {
		_, err := b.DeleteMyCommands(nil)
		return err
	}

	_, err := b.SetMyCommands(commands, nil)
	if err != nil {
		return err
	}

	log.Info().
		Int("commands", len(commands)).
		Msg("Registered bot commands")
	return nil
}
