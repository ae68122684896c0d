// Package logger builds the component loggers used across the bot.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

const consoleTimeFormat = "2006-01-02 15:04:05"

var root zerolog.Logger

// New returns a logger that tags every entry with component. It writes to
// whatever the last Configure call set up.
func New(component string) *Logger {
	l := root.With().
		Str("component", component).
		Logger()
	return &l
}

// Configure sets the level and output format from the environment:
//
//	LOG_LEVEL   zerolog level name, e.g. "warn"
//	DEBUG       shorthand for LOG_LEVEL=debug when LOG_LEVEL is unset
//	LOG_FORMAT  "json" for one JSON object per line, console otherwise
func Configure(out io.Writer) {
	level := zerolog.InfoLevel
	if _, debug := os.LookupEnv("DEBUG"); debug {
		level = zerolog.DebugLevel
	}

	var badLevel string
	if name := os.Getenv("LOG_LEVEL"); name != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(name))
		if err != nil {
			badLevel = name
		} else {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if !strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: consoleTimeFormat,
		}
	}
	root = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = root

	if badLevel != "" {
		root.Warn().Str("level", badLevel).Msgf("Unknown LOG_LEVEL, using %s", level)
	}
}

func init() {
	Configure(os.Stderr)
}
