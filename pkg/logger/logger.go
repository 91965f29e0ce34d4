// Package logx configures the global zerolog logger for the service.
package logx

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level  string `split_words:"true" default:"info"`
	Pretty bool   `split_words:"true" default:"false"`
}

// Init replaces the global logger. Unknown level strings fall back to info.
func Init(conf Config) {
	var base zerolog.Logger
	if conf.Pretty {
		base = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		base = zerolog.New(os.Stdout)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	log.Logger = base.Level(level).With().
		Timestamp().
		Caller().
		Logger()
}
