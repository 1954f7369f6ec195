// Package logging configures zerolog for the application.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Debug mode switches to the
// human-readable console writer; level is one of zerolog's level strings
// (trace, debug, info, warn, error).
func Setup(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if debug {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}).With().Timestamp().Logger()
		return
	}

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// New returns a logger tagged with the given component name.
func New(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
