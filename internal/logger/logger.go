package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var global zerolog.Logger

// Init configures the global logger. In release mode the output is plain
// JSON; otherwise a human-readable console writer is used.
func Init(ginMode string) {
	zerolog.TimestampFieldName = "timestamp"

	if ginMode == "release" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		global = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = time.DateTime
	consoleWriter.Out = os.Stdout
	global = zerolog.New(consoleWriter).With().Timestamp().Logger()
}

// L returns the global logger.
func L() *zerolog.Logger {
	return &global
}
