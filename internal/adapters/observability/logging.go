package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. APP_ENV=dev (or development) writes
// human-friendly console lines at debug level, anything else JSON at info.
// A parseable level overrides the default.
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) zerolog.Logger {
	dev := env == "dev" || env == "development"
	lvl := zerolog.InfoLevel
	if dev {
		lvl = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = l
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "motofix").Logger()
}
