package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// New builds the application logger and installs it as the slog default.
// Development logs text, everything else logs JSON. When sentryDSN is set,
// error records are also forwarded to Sentry.
func New(environment, level, sentryDSN string) *slog.Logger {
	return build(os.Stdout, environment, level, sentryDSN)
}

func build(w io.Writer, environment, level, sentryDSN string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handlers []slog.Handler
	if environment == "development" {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         sentryDSN,
			Environment: environment,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
