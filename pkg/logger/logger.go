package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

const sentryFlushTimeout = 2 * time.Second

// Config holds logger settings. Embed it in the app config for env parsing.
type Config struct {
	Level             string `env:"LOG_LEVEL" envDefault:"info"`
	Format            string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

// New builds a logger writing to stdout. The returned flush function
// drains buffered Sentry events and is safe to call when Sentry is off.
func New(cfg Config, extractors ...ContextExtractor) (*slog.Logger, func()) {
	return newLogger(os.Stdout, cfg, extractors...)
}

func newLogger(w io.Writer, cfg Config, extractors ...ContextExtractor) (*slog.Logger, func()) {
	level := ParseLevel(cfg.Level)

	var out slog.Handler
	if strings.EqualFold(cfg.Format, FormatConsole) {
		out = consoleHandler(w, level)
	} else {
		out = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	if cfg.SentryDSN == "" {
		return slog.New(Decorate(out, extractors...)), func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(out).Error("failed to initialize sentry", slog.String("error", err.Error()))
		return slog.New(Decorate(out, extractors...)), func() {}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	flush := func() { sentry.Flush(sentryFlushTimeout) }
	return slog.New(Decorate(fanout{out, sentryHandler}, extractors...)), flush
}

// NewConsole returns a human readable logger for CLI commands.
func NewConsole(level string) *slog.Logger {
	return slog.New(consoleHandler(os.Stderr, ParseLevel(level)))
}

func consoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// NewNope creates a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
