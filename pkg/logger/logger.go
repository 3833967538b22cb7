// Package logger builds the structured slog logger shared by the binaries.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, format and the optional rotating file sink.
type Config struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// Logger wraps slog.Logger with a runtime-adjustable level and owned sinks.
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// New creates a Logger writing masked records to stdout or a rotating file.
// When sentryEnabled is set, error records are also forwarded to Sentry unless
// they were logged with a context marked by SkipSentry.
func New(cfg Config, sentryEnabled bool) (*Logger, error) {
	level := new(slog.LevelVar)
	parsed, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level.Set(parsed)

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = rotating
		closer = rotating
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	if sentryEnabled {
		handler = &fanoutHandler{handlers: []slog.Handler{
			handler,
			&sentryFilter{next: slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()},
		}}
	}

	return &Logger{
		Logger: slog.New(NewMaskingHandler(handler)),
		level:  level,
		closer: closer,
	}, nil
}

// SetLevel changes the minimum level of records emitted by the logger.
func (l *Logger) SetLevel(name string) error {
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.Set(parsed)
	return nil
}

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel maps a level name to slog.Level. Empty input means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// fanoutHandler duplicates records to every handler that accepts the level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, next := range h.handlers {
		if !next.Enabled(ctx, record.Level) {
			continue
		}
		if err := next.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, next := range h.handlers {
		handlers = append(handlers, next.WithAttrs(attrs))
	}
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, next := range h.handlers {
		handlers = append(handlers, next.WithGroup(name))
	}
	return &fanoutHandler{handlers: handlers}
}

type skipSentryKey struct{}

// SkipSentry marks ctx so that records logged with it stay out of Sentry.
// Callers that capture the error themselves use it to avoid a second event.
func SkipSentry(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, skipSentryKey{}, true)
}

func sentrySkipped(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	skip, _ := ctx.Value(skipSentryKey{}).(bool)
	return skip
}

// sentryFilter drops records whose context was marked by SkipSentry.
type sentryFilter struct {
	next slog.Handler
}

func (h *sentryFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return !sentrySkipped(ctx) && h.next.Enabled(ctx, level)
}

func (h *sentryFilter) Handle(ctx context.Context, record slog.Record) error {
	if sentrySkipped(ctx) {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *sentryFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sentryFilter{next: h.next.WithAttrs(attrs)}
}

func (h *sentryFilter) WithGroup(name string) slog.Handler {
	return &sentryFilter{next: h.next.WithGroup(name)}
}
