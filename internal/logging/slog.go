package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

// Redacted replaces the value of every sensitive attribute.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":  {},
	"key":       {},
	"secret":    {},
	"plaintext": {},
	"token":     {},
}

// SlogLogger is the log/slog implementation of Logger.
type SlogLogger struct {
	l *slog.Logger
}

// New builds a Logger writing to w. level is one of debug, info, warn,
// error; format is text or json.
func New(w io.Writer, level, format string) (*SlogLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &SlogLogger{l: slog.New(h)}, nil
}

// Discard returns a Logger that drops everything.
func Discard() *SlogLogger {
	return &SlogLogger{l: slog.New(slog.DiscardHandler)}
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	return a
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

// PrintfLogger feeds printf-style output of third-party packages, such as
// the goose migrator, into a Logger at debug level.
type PrintfLogger struct {
	logger Logger
}

// NewPrintfLogger tags every line with args.
func NewPrintfLogger(l Logger, args ...any) *PrintfLogger {
	return &PrintfLogger{logger: l.With(args...)}
}

func (p *PrintfLogger) Printf(format string, v ...any) {
	p.logger.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level and panics; callers expect it not to return.
func (p *PrintfLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	p.logger.Error(context.Background(), msg)
	panic(msg)
}

var _ Logger = (*SlogLogger)(nil)
