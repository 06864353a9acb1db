// Package logging is cryptify's structured logging. Every logger built
// here blanks the values of sensitive attributes (see Redacted) before they
// reach the output, so call sites can pass attributes without vetting them.
package logging

import "context"

// Logger logs a message with key-value attributes:
//
//	log.Info(ctx, "secret saved", "service", service)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a Logger that adds args to every record.
	With(args ...any) Logger
}
