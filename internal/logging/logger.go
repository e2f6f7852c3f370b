// Package logging defines the structured-logging interface shared by the
// register client and the reference backend, plus a log/slog implementation.
package logging

import "context"

// Logger writes leveled records with alternating key/value attributes:
//
//	log.Info(ctx, "sync finished", "edition", editionID, "synced", n)
//
// Components receive one and narrow it with With("module", name).
type Logger interface {
	// Debug is for per-probe and per-request noise.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn marks a degraded path that still succeeded, e.g. an offline fallback.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
}

var _ Logger = (*SlogLogger)(nil)
