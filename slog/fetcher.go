// Package slog provides logging decorators for the engine's interfaces.
package slog

import (
	"context"
	"log/slog"

	"policyscout"
)

// Ensure LoggingFetcher implements policyscout.Fetcher at compile time.
var _ policyscout.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-request debug logging.
type LoggingFetcher struct {
	next   policyscout.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next policyscout.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the classified outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, candidate policyscout.CandidateURL) policyscout.Outcome {
	outcome := f.next.Fetch(ctx, candidate)

	attrs := []any{
		"url", candidate.URL,
		"origin", candidate.Origin.String(),
		"status", outcome.Status.String(),
		"duration", outcome.Elapsed,
	}
	if outcome.HTTPCode != 0 {
		attrs = append(attrs, "http_code", outcome.HTTPCode)
	}
	if outcome.OK() {
		attrs = append(attrs, "bytes", len(outcome.Text))
	}
	f.logger.Debug("fetch", attrs...)

	return outcome
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
