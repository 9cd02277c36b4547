package slog

import (
	"context"
	"log/slog"
	"time"

	"policyscout"
)

// Ensure LoggingDiscoverer implements policyscout.Discoverer at compile time.
var _ policyscout.Discoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a Discoverer with one info-level summary per call.
type LoggingDiscoverer struct {
	next   policyscout.Discoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next policyscout.Discoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the result.
func (d *LoggingDiscoverer) Discover(ctx context.Context, rawURL string, budget policyscout.SearchBudget) (*policyscout.Result, error) {
	begin := time.Now()
	result, err := d.next.Discover(ctx, rawURL, budget)
	if err != nil {
		d.logger.Info("discovery rejected",
			"root_url", rawURL,
			"err", err,
			"duration", time.Since(begin),
		)
		return nil, err
	}

	d.logger.Info("discovery",
		"root_url", rawURL,
		"status", result.Status.String(),
		"tier", result.Tier.String(),
		"score", result.Score,
		"source_url", result.SourceURL,
		"rendered", result.Rendered,
		"duration", time.Since(begin),
	)
	return result, nil
}
