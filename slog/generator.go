package slog

import (
	"context"
	"log/slog"
	"time"

	"policyscout"
)

// Ensure LoggingGenerator implements policyscout.Generator at compile time.
var _ policyscout.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator wraps a Generator with a summary log of each generation:
// how many candidates were produced and how many came from each origin.
type LoggingGenerator struct {
	next   policyscout.Generator
	logger *slog.Logger
}

// NewLoggingGenerator creates a new LoggingGenerator.
func NewLoggingGenerator(next policyscout.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

// Generate delegates to the wrapped generator and logs the origin breakdown.
func (g *LoggingGenerator) Generate(ctx context.Context, rootURL string) ([]policyscout.CandidateURL, error) {
	begin := time.Now()
	candidates, err := g.next.Generate(ctx, rootURL)
	if err != nil {
		g.logger.Debug("candidate generation failed",
			"root_url", rootURL,
			"err", err,
			"duration", time.Since(begin),
		)
		return nil, err
	}

	byOrigin := make(map[string]int)
	for _, c := range candidates {
		byOrigin[c.Origin.String()]++
	}
	g.logger.Debug("candidates generated",
		"root_url", rootURL,
		"total", len(candidates),
		"by_origin", byOrigin,
		"duration", time.Since(begin),
	)
	return candidates, nil
}
