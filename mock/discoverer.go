package mock

import (
	"context"

	"policyscout"
)

var _ policyscout.Discoverer = (*Discoverer)(nil)

// Discoverer is a mock implementation of policyscout.Discoverer.
type Discoverer struct {
	DiscoverFn func(ctx context.Context, rawURL string, budget policyscout.SearchBudget) (*policyscout.Result, error)
}

func (d *Discoverer) Discover(ctx context.Context, rawURL string, budget policyscout.SearchBudget) (*policyscout.Result, error) {
	return d.DiscoverFn(ctx, rawURL, budget)
}
