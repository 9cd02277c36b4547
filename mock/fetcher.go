package mock

import (
	"context"

	"policyscout"
)

var _ policyscout.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of policyscout.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, candidate policyscout.CandidateURL) policyscout.Outcome
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, candidate policyscout.CandidateURL) policyscout.Outcome {
	return f.FetchFn(ctx, candidate)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
