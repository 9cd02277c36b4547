package mock

import (
	"context"

	"policyscout"
)

var _ policyscout.Generator = (*Generator)(nil)

// Generator is a mock implementation of policyscout.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, rootURL string) ([]policyscout.CandidateURL, error)
}

func (g *Generator) Generate(ctx context.Context, rootURL string) ([]policyscout.CandidateURL, error) {
	return g.GenerateFn(ctx, rootURL)
}
