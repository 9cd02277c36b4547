package mock

import (
	"context"

	"policyscout"
)

var _ policyscout.LinkSource = (*LinkSource)(nil)

// LinkSource is a mock implementation of policyscout.LinkSource.
type LinkSource struct {
	DiscoverLinksFn func(ctx context.Context, rootURL string) ([]policyscout.PolicyLink, error)
}

func (s *LinkSource) DiscoverLinks(ctx context.Context, rootURL string) ([]policyscout.PolicyLink, error) {
	return s.DiscoverLinksFn(ctx, rootURL)
}
