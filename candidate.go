package policyscout

import "context"

// CandidateOrigin identifies how a candidate URL was produced.
// Origins establish priority bands: candidates from an earlier origin always
// rank ahead of candidates from a later one.
type CandidateOrigin int

// Candidate origins in priority order.
const (
	OriginDirect CandidateOrigin = iota // the root URL itself looks like a policy URL
	OriginPriorityPath                  // curated path suffix applied to the root host
	OriginHomepageLink                  // privacy-looking anchor discovered on the root page
	OriginSitemapHint                   // privacy-looking URL pulled from sitemap.xml
	OriginDomainVariant                 // priority path applied to an alternate host form
)

// String returns a short label for logging.
func (o CandidateOrigin) String() string {
	switch o {
	case OriginDirect:
		return "direct"
	case OriginPriorityPath:
		return "priority-path"
	case OriginHomepageLink:
		return "homepage-link"
	case OriginSitemapHint:
		return "sitemap-hint"
	case OriginDomainVariant:
		return "domain-variant"
	default:
		return "unknown"
	}
}

// CandidateURL is a URL the engine considers might host a privacy policy.
// Immutable once generated. Rank establishes test order within and across
// origins; lower rank is tried first.
type CandidateURL struct {
	URL    string
	Origin CandidateOrigin
	Rank   int
}

// Generator produces a prioritized, deduplicated, finite sequence of
// candidate URLs for a root URL. The sequence is stable: the same root URL
// yields the same candidates in the same order, except for homepage and
// sitemap discovery which depend on live site content.
type Generator interface {
	// Generate returns candidates ordered by ascending rank.
	// The context bounds any network I/O performed during link discovery.
	Generate(ctx context.Context, rootURL string) ([]CandidateURL, error)
}

// PolicyLink is a privacy-looking link discovered on a live page or sitemap.
type PolicyLink struct {
	URL  string
	Text string
}

// LinkSource discovers privacy-policy candidate links for a root URL.
// Implementations fetch the root page or sitemap, so calls count against
// the discovery budget via the supplied context.
type LinkSource interface {
	DiscoverLinks(ctx context.Context, rootURL string) ([]PolicyLink, error)
}
