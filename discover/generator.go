package discover

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"policyscout"
)

// DefaultMaxCandidates caps total candidate fan-out per discovery call.
// Beyond the cap, lowest-priority candidates are dropped, never
// priority-path ones.
const DefaultMaxCandidates = 40

// priorityPaths is the hand-curated list of the most common privacy-policy
// path suffixes, ordered by how often they occur in the wild.
var priorityPaths = []string{
	"/privacy",
	"/privacy-policy",
	"/privacy_policy",
	"/privacypolicy",
	"/privacy-notice",
	"/privacy-statement",
	"/legal/privacy",
	"/legal/privacy-policy",
	"/policies/privacy",
	"/policy/privacy",
	"/about/privacy",
	"/company/privacy",
	"/data-privacy",
	"/data-protection",
	"/en/privacy",
	"/en/privacy-policy",
	"/en-us/privacy",
	"/gdpr",
	"/ccpa",
	"/your-privacy-rights",
	"/california-privacy",
	"/cookie-policy",
	"/privacy.html",
	"/privacy-policy.html",
}

// variantPaths is the short sub-list re-applied to alternate host forms.
var variantPaths = []string{
	"/privacy",
	"/privacy-policy",
	"/legal/privacy",
	"/policies/privacy",
}

// variantSubdomains are alternate host prefixes worth probing, applied to
// the bare domain with any existing "www." stripped.
var variantSubdomains = []string{"legal", "policies", "help", "support"}

// Per-origin caps on discovered links.
const (
	maxHomepageLinks = 15
	maxSitemapHints  = 10
)

// policyURLRe matches URL paths that suggest privacy content.
var policyURLRe = regexp.MustCompile(`privacy|policy|data-?protection|gdpr|ccpa`)

// Ensure Generator implements policyscout.Generator at compile time.
var _ policyscout.Generator = (*Generator)(nil)

// Generator produces the prioritized, deduplicated candidate sequence for a
// root URL: priority paths first, then homepage links, sitemap hints, and
// domain variants.
type Generator struct {
	homepage      policyscout.LinkSource
	sitemap       policyscout.LinkSource
	maxCandidates int
	logger        *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithHomepageLinks enables homepage link discovery. The source's fetch
// counts against the discovery budget via the context passed to Generate.
func WithHomepageLinks(src policyscout.LinkSource) GeneratorOption {
	return func(g *Generator) {
		g.homepage = src
	}
}

// WithSitemapHints enables sitemap-based candidate discovery.
func WithSitemapHints(src policyscout.LinkSource) GeneratorOption {
	return func(g *Generator) {
		g.sitemap = src
	}
}

// WithMaxCandidates overrides the candidate cap.
// Defaults to DefaultMaxCandidates (40) if not specified.
func WithMaxCandidates(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxCandidates = n
	}
}

// WithGeneratorLogger sets the logger for link discovery failures.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		maxCandidates: DefaultMaxCandidates,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns candidates ordered by ascending rank. Link discovery
// failures are tolerated: the corresponding origin is simply skipped.
func (g *Generator) Generate(ctx context.Context, rootURL string) ([]policyscout.CandidateURL, error) {
	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return nil, policyscout.Errorf(policyscout.EINVALID, "invalid root URL %q", rootURL)
	}

	b := newCandidateBuilder()

	// The root URL itself may already point at the policy.
	if policyURLRe.MatchString(strings.ToLower(root.Path)) {
		b.add(root.String(), policyscout.OriginDirect)
	}

	base := root.Scheme + "://" + root.Host
	for _, path := range priorityPaths {
		b.add(base+path, policyscout.OriginPriorityPath)
	}

	g.addLinks(ctx, b, rootURL, g.homepage, policyscout.OriginHomepageLink, maxHomepageLinks)
	g.addLinks(ctx, b, rootURL, g.sitemap, policyscout.OriginSitemapHint, maxSitemapHints)

	for _, host := range variantHosts(root.Host) {
		variantBase := root.Scheme + "://" + host
		for _, path := range variantPaths {
			b.add(variantBase+path, policyscout.OriginDomainVariant)
		}
	}

	return b.capped(g.maxCandidates), nil
}

// addLinks appends link-source candidates, skipping the origin on error.
func (g *Generator) addLinks(ctx context.Context, b *candidateBuilder, rootURL string, src policyscout.LinkSource, origin policyscout.CandidateOrigin, limit int) {
	if src == nil || ctx.Err() != nil {
		return
	}
	links, err := src.DiscoverLinks(ctx, rootURL)
	if err != nil {
		g.logger.Debug("link discovery failed", "origin", origin.String(), "error", err)
		return
	}
	added := 0
	for _, link := range links {
		if added >= limit {
			break
		}
		if b.add(link.URL, origin) {
			added++
		}
	}
}

// variantHosts returns alternate host forms for the given host: the www
// toggle first, then known subdomains applied to the bare domain.
func variantHosts(host string) []string {
	host = strings.ToLower(host)
	bare := strings.TrimPrefix(host, "www.")

	var variants []string
	if strings.HasPrefix(host, "www.") {
		variants = append(variants, bare)
	} else {
		variants = append(variants, "www."+bare)
	}
	for _, sub := range variantSubdomains {
		v := sub + "." + bare
		if v != host {
			variants = append(variants, v)
		}
	}
	return variants
}

// candidateBuilder accumulates candidates with rank assignment and
// deduplication by normalized URL.
type candidateBuilder struct {
	seen       map[string]struct{}
	candidates []policyscout.CandidateURL
}

func newCandidateBuilder() *candidateBuilder {
	return &candidateBuilder{seen: make(map[string]struct{})}
}

// add appends the URL unless it is malformed or already present.
func (b *candidateBuilder) add(rawURL string, origin policyscout.CandidateOrigin) bool {
	key := normalizeCandidateKey(rawURL)
	if key == "" {
		return false
	}
	if _, ok := b.seen[key]; ok {
		return false
	}
	b.seen[key] = struct{}{}
	b.candidates = append(b.candidates, policyscout.CandidateURL{
		URL:    rawURL,
		Origin: origin,
		Rank:   len(b.candidates),
	})
	return true
}

// capped returns at most n candidates, dropping from the tail so that
// higher-priority origins are always retained.
func (b *candidateBuilder) capped(n int) []policyscout.CandidateURL {
	if n > 0 && len(b.candidates) > n {
		return b.candidates[:n]
	}
	return b.candidates
}

// normalizeCandidateKey produces the deduplication key for a candidate URL:
// lowercased host, fragment dropped, trailing slash trimmed.
func normalizeCandidateKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
