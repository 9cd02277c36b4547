package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"policyscout"
)

// Sitemap processing bounds. A sitemap is a hint source, not a crawl
// target, so the engine reads only a slice of it.
const (
	maxSitemapBytes  = 4 << 20 // 4 MiB per sitemap document
	maxChildSitemaps = 3
	maxSitemapLinks  = 10
)

// sitemapPolicyRe matches sitemap URLs that suggest privacy content.
var sitemapPolicyRe = regexp.MustCompile(`(?i)privacy|data-?protection|gdpr|ccpa|cookie-?policy`)

// Ensure SitemapSource implements policyscout.LinkSource at compile time.
var _ policyscout.LinkSource = (*SitemapSource)(nil)

// SitemapSource discovers privacy-looking URLs from a site's sitemap.xml.
// Missing or malformed sitemaps yield an empty result, not an error: the
// sitemap is strictly a supplemental candidate origin.
type SitemapSource struct {
	client    *http.Client
	userAgent string
}

// NewSitemapSource creates a new SitemapSource.
// If client is nil, http.DefaultClient is used.
func NewSitemapSource(client *http.Client) *SitemapSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapSource{client: client, userAgent: DefaultUserAgent}
}

// DiscoverLinks fetches the root sitemap and returns privacy-looking URLs.
// Sitemap index files are followed one level deep, a few children at most.
func (s *SitemapSource) DiscoverLinks(ctx context.Context, rootURL string) ([]policyscout.PolicyLink, error) {
	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return nil, policyscout.Errorf(policyscout.EINVALID, "invalid root URL %q", rootURL)
	}

	sitemapURL := root.Scheme + "://" + root.Host + "/sitemap.xml"
	doc, err := s.fetchXML(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []policyscout.PolicyLink{}, nil
	}

	links := collectPolicyLocs(doc)

	// Follow a sitemap index one level deep, preferring children whose own
	// URL looks legal/policy related.
	if len(links) < maxSitemapLinks {
		for i, child := range collectChildSitemaps(doc) {
			if i >= maxChildSitemaps || ctx.Err() != nil {
				break
			}
			childDoc, err := s.fetchXML(ctx, child)
			if err != nil || childDoc == nil {
				continue
			}
			links = append(links, collectPolicyLocs(childDoc)...)
			if len(links) >= maxSitemapLinks {
				break
			}
		}
	}

	if len(links) > maxSitemapLinks {
		links = links[:maxSitemapLinks]
	}
	return links, nil
}

// fetchXML retrieves and parses one sitemap document. A non-200 answer is
// reported as a nil document rather than an error.
func (s *SitemapSource) fetchXML(ctx context.Context, sitemapURL string) (*etree.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, nil
	}
	return doc, nil
}

// collectPolicyLocs returns privacy-looking <loc> values from a urlset.
func collectPolicyLocs(doc *etree.Document) []policyscout.PolicyLink {
	var links []policyscout.PolicyLink
	for _, loc := range doc.FindElements("//urlset/url/loc") {
		u := strings.TrimSpace(loc.Text())
		if u == "" || !sitemapPolicyRe.MatchString(u) {
			continue
		}
		links = append(links, policyscout.PolicyLink{URL: u})
	}
	return links
}

// collectChildSitemaps returns child sitemap URLs from a sitemapindex,
// policy-looking ones first.
func collectChildSitemaps(doc *etree.Document) []string {
	var policyish, rest []string
	for _, loc := range doc.FindElements("//sitemapindex/sitemap/loc") {
		u := strings.TrimSpace(loc.Text())
		if u == "" {
			continue
		}
		if sitemapPolicyRe.MatchString(u) {
			policyish = append(policyish, u)
		} else {
			rest = append(rest, u)
		}
	}
	return append(policyish, rest...)
}
