package goquery

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"policyscout"
)

// maxHomepageBytes caps the homepage download.
const maxHomepageBytes = 2 << 20 // 2 MiB

// linkTextRe matches anchor text that suggests a privacy policy link.
var linkTextRe = regexp.MustCompile(`(?i)\bprivacy\b|\bdata protection\b|\bgdpr\b|\bccpa\b|your (privacy|california) rights`)

// linkHrefRe matches hrefs that suggest a privacy policy destination.
var linkHrefRe = regexp.MustCompile(`(?i)privacy|data-?protection|gdpr|ccpa`)

// Ensure HomepageLinkSource implements policyscout.LinkSource at compile time.
var _ policyscout.LinkSource = (*HomepageLinkSource)(nil)

// HomepageLinkSource fetches a site's homepage and returns anchors that look
// like privacy policy links. Most sites link their policy from the footer,
// which makes this the highest-yield source after the priority paths.
type HomepageLinkSource struct {
	client    *http.Client
	userAgent string
}

// NewHomepageLinkSource creates a new HomepageLinkSource.
// If client is nil, http.DefaultClient is used.
func NewHomepageLinkSource(client *http.Client, userAgent string) *HomepageLinkSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HomepageLinkSource{client: client, userAgent: userAgent}
}

// DiscoverLinks fetches rootURL and returns privacy-looking anchors resolved
// to absolute URLs. Links pointing off-site are dropped, except links into a
// subdomain of the root's registrable domain (policies often live on
// legal.example.com while the homepage is www.example.com).
func (s *HomepageLinkSource) DiscoverLinks(ctx context.Context, rootURL string) ([]policyscout.PolicyLink, error) {
	base, err := url.Parse(rootURL)
	if err != nil || base.Host == "" {
		return nil, policyscout.Errorf(policyscout.EINVALID, "invalid root URL %q", rootURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rootURL, nil)
	if err != nil {
		return nil, policyscout.Errorf(policyscout.EINVALID, "invalid root URL %q", rootURL)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, policyscout.Errorf(policyscout.EUNAVAILABLE, "fetch homepage: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, policyscout.Errorf(policyscout.EUNAVAILABLE, "homepage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHomepageBytes))
	if err != nil {
		return nil, policyscout.Errorf(policyscout.EUNAVAILABLE, "read homepage: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, policyscout.Errorf(policyscout.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var links []policyscout.PolicyLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}

		text := collapseSpace(sel.Text())
		if !linkTextRe.MatchString(text) && !linkHrefRe.MatchString(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		if !isSameSite(base, resolved) {
			return
		}

		seen[resolved] = true
		links = append(links, policyscout.PolicyLink{URL: resolved, Text: text})
	})

	return links, nil
}

// resolveURL resolves a relative href against the base URL, stripping the
// fragment. Self-referential links resolve to empty.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if resolved.String() == baseNoFragment.String() {
		return ""
	}
	return resolved.String()
}

// isSameSite reports whether resolved shares the base host or a subdomain
// relationship with it, comparing with the www prefix stripped.
func isSameSite(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	bh := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	rh := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return rh == bh || strings.HasSuffix(rh, "."+bh)
}

// isNonHTTPLink reports whether href uses a scheme that cannot hold a policy
// page (javascript:, mailto:, tel:, data:).
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
