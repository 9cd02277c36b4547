package policyscout

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"
)

// Default search budget values.
const (
	DefaultGlobalTimeout     = 20 * time.Second
	DefaultPerRequestTimeout = 3 * time.Second
	DefaultMaxConcurrency    = 8
)

// SearchBudget bounds a single discovery call. It is a configuration value,
// not persisted state; a zero field falls back to its default.
type SearchBudget struct {
	// GlobalTimeout is the ceiling for the whole discovery call,
	// including link discovery and the render fallback.
	GlobalTimeout time.Duration

	// PerRequestTimeout bounds each individual fetch, independent of the
	// others.
	PerRequestTimeout time.Duration

	// MaxConcurrency limits in-flight fetches within one discovery call.
	MaxConcurrency int
}

// Normalized returns a copy with defaults applied to zero or negative fields.
func (b SearchBudget) Normalized() SearchBudget {
	if b.GlobalTimeout <= 0 {
		b.GlobalTimeout = DefaultGlobalTimeout
	}
	if b.PerRequestTimeout <= 0 {
		b.PerRequestTimeout = DefaultPerRequestTimeout
	}
	if b.MaxConcurrency <= 0 {
		b.MaxConcurrency = DefaultMaxConcurrency
	}
	return b
}

// ResultStatus indicates whether a discovery call located a policy.
type ResultStatus int

// Discovery result statuses.
const (
	StatusNotFound ResultStatus = iota
	StatusFound
)

// String returns a short label for logging.
func (s ResultStatus) String() string {
	if s == StatusFound {
		return "found"
	}
	return "not-found"
}

// Result is the outcome of a discovery call. A NotFound result is a normal,
// expected outcome, not a fault.
type Result struct {
	Status    ResultStatus
	SourceURL string
	Text      string
	Tier      Tier
	Score     int
	Origin    CandidateOrigin
	Rendered  bool // true when the text came from the render fallback
}

// Discoverer locates the privacy policy for a website root URL.
type Discoverer interface {
	// Discover returns the best scored policy page for rawURL, or a
	// NotFound result when nothing reaches the acceptable tier. The only
	// error condition is EINVALID for a malformed or disallowed root URL;
	// per-candidate failures are recovered internally.
	Discover(ctx context.Context, rawURL string, budget SearchBudget) (*Result, error)
}

// NormalizeRootURL validates a raw root URL and returns its normalized form.
// A missing scheme defaults to https. Returns EINVALID if the scheme is not
// http/https or the host is a loopback, private, or link-local address.
func NormalizeRootURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, Errorf(EINVALID, "root URL required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, Errorf(EINVALID, "malformed root URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, Errorf(EINVALID, "unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, Errorf(EINVALID, "root URL has no host")
	}
	if isDisallowedHost(host) {
		return nil, Errorf(EINVALID, "disallowed host %q", host)
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// NormalizeDomain returns the cache key for a root URL's host: lowercased,
// port and "www." prefix stripped. Both host forms of the same logical site
// share one cache entry.
func NormalizeDomain(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// isDisallowedHost rejects loopback, private, link-local and unspecified
// addresses. Full SSRF protection is delegated to an upstream validator;
// this is the engine's own minimum boundary.
func isDisallowedHost(host string) bool {
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
