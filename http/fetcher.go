// Package http provides the plain HTTP implementation of
// policyscout.Fetcher and a sitemap-based candidate link source, for sites
// that don't require JavaScript rendering.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"policyscout"
)

// Defaults for the plain fetcher.
const (
	// DefaultUserAgent identifies the engine to site operators.
	DefaultUserAgent = "PolicyScout/1.0 (privacy-policy discovery; +https://policyscout.dev/bot)"

	// DefaultMaxBodyBytes caps the response body to bound memory against
	// pathological payloads.
	DefaultMaxBodyBytes = 2 << 20 // 2 MiB

	// DefaultMaxRedirects bounds redirect chains.
	DefaultMaxRedirects = 5
)

// Ensure Fetcher implements policyscout.Fetcher at compile time.
var _ policyscout.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves the visible text of candidate URLs using plain HTTP
// requests. Unlike rod.Fetcher, this does not execute JavaScript and is
// suitable for static pages only. All failure modes are returned as outcome
// values, never as panics or errors.
type Fetcher struct {
	client    *http.Client
	extractor policyscout.Extractor
	userAgent string
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent overrides the client identity string.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodyBytes overrides the response body cap.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// WithClient replaces the underlying HTTP client. The redirect bound is
// re-applied to the supplied client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a new plain HTTP Fetcher that extracts page text with
// the given extractor. Timeouts come from the per-fetch context, so the
// underlying client carries none of its own.
func NewFetcher(extractor policyscout.Extractor, opts ...Option) *Fetcher {
	f := &Fetcher{
		extractor: extractor,
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= DefaultMaxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}
	return f
}

// Fetch performs one bounded GET of the candidate URL and classifies the
// result.
func (f *Fetcher) Fetch(ctx context.Context, candidate policyscout.CandidateURL) policyscout.Outcome {
	began := time.Now()
	outcome := func(status policyscout.OutcomeStatus) policyscout.Outcome {
		return policyscout.Outcome{Candidate: candidate, Status: status, Elapsed: time.Since(began)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.URL, nil)
	if err != nil {
		return outcome(policyscout.StatusNetworkError)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return outcome(classifyErr(ctx, err))
	}
	defer resp.Body.Close()

	// The client follows redirects itself, so a remaining 3xx means the
	// chain was cut at the redirect bound.
	if resp.StatusCode >= 300 {
		o := outcome(policyscout.StatusHTTPError)
		o.HTTPCode = resp.StatusCode
		return o
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text") {
		return outcome(policyscout.StatusNotPolicyLike)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return outcome(classifyErr(ctx, err))
	}

	text, err := f.extractor.ExtractText(string(body))
	if err != nil || strings.TrimSpace(text) == "" {
		return outcome(policyscout.StatusNotPolicyLike)
	}

	o := outcome(policyscout.StatusSuccess)
	o.Text = text
	return o
}

// Close releases resources. Idle connections are dropped so a discovery
// burst does not pin sockets.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// classifyErr distinguishes deadline expiry from connectivity failures.
func classifyErr(ctx context.Context, err error) policyscout.OutcomeStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return policyscout.StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return policyscout.StatusTimeout
	}
	return policyscout.StatusNetworkError
}
