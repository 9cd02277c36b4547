// Package rod provides the headless-browser fallback fetcher, used for
// domains that gate their policy pages behind JavaScript rendering.
package rod

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"policyscout"
)

// DefaultMaxPages is the number of pages rendered before the browser is
// recycled. Chrome accumulates memory over time and the baseline never
// returns to initial levels even with proper page cleanup.
const DefaultMaxPages = 75

// Ensure Fetcher implements policyscout.Fetcher at compile time.
var _ policyscout.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered page text using headless Chrome. The browser is
// launched lazily on first use, so constructing a Fetcher is free for
// discoveries that never need rendering. Fetcher is safe for concurrent use.
type Fetcher struct {
	extractor policyscout.Extractor
	maxPages  int64

	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	pageCount int64
	closed    bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxPages sets the number of rendered pages before browser recycling.
func WithMaxPages(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher creates a new headless-browser Fetcher that extracts page text
// with the given extractor. Close must be called when the Fetcher is no
// longer needed.
func NewFetcher(extractor policyscout.Extractor, opts ...Option) *Fetcher {
	f := &Fetcher{
		extractor: extractor,
		maxPages:  DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch renders the candidate URL in a headless browser and classifies the
// result. Browser launch failures and navigation failures both surface as
// network-error outcomes; the scheduler treats rendering as best-effort.
func (f *Fetcher) Fetch(ctx context.Context, candidate policyscout.CandidateURL) policyscout.Outcome {
	began := time.Now()
	outcome := func(status policyscout.OutcomeStatus) policyscout.Outcome {
		return policyscout.Outcome{Candidate: candidate, Status: status, Elapsed: time.Since(began)}
	}

	browser, err := f.acquireBrowser()
	if err != nil {
		return outcome(policyscout.StatusNetworkError)
	}

	html, err := renderPage(ctx, browser, candidate.URL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return outcome(policyscout.StatusTimeout)
		}
		return outcome(policyscout.StatusNetworkError)
	}
	f.notePageRendered()

	text, err := f.extractor.ExtractText(html)
	if err != nil || strings.TrimSpace(text) == "" {
		return outcome(policyscout.StatusNotPolicyLike)
	}

	o := outcome(policyscout.StatusSuccess)
	o.Text = text
	return o
}

// renderPage navigates a fresh page to the URL and returns the serialized
// DOM after the load event.
func renderPage(ctx context.Context, browser *rod.Browser, url string) (html string, err error) {
	// rod surfaces some CDP failures as panics.
	defer func() {
		if r := recover(); r != nil {
			err = policyscout.Errorf(policyscout.EUNAVAILABLE, "render %s: %v", url, r)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return page.HTML()
}

// Close shuts down the browser if one was launched. Safe to call multiple
// times; Fetch after Close reports network-error outcomes.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return f.closeBrowserLocked()
}

// acquireBrowser returns a connected browser, launching or recycling one as
// needed.
func (f *Fetcher) acquireBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, policyscout.Errorf(policyscout.EINVALID, "fetcher is closed")
	}

	if f.browser != nil && f.pageCount >= f.maxPages {
		// Recycle: keep the old browser if the replacement fails to launch.
		old, oldLauncher := f.browser, f.launcher
		f.browser, f.launcher = nil, nil
		if err := f.launchLocked(); err != nil {
			f.browser, f.launcher = old, oldLauncher
		} else {
			_ = old.Close()
			oldLauncher.Kill()
			f.pageCount = 0
		}
	}

	if f.browser == nil {
		if err := f.launchLocked(); err != nil {
			return nil, err
		}
	}
	return f.browser, nil
}

func (f *Fetcher) notePageRendered() {
	f.mu.Lock()
	f.pageCount++
	f.mu.Unlock()
}

// launchLocked starts a headless browser with stability flags. Must be
// called with mu held.
func (f *Fetcher) launchLocked() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return policyscout.Errorf(policyscout.EUNAVAILABLE, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return policyscout.Errorf(policyscout.EUNAVAILABLE, "connecting to browser: %v", err)
	}

	f.browser = browser
	f.launcher = lnchr
	return nil
}

// closeBrowserLocked shuts down the browser and launcher. Must be called
// with mu held.
func (f *Fetcher) closeBrowserLocked() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
