package discover

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"policyscout"
)

// Cache TTLs. Not-found results are cached for a shorter period than
// successes so a transiently broken site gets retried sooner.
const (
	DefaultSuccessTTL = time.Hour
	DefaultFailureTTL = 10 * time.Minute
)

// DefaultRenderAllowList names large platforms known to gate their policy
// pages behind client-side script execution. Render fallback is an order of
// magnitude more expensive than a plain fetch, so it is reserved for these.
var DefaultRenderAllowList = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"tiktok.com",
}

// renderPaths are the priority paths retried through the render fallback.
var renderPaths = []string{"/privacy", "/privacy-policy", "/legal/privacy"}

// URLValidator validates and normalizes a raw root URL.
type URLValidator func(raw string) (*url.URL, error)

// Ensure Scheduler implements policyscout.Discoverer at compile time.
var _ policyscout.Discoverer = (*Scheduler)(nil)

// Scheduler orchestrates a discovery call: it checks the result cache,
// obtains candidates, drives plain fetches at bounded concurrency, scores
// each outcome, escalates allow-listed domains to the render fallback, and
// enforces the global deadline. Safe for concurrent use; concurrent calls
// for the same domain coalesce into a single search.
type Scheduler struct {
	generator policyscout.Generator
	fetcher   policyscout.Fetcher
	scorer    policyscout.Scorer

	renderer    policyscout.Fetcher
	cache       policyscout.ResultCache
	limiter     *HostLimiter
	logger      *slog.Logger
	validate    URLValidator
	renderAllow map[string]struct{}
	successTTL  time.Duration
	failureTTL  time.Duration
	now         func() time.Time

	flight singleflight.Group
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRenderer sets the render-fallback fetcher, invoked for allow-listed
// domains when plain fetching yields no strong result.
func WithRenderer(renderer policyscout.Fetcher) SchedulerOption {
	return func(s *Scheduler) {
		s.renderer = renderer
	}
}

// WithCache sets the domain result cache.
func WithCache(cache policyscout.ResultCache) SchedulerOption {
	return func(s *Scheduler) {
		s.cache = cache
	}
}

// WithLimiter sets the per-host rate limiter.
func WithLimiter(limiter *HostLimiter) SchedulerOption {
	return func(s *Scheduler) {
		s.limiter = limiter
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRenderAllowList replaces the default render-fallback domain list.
// Domains match exactly or by suffix, so "facebook.com" also covers
// "m.facebook.com".
func WithRenderAllowList(domains []string) SchedulerOption {
	return func(s *Scheduler) {
		s.renderAllow = make(map[string]struct{}, len(domains))
		for _, d := range domains {
			s.renderAllow[strings.ToLower(d)] = struct{}{}
		}
	}
}

// WithTTLs overrides the cache TTLs for found and not-found results.
func WithTTLs(success, failure time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.successTTL = success
		s.failureTTL = failure
	}
}

// WithURLValidator replaces the root URL validator. The default is
// policyscout.NormalizeRootURL; the upstream service may install a stricter
// one.
func WithURLValidator(v URLValidator) SchedulerOption {
	return func(s *Scheduler) {
		s.validate = v
	}
}

// WithClock overrides the time source for cache entries. Used in tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(generator policyscout.Generator, fetcher policyscout.Fetcher, scorer policyscout.Scorer, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		generator:  generator,
		fetcher:    fetcher,
		scorer:     scorer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:   policyscout.NormalizeRootURL,
		successTTL: DefaultSuccessTTL,
		failureTTL: DefaultFailureTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderAllow == nil {
		WithRenderAllowList(DefaultRenderAllowList)(s)
	}
	return s
}

// Discover locates the privacy policy for rawURL within the given budget.
// Per-candidate failures are recovered internally; the only returned error
// is EINVALID for a malformed or disallowed root URL.
func (s *Scheduler) Discover(ctx context.Context, rawURL string, budget policyscout.SearchBudget) (*policyscout.Result, error) {
	root, err := s.validate(rawURL)
	if err != nil {
		return nil, err
	}
	budget = budget.Normalized()
	domain := policyscout.NormalizeDomain(root)

	if result, ok := s.cached(domain); ok {
		return result, nil
	}

	// Concurrent calls for the same domain coalesce: the second caller
	// waits for the first's in-flight result instead of duplicating the
	// fetch fan-out.
	v, err, _ := s.flight.Do(domain, func() (any, error) {
		if result, ok := s.cached(domain); ok {
			return result, nil
		}
		return s.run(ctx, root, domain, budget)
	})
	if err != nil {
		return nil, err
	}
	return v.(*policyscout.Result), nil
}

// cached returns a fresh cached result for the domain, if any.
func (s *Scheduler) cached(domain string) (*policyscout.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	entry, ok := s.cache.Get(domain)
	if !ok {
		return nil, false
	}
	s.logger.Debug("cache hit", "domain", domain, "status", entry.Result.Status)
	return entry.Result, true
}

// run executes one full discovery under the global deadline and writes the
// outcome to the cache.
func (s *Scheduler) run(ctx context.Context, root *url.URL, domain string, budget policyscout.SearchBudget) (*policyscout.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, budget.GlobalTimeout)
	defer cancel()

	logger := s.logger.With("discovery_id", uuid.NewString(), "domain", domain)
	began := s.now()

	candidates, err := s.generator.Generate(ctx, root.String())
	if err != nil {
		return nil, err
	}
	logger.Debug("candidates generated", "count", len(candidates))

	best := s.fetchPhase(ctx, logger, s.fetcher, candidates, budget)
	rendered := false

	if s.shouldRender(ctx, domain, best) {
		logger.Debug("escalating to render fallback")
		renderBudget := budget
		renderBudget.MaxConcurrency = 1
		if rbest := s.fetchPhase(ctx, logger, s.renderer, renderCandidates(root, len(candidates)), renderBudget); rbest != nil {
			if best == nil || rbest.Better(*best) {
				best = rbest
				rendered = true
			}
		}
	}

	result := buildResult(best, rendered)
	s.store(domain, result)

	logger.Info("discovery finished",
		"status", result.Status,
		"tier", result.Tier.String(),
		"score", result.Score,
		"source_url", result.SourceURL,
		"rendered", result.Rendered,
		"elapsed", s.now().Sub(began),
	)
	return result, nil
}

// shouldRender decides whether to escalate to the render fallback: only for
// allow-listed domains, only when plain fetching found nothing strong, and
// only while budget remains.
func (s *Scheduler) shouldRender(ctx context.Context, domain string, best *policyscout.ScoredCandidate) bool {
	if s.renderer == nil || ctx.Err() != nil {
		return false
	}
	if best != nil && best.Tier >= policyscout.TierStrong {
		return false
	}
	for allowed := range s.renderAllow {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}

// scorePair memoizes a scoring result by content hash, so identical bodies
// served from host variants are scored once and tie-break deterministically
// by rank.
type scorePair struct {
	score int
	tier  policyscout.Tier
}

// fetchPhase drives fetches for the candidates at bounded concurrency,
// scores each success, and maintains the running best. It cancels remaining
// work as soon as a strong-tier candidate is found, and stops launching new
// work when the context deadline elapses.
func (s *Scheduler) fetchPhase(ctx context.Context, logger *slog.Logger, fetcher policyscout.Fetcher, candidates []policyscout.CandidateURL, budget policyscout.SearchBudget) *policyscout.ScoredCandidate {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		best   *policyscout.ScoredCandidate
		scores = make(map[uint64]scorePair)
	)

	var g errgroup.Group
	g.SetLimit(budget.MaxConcurrency)

	for _, candidate := range candidates {
		if pctx.Err() != nil {
			break
		}
		candidate := candidate
		g.Go(func() error {
			if pctx.Err() != nil {
				return nil
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(pctx, hostOf(candidate.URL)); err != nil {
					return nil
				}
			}

			fctx, fcancel := context.WithTimeout(pctx, budget.PerRequestTimeout)
			defer fcancel()

			outcome := fetcher.Fetch(fctx, candidate)
			logger.Debug("fetch outcome",
				"url", candidate.URL,
				"origin", candidate.Origin.String(),
				"status", outcome.Status.String(),
				"http_code", outcome.HTTPCode,
				"elapsed", outcome.Elapsed,
			)
			if !outcome.OK() {
				return nil
			}

			outcome.Text = CleanPolicyText(outcome.Text)
			hash := xxhash.Sum64String(outcome.Text)

			mu.Lock()
			pair, seen := scores[hash]
			mu.Unlock()
			if !seen {
				pair.score, pair.tier = s.scorer.Score(outcome.Text)
				mu.Lock()
				scores[hash] = pair
				mu.Unlock()
			}
			if pair.tier == policyscout.TierNone {
				return nil
			}

			sc := policyscout.ScoredCandidate{Outcome: outcome, Score: pair.score, Tier: pair.tier}
			mu.Lock()
			if best == nil || sc.Better(*best) {
				best = &sc
			}
			strong := best.Tier >= policyscout.TierStrong
			mu.Unlock()

			// Early termination: a strong hit cancels in-flight and
			// not-yet-started fetches for this discovery.
			if strong {
				cancel()
			}
			return nil
		})
	}

	_ = g.Wait()
	return best
}

// renderCandidates builds the short candidate list for the render fallback:
// the root page plus a few priority paths, ranked after all plain
// candidates.
func renderCandidates(root *url.URL, startRank int) []policyscout.CandidateURL {
	base := root.Scheme + "://" + root.Host
	candidates := []policyscout.CandidateURL{
		{URL: root.String(), Origin: policyscout.OriginDirect, Rank: startRank},
	}
	for i, path := range renderPaths {
		candidates = append(candidates, policyscout.CandidateURL{
			URL:    base + path,
			Origin: policyscout.OriginPriorityPath,
			Rank:   startRank + 1 + i,
		})
	}
	return candidates
}

// buildResult converts the running best into the caller-facing result.
// Anything below the acceptable tier is a not-found outcome.
func buildResult(best *policyscout.ScoredCandidate, rendered bool) *policyscout.Result {
	if best == nil || best.Tier < policyscout.TierAcceptable {
		return &policyscout.Result{Status: policyscout.StatusNotFound}
	}
	return &policyscout.Result{
		Status:    policyscout.StatusFound,
		SourceURL: best.Outcome.Candidate.URL,
		Text:      best.Outcome.Text,
		Tier:      best.Tier,
		Score:     best.Score,
		Origin:    best.Outcome.Candidate.Origin,
		Rendered:  rendered,
	}
}

// store writes the result to the cache, including not-found outcomes so
// repeated expensive failures are avoided.
func (s *Scheduler) store(domain string, result *policyscout.Result) {
	if s.cache == nil {
		return
	}
	ttl := s.failureTTL
	if result.Status == policyscout.StatusFound {
		ttl = s.successTTL
	}
	s.cache.Put(domain, &policyscout.CacheEntry{
		Domain:    domain,
		Result:    result,
		CreatedAt: s.now(),
		TTL:       ttl,
	})
}

// hostOf extracts the host for rate limiting; the raw URL is returned as a
// degenerate key when unparseable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
