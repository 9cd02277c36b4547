package discover_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"policyscout"
	"policyscout/discover"
	"policyscout/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Scheduler implements policyscout.Discoverer at compile time.
var _ policyscout.Discoverer = (*discover.Scheduler)(nil)

// markerScorer maps marker words to fixed scores so scheduler tests don't
// depend on the real scoring tables.
func markerScorer() *mock.Scorer {
	return &mock.Scorer{
		ScoreFn: func(text string) (int, policyscout.Tier) {
			switch {
			case strings.Contains(text, "STRONG"):
				return 100, policyscout.TierStrong
			case strings.Contains(text, "ACCEPTABLE"):
				return 50, policyscout.TierAcceptable
			case strings.Contains(text, "WEAK"):
				return 20, policyscout.TierWeak
			default:
				return 0, policyscout.TierNone
			}
		},
	}
}

func staticGenerator(urls ...string) *mock.Generator {
	return &mock.Generator{
		GenerateFn: func(_ context.Context, _ string) ([]policyscout.CandidateURL, error) {
			candidates := make([]policyscout.CandidateURL, len(urls))
			for i, u := range urls {
				candidates[i] = policyscout.CandidateURL{URL: u, Origin: policyscout.OriginPriorityPath, Rank: i}
			}
			return candidates, nil
		},
	}
}

func successOutcome(c policyscout.CandidateURL, text string) policyscout.Outcome {
	return policyscout.Outcome{Candidate: c, Status: policyscout.StatusSuccess, Text: text, Elapsed: time.Millisecond}
}

func failOutcome(c policyscout.CandidateURL, status policyscout.OutcomeStatus, code int) policyscout.Outcome {
	return policyscout.Outcome{Candidate: c, Status: status, HTTPCode: code, Elapsed: time.Millisecond}
}

// mapCache is a trivial in-memory ResultCache honoring TTLs via a fake clock.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*policyscout.CacheEntry
	now     func() time.Time
}

func newMapCache(now func() time.Time) *mapCache {
	return &mapCache{entries: make(map[string]*policyscout.CacheEntry), now: now}
}

func (c *mapCache) Get(domain string) (*policyscout.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[domain]
	if !ok || entry.Expired(c.now()) {
		delete(c.entries, domain)
		return nil, false
	}
	return entry, true
}

func (c *mapCache) Put(domain string, entry *policyscout.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[domain] = entry
}

func TestScheduler_Discover_finds_strong_priority_path(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			if c.URL == "https://example.com/privacy" {
				return successOutcome(c, "STRONG this is the full policy text")
			}
			return failOutcome(c, policyscout.StatusHTTPError, 404)
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy", "https://example.com/legal/privacy"),
		fetcher,
		markerScorer(),
	)

	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusFound, result.Status)
	assert.Equal(t, policyscout.TierStrong, result.Tier)
	assert.Equal(t, "https://example.com/privacy", result.SourceURL)
	assert.Contains(t, result.Text, "full policy text")
	assert.False(t, result.Rendered)
}

func TestScheduler_Discover_strong_hit_stops_lower_priority_fetches(t *testing.T) {
	t.Parallel()

	var fetched []string
	var mu sync.Mutex

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			mu.Lock()
			fetched = append(fetched, c.URL)
			mu.Unlock()
			return successOutcome(c, "STRONG policy")
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy", "https://example.com/b", "https://example.com/c"),
		fetcher,
		markerScorer(),
	)

	// Concurrency 1 launches candidates strictly in rank order.
	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{MaxConcurrency: 1})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusFound, result.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"https://example.com/privacy"}, fetched, "no lower-priority fetch may start after a strong hit")
}

func TestScheduler_Discover_cache_hit_issues_no_fetches(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			fetches.Add(1)
			return successOutcome(c, "ACCEPTABLE policy body")
		},
	}

	cache := newMapCache(time.Now)
	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy"),
		fetcher,
		markerScorer(),
		discover.WithCache(cache),
	)

	first, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)
	require.Equal(t, policyscout.StatusFound, first.Status)
	issued := fetches.Load()
	require.Greater(t, issued, int64(0))

	second, err := s.Discover(context.Background(), "https://www.example.com", policyscout.SearchBudget{})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same-domain call within TTL returns the identical result")
	assert.Equal(t, issued, fetches.Load(), "second call must issue zero network fetches")
}

func TestScheduler_Discover_expired_cache_entry_is_refetched(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var clock atomic.Int64
	clock.Store(now.UnixNano())
	fakeNow := func() time.Time { return time.Unix(0, clock.Load()) }

	var fetches atomic.Int64
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			fetches.Add(1)
			return successOutcome(c, "ACCEPTABLE policy body")
		},
	}

	cache := newMapCache(fakeNow)
	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy"),
		fetcher,
		markerScorer(),
		discover.WithCache(cache),
		discover.WithClock(fakeNow),
	)

	_, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)
	before := fetches.Load()

	clock.Store(now.Add(2 * time.Hour).UnixNano())

	_, err = s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)
	assert.Greater(t, fetches.Load(), before, "expired entry is treated as absent")
}

func TestScheduler_Discover_all_forbidden_returns_not_found_with_short_ttl(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return failOutcome(c, policyscout.StatusHTTPError, 403)
		},
	}

	var stored *policyscout.CacheEntry
	var mu sync.Mutex
	cache := &mock.ResultCache{
		GetFn: func(string) (*policyscout.CacheEntry, bool) { return nil, false },
		PutFn: func(_ string, entry *policyscout.CacheEntry) {
			mu.Lock()
			stored = entry
			mu.Unlock()
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://blocked.example/privacy", "https://blocked.example/legal/privacy"),
		fetcher,
		markerScorer(),
		discover.WithCache(cache),
	)

	result, err := s.Discover(context.Background(), "https://blocked.example", policyscout.SearchBudget{})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusNotFound, result.Status)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, stored, "not-found outcomes are cached too")
	assert.Equal(t, policyscout.StatusNotFound, stored.Result.Status)
	assert.Equal(t, discover.DefaultFailureTTL, stored.TTL)
}

func TestScheduler_Discover_found_result_uses_success_ttl(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return successOutcome(c, "ACCEPTABLE body")
		},
	}

	var stored *policyscout.CacheEntry
	var mu sync.Mutex
	cache := &mock.ResultCache{
		GetFn: func(string) (*policyscout.CacheEntry, bool) { return nil, false },
		PutFn: func(_ string, entry *policyscout.CacheEntry) {
			mu.Lock()
			stored = entry
			mu.Unlock()
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy"),
		fetcher,
		markerScorer(),
		discover.WithCache(cache),
	)

	_, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, stored)
	assert.Equal(t, discover.DefaultSuccessTTL, stored.TTL)
}

func TestScheduler_Discover_weak_results_are_not_found(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return successOutcome(c, "WEAK mention of a policy")
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy"),
		fetcher,
		markerScorer(),
	)

	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)
	assert.Equal(t, policyscout.StatusNotFound, result.Status)
}

func TestScheduler_Discover_tie_break_prefers_lower_rank(t *testing.T) {
	t.Parallel()

	// The lower-ranked candidate completes last; the running-best update
	// must still prefer it on an equal tier and score.
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			if c.Rank == 0 {
				time.Sleep(50 * time.Millisecond)
				return successOutcome(c, "ACCEPTABLE first")
			}
			return successOutcome(c, "ACCEPTABLE second")
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy", "https://example.com/legal/privacy"),
		fetcher,
		markerScorer(),
	)

	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{MaxConcurrency: 2})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusFound, result.Status)
	assert.Equal(t, "https://example.com/privacy", result.SourceURL)
}

func TestScheduler_Discover_render_fallback_for_allow_listed_domain(t *testing.T) {
	t.Parallel()

	plain := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return successOutcome(c, "thin shell") // scores TierNone
		},
	}
	renderer := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			if c.URL == "https://gated.example/privacy" {
				return successOutcome(c, "ACCEPTABLE rendered policy text")
			}
			return successOutcome(c, "still a shell")
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://gated.example/privacy", "https://gated.example/legal/privacy"),
		plain,
		markerScorer(),
		discover.WithRenderer(renderer),
		discover.WithRenderAllowList([]string{"gated.example"}),
	)

	result, err := s.Discover(context.Background(), "https://gated.example", policyscout.SearchBudget{})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusFound, result.Status)
	assert.True(t, result.Rendered, "result must be attributed to the render fallback")
	assert.Equal(t, "https://gated.example/privacy", result.SourceURL)
	assert.Contains(t, result.Text, "rendered policy")
}

func TestScheduler_Discover_render_fallback_skipped_off_allow_list(t *testing.T) {
	t.Parallel()

	plain := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return failOutcome(c, policyscout.StatusHTTPError, 404)
		},
	}
	renderer := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			t.Errorf("renderer must not run for %s", c.URL)
			return failOutcome(c, policyscout.StatusNetworkError, 0)
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy"),
		plain,
		markerScorer(),
		discover.WithRenderer(renderer),
		discover.WithRenderAllowList([]string{"gated.example"}),
	)

	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
	require.NoError(t, err)
	assert.Equal(t, policyscout.StatusNotFound, result.Status)
}

func TestScheduler_Discover_render_fallback_skipped_after_strong_hit(t *testing.T) {
	t.Parallel()

	plain := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			return successOutcome(c, "STRONG full policy")
		},
	}
	renderer := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			t.Errorf("renderer must not run for %s", c.URL)
			return failOutcome(c, policyscout.StatusNetworkError, 0)
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://gated.example/privacy"),
		plain,
		markerScorer(),
		discover.WithRenderer(renderer),
		discover.WithRenderAllowList([]string{"gated.example"}),
	)

	result, err := s.Discover(context.Background(), "https://gated.example", policyscout.SearchBudget{})
	require.NoError(t, err)
	assert.Equal(t, policyscout.TierStrong, result.Tier)
	assert.False(t, result.Rendered)
}

func TestScheduler_Discover_returns_within_global_deadline(t *testing.T) {
	t.Parallel()

	// Every fetch hangs until its context is canceled.
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			<-ctx.Done()
			return failOutcome(c, policyscout.StatusTimeout, 0)
		},
	}

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = "https://slow.example/p" + string(rune('a'+i))
	}

	s := discover.NewScheduler(staticGenerator(urls...), fetcher, markerScorer())

	began := time.Now()
	result, err := s.Discover(context.Background(), "https://slow.example", policyscout.SearchBudget{
		GlobalTimeout:     200 * time.Millisecond,
		PerRequestTimeout: 10 * time.Second,
		MaxConcurrency:    4,
	})
	require.NoError(t, err)

	assert.Less(t, time.Since(began), 2*time.Second, "discovery must return shortly after the global deadline")
	assert.Equal(t, policyscout.StatusNotFound, result.Status)
}

func TestScheduler_Discover_deadline_returns_best_so_far(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			if c.Rank == 0 {
				return successOutcome(c, "ACCEPTABLE quick hit")
			}
			<-ctx.Done()
			return failOutcome(c, policyscout.StatusTimeout, 0)
		},
	}

	urls := make([]string, 10)
	urls[0] = "https://slow.example/privacy"
	for i := 1; i < len(urls); i++ {
		urls[i] = "https://slow.example/p" + string(rune('a'+i))
	}

	s := discover.NewScheduler(staticGenerator(urls...), fetcher, markerScorer())

	result, err := s.Discover(context.Background(), "https://slow.example", policyscout.SearchBudget{
		GlobalTimeout:     300 * time.Millisecond,
		PerRequestTimeout: 10 * time.Second,
		MaxConcurrency:    4,
	})
	require.NoError(t, err)

	assert.Equal(t, policyscout.StatusFound, result.Status)
	assert.Equal(t, "https://slow.example/privacy", result.SourceURL)
}

func TestScheduler_Discover_same_domain_calls_coalesce(t *testing.T) {
	t.Parallel()

	var generates atomic.Int64
	generator := &mock.Generator{
		GenerateFn: func(_ context.Context, _ string) ([]policyscout.CandidateURL, error) {
			generates.Add(1)
			return []policyscout.CandidateURL{
				{URL: "https://example.com/privacy", Origin: policyscout.OriginPriorityPath, Rank: 0},
			}, nil
		},
	}
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			time.Sleep(100 * time.Millisecond) // hold the flight open so callers overlap
			return successOutcome(c, "ACCEPTABLE body")
		},
	}

	s := discover.NewScheduler(
		generator,
		fetcher,
		markerScorer(),
		discover.WithCache(newMapCache(time.Now)),
	)

	var wg sync.WaitGroup
	results := make([]*policyscout.Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{})
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), generates.Load(), "bursty identical requests must share one search")
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, policyscout.StatusFound, r.Status)
	}
}

func TestScheduler_Discover_duplicate_content_prefers_lower_rank(t *testing.T) {
	t.Parallel()

	// Both host variants serve byte-identical content; the reported source
	// must be the lower-ranked URL regardless of completion order.
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			if c.Rank == 0 {
				time.Sleep(30 * time.Millisecond)
			}
			return successOutcome(c, "ACCEPTABLE identical body")
		},
	}

	s := discover.NewScheduler(
		staticGenerator("https://example.com/privacy", "https://www.example.com/privacy"),
		fetcher,
		markerScorer(),
	)

	result, err := s.Discover(context.Background(), "https://example.com", policyscout.SearchBudget{MaxConcurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/privacy", result.SourceURL)
}

func TestScheduler_Discover_invalid_input(t *testing.T) {
	t.Parallel()

	generator := &mock.Generator{
		GenerateFn: func(context.Context, string) ([]policyscout.CandidateURL, error) {
			t.Error("generator must not run for invalid input")
			return nil, nil
		},
	}
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, c policyscout.CandidateURL) policyscout.Outcome {
			t.Error("fetcher must not run for invalid input")
			return failOutcome(c, policyscout.StatusNetworkError, 0)
		},
	}

	s := discover.NewScheduler(generator, fetcher, markerScorer())

	_, err := s.Discover(context.Background(), "ftp://example.com", policyscout.SearchBudget{})
	require.Error(t, err)
	assert.Equal(t, policyscout.EINVALID, policyscout.ErrorCode(err))

	_, err = s.Discover(context.Background(), "http://127.0.0.1/privacy", policyscout.SearchBudget{})
	require.Error(t, err)
	assert.Equal(t, policyscout.EINVALID, policyscout.ErrorCode(err))
}
