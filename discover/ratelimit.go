package discover

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultHostRPS is the default per-host request rate. Candidates for one
// discovery call mostly share a host, so this also paces the worker pool.
const DefaultHostRPS = 8

// HostLimiter provides per-host rate limiting using token buckets. Requests
// to different hosts never block each other.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewHostLimiter creates a new HostLimiter with the specified requests per
// second limit per host and a small burst allowance.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    4,
	}
}

// Wait blocks until the rate limit allows a request to the host.
// Returns an error if the context is canceled before the wait completes.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
