package fetcher

import (
	"context"
	"sync"
	"time"
)

// rateLimiter enforces a minimum spacing between requests to one domain.
// Each domain has its own entry lock, held through the wait, so concurrent
// fetches to the same domain serialize while other domains proceed.
type rateLimiter struct {
	delay time.Duration

	mu      sync.Mutex
	domains map[string]*domainClock
}

type domainClock struct {
	mu   sync.Mutex
	last time.Time
}

func newRateLimiter(delay time.Duration) *rateLimiter {
	return &rateLimiter{delay: delay, domains: make(map[string]*domainClock)}
}

func (r *rateLimiter) wait(ctx context.Context, domain string) error {
	if r.delay <= 0 {
		return nil
	}
	r.mu.Lock()
	clock, ok := r.domains[domain]
	if !ok {
		clock = &domainClock{}
		r.domains[domain] = clock
	}
	r.mu.Unlock()

	clock.mu.Lock()
	defer clock.mu.Unlock()
	if !clock.last.IsZero() {
		if remaining := r.delay - time.Since(clock.last); remaining > 0 {
			if err := sleepCtx(ctx, remaining); err != nil {
				return err
			}
		}
	}
	clock.last = time.Now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
