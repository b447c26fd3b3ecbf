package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// UpstreamLimiter holds one token bucket per upstream API. Upstreams without
// an explicit limit share the defaults.
type UpstreamLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults Limit
}

type Limit struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultLimit() Limit {
	return Limit{
		RequestsPerSecond: 10,
		BurstSize:         20,
	}
}

func NewUpstreamLimiter(defaults Limit) *UpstreamLimiter {
	if defaults.BurstSize <= 0 {
		defaults.BurstSize = 1
	}
	return &UpstreamLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: defaults,
	}
}

func NewUpstreamLimiterWithDefaults() *UpstreamLimiter {
	return NewUpstreamLimiter(DefaultLimit())
}

func (u *UpstreamLimiter) limiter(upstream string) *rate.Limiter {
	u.mu.RLock()
	l, ok := u.limiters[upstream]
	u.mu.RUnlock()
	if ok {
		return l
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if l, ok = u.limiters[upstream]; ok {
		return l
	}
	l = newLimiter(u.defaults)
	u.limiters[upstream] = l
	return l
}

func (u *UpstreamLimiter) SetLimit(upstream string, limit Limit) {
	if limit.BurstSize <= 0 {
		limit.BurstSize = 1
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	u.limiters[upstream] = newLimiter(limit)
}

// Wait blocks until the upstream has a token or ctx is done. A nil limiter
// never blocks.
func (u *UpstreamLimiter) Wait(ctx context.Context, upstream string) error {
	if u == nil {
		return nil
	}
	return u.limiter(upstream).Wait(ctx)
}

func (u *UpstreamLimiter) Allow(upstream string) bool {
	if u == nil {
		return true
	}
	return u.limiter(upstream).Allow()
}

func newLimiter(l Limit) *rate.Limiter {
	if l.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, l.BurstSize)
	}
	return rate.NewLimiter(rate.Limit(l.RequestsPerSecond), l.BurstSize)
}
