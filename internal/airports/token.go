package airports

import (
	"context"
	"sync"
	"time"
)

// Token is an OAuth2 bearer token and the instant it stops being usable.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

type TokenFetcher func(ctx context.Context) (Token, error)

// TokenCache holds one bearer token and refreshes it once it is within skew
// of expiring. Refresh happens under the lock, so concurrent callers on a cold
// cache share a single fetch.
type TokenCache struct {
	mu    sync.Mutex
	token Token
	fetch TokenFetcher
	now   func() time.Time
	skew  time.Duration
}

const DefaultTokenSkew = 30 * time.Second

func NewTokenCache(fetch TokenFetcher, now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{
		fetch: fetch,
		now:   now,
		skew:  DefaultTokenSkew,
	}
}

func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid() {
		return c.token.AccessToken, nil
	}

	token, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token.AccessToken, nil
}

// Invalidate drops the cached token; the next Get fetches a new one.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

func (c *TokenCache) valid() bool {
	if c.token.AccessToken == "" {
		return false
	}
	return c.now().Add(c.skew).Before(c.token.ExpiresAt)
}
