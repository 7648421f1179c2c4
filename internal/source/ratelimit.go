package source

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per source (requests per second). Open Library and the
// Library of Congress document roughly 2 req/s for anonymous clients;
// DuckDuckGo scraping stays at 1 req/s to avoid challenges.
var defaultRateLimits = map[Name]rate.Limit{
	NameOpenLibrary: 2,
	NameGoogleBooks: 2,
	NameWebSearch:   1,
	NameLoC:         2,
}

// RateLimiterMap holds one rate.Limiter per source, created once at startup
// and shared by all concurrent fetches.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[Name]*rate.Limiter
}

// NewRateLimiterMap creates all source rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[Name]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given source allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, name Name) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
