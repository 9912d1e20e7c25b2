package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProviderLimiter spaces calls to each provider at least a fixed interval
// apart. One limiter per provider is shared by every worker.
type ProviderLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	MinInterval time.Duration
	BurstSize   int
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		MinInterval: 500 * time.Millisecond,
		BurstSize:   1,
	}
}

func NewProviderLimiter(config RateLimitConfig) *ProviderLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func NewProviderLimiterWithDefaults() *ProviderLimiter {
	return NewProviderLimiter(DefaultConfig())
}

func (p *ProviderLimiter) GetLimiter(provider string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[provider]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists = p.limiters[provider]; exists {
		return limiter
	}

	limiter = newLimiter(p.defaults.MinInterval, p.defaults.BurstSize)
	p.limiters[provider] = limiter
	return limiter
}

// SetProviderLimit replaces the provider's limiter. A zero interval lifts the
// limit entirely.
func (p *ProviderLimiter) SetProviderLimit(provider string, interval time.Duration, burst int) {
	if burst <= 0 {
		burst = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.limiters[provider] = newLimiter(interval, burst)
}

func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	return p.GetLimiter(provider).Wait(ctx)
}

func newLimiter(interval time.Duration, burst int) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}
