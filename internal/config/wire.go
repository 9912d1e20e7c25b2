package config

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dharmasatrya/flightsweep/internal/cache"
	"github.com/dharmasatrya/flightsweep/internal/collector"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/providers"
	"github.com/dharmasatrya/flightsweep/internal/ranking"
	"github.com/dharmasatrya/flightsweep/internal/ratelimit"
)

// Sources lists the providers in merge order. Google is included offline
// even when disabled so previously cached results are still read.
func (c *Config) Sources(offline bool) []providers.Source {
	sources := []providers.Source{
		providers.NewDuffelProvider(providers.DuffelConfig{
			APIKey:  c.Duffel.APIKey,
			BaseURL: c.Duffel.BaseURL,
			Timeout: c.Duffel.Timeout,
		}),
	}
	if c.Google.Enabled || offline {
		sources = append(sources, providers.NewGoogleProvider(providers.GoogleConfig{
			Endpoint: c.Google.Endpoint,
			Timeout:  c.Google.Timeout,
		}))
	}
	return sources
}

func (c *Config) RateLimiter() *ratelimit.ProviderLimiter {
	limiter := ratelimit.NewProviderLimiterWithDefaults()
	limiter.SetProviderLimit(providers.DuffelName, c.Duffel.Delay, 1)
	limiter.SetProviderLimit(providers.GoogleName, c.Google.Delay, 1)
	return limiter
}

func (c *Config) Adapter() *providers.Adapter {
	return c.AdapterFor(c.Weights)
}

// AdapterFor keeps the configured constraints and top-K but ranks
// candidates under w.
func (c *Config) AdapterFor(w models.Weights) *providers.Adapter {
	return providers.NewAdapter(c.Constraints, ranking.NewScorer(w), c.Sweep.TopK)
}

func (c *Config) CollectorConfig(offline bool) collector.Config {
	return collector.Config{
		Timeout:     c.Collector.Timeout,
		MaxRetries:  c.Collector.MaxRetries,
		RetryDelays: c.Collector.RetryDelays,
		RateLimiter: c.RateLimiter(),
		Offline:     offline,
	}
}

// OpenStore connects the configured cache backend. The caller closes it.
func (c *Config) OpenStore(ctx context.Context) (cache.Store, error) {
	switch c.Cache.Backend {
	case CacheFile:
		store, err := cache.NewFileStore(c.Cache.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case CacheRedis:
		r := c.Cache.Redis
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Host:     r.Host,
			Port:     strconv.Itoa(r.Port),
			Password: r.Password,
			DB:       r.DB,
			TTL:      r.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return store, nil
	case CacheSQL:
		store, err := cache.OpenSQLStore(ctx, c.Cache.SQLDriver, c.Cache.SQLDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case CacheNone:
		return cache.NewNoOpStore(), nil
	}
	return nil, fmt.Errorf("%w: unknown cache backend %q", ErrInvalid, c.Cache.Backend)
}
