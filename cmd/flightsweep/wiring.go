package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dharmasatrya/flightsweep/internal/cache"
	"github.com/dharmasatrya/flightsweep/internal/collector"
)

// newCollector opens the configured store and builds a collector over it.
// The caller closes the store.
func (a *app) newCollector(ctx context.Context, offline bool) (*collector.Collector, cache.Store, error) {
	store, err := a.cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", a.cfg.Cache.Backend, err)
	}

	sources := a.cfg.Sources(offline)
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name()
	}
	a.logger.Info("collector ready",
		zap.String("cache", a.cfg.Cache.Backend),
		zap.Strings("sources", names),
		zap.Bool("offline", offline),
	)

	c := collector.New(sources, store, a.cfg.Adapter(), a.cfg.CollectorConfig(offline), a.logger, a.metrics)
	return c, store, nil
}

func (a *app) closeStore(store cache.Store) {
	if err := store.Close(); err != nil {
		a.logger.Warn("failed to close cache", zap.Error(err))
	}
}
