package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dharmasatrya/flightsweep/internal/cache"
	"github.com/dharmasatrya/flightsweep/internal/filter"
	"github.com/dharmasatrya/flightsweep/internal/metrics"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/providers"
	"github.com/dharmasatrya/flightsweep/internal/ratelimit"
)

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	RateLimiter *ratelimit.ProviderLimiter
	// Offline serves searches from the store only and never calls a source.
	Offline bool
}

func DefaultConfig() Config {
	return Config{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		RetryDelays: []time.Duration{
			time.Second,
			2 * time.Second,
		},
	}
}

// Reasons a search came back without candidates.
const (
	ReasonNoSource        = "no source supports this trip"
	ReasonAllFailed       = "every source failed"
	ReasonNotCached       = "not in cache"
	ReasonNoOffers        = "no offers returned"
	ReasonAllRejected     = "no leg passed the constraints"
	ReasonMissingReturn   = "no return leg passed the constraints"
	ReasonMissingOutbound = "no outbound leg passed the constraints"
)

// Collector answers searches from the store first and from the sources
// second, then normalizes what it got into candidate lists.
type Collector struct {
	sources []providers.Source
	store   cache.Store
	adapter *providers.Adapter
	config  Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   *singleflight.Group
	now     func() time.Time
}

type Result struct {
	Request          models.SearchRequest
	Legs             models.LegSet
	SourcesQueried   int
	SourcesSucceeded int
	SourcesFailed    int
	FailedSources    []string
	CacheHits        int
	Decoded          int
	Rejected         map[filter.Reason]int
	// Reason is set whenever a required direction has no candidates.
	Reason string
}

// Complete reports whether every direction the search asked for has at
// least one candidate.
func (r *Result) Complete() bool {
	if len(r.Legs.Outbound) == 0 {
		return false
	}
	if r.Request.Kind() == models.RoundTrip {
		return len(r.Legs.Return) > 0
	}
	return true
}

func New(sources []providers.Source, store cache.Store, adapter *providers.Adapter, config Config, logger *zap.Logger, m *metrics.Metrics) *Collector {
	if store == nil {
		store = cache.NewNoOpStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Collector{
		sources: sources,
		store:   store,
		adapter: adapter,
		config:  config,
		logger:  logger,
		metrics: m,
		group:   &singleflight.Group{},
		now:     time.Now,
	}
}

// Offline returns a view of c that only reads the store.
func (c *Collector) Offline() *Collector {
	cp := *c
	cp.config.Offline = true
	return &cp
}

// WithAdapter returns a view of c that normalizes with a. In-flight
// searches are shared only within one view.
func (c *Collector) WithAdapter(a *providers.Adapter) *Collector {
	cp := *c
	cp.adapter = a
	cp.group = &singleflight.Group{}
	return &cp
}

func (c *Collector) IsOffline() bool {
	return c.config.Offline
}

// Search never fails on provider trouble: a failing source contributes no
// legs and is listed in FailedSources. Only an invalid request is an error.
func (c *Collector) Search(ctx context.Context, req models.SearchRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var eligible []providers.Source
	for _, src := range c.sources {
		if src.Supports(req.Kind()) {
			eligible = append(eligible, src)
		}
	}

	result := &Result{
		Request:        req,
		SourcesQueried: len(eligible),
	}
	if len(eligible) == 0 {
		result.Reason = ReasonNoSource
		return result, nil
	}

	type sourceResult struct {
		set      models.LegSet
		cacheHit bool
		outcome  string
		err      error
	}

	// Slots keep the merge order equal to source order regardless of which
	// source answers first.
	slots := make([]sourceResult, len(eligible))
	var wg sync.WaitGroup
	for i, src := range eligible {
		wg.Add(1)
		go func(i int, src providers.Source) {
			defer wg.Done()
			raw, outcome, err := c.load(ctx, src, req)
			slots[i] = sourceResult{outcome: outcome, err: err, cacheHit: outcome == metrics.OutcomeCacheHit}
			if err == nil {
				slots[i].set = src.Decode(req, raw)
			}
		}(i, src)
	}
	wg.Wait()

	sets := make([]models.LegSet, 0, len(eligible))
	offlineMisses := 0
	for i, sr := range slots {
		name := eligible[i].Name()
		if sr.err != nil {
			result.SourcesFailed++
			result.FailedSources = append(result.FailedSources, name)
			if sr.outcome == metrics.OutcomeOfflineMiss {
				offlineMisses++
			}
			continue
		}
		result.SourcesSucceeded++
		if sr.cacheHit {
			result.CacheHits++
		}
		sets = append(sets, sr.set)
	}

	normalized := c.adapter.Normalize(sets...)
	result.Legs = normalized.Legs
	result.Decoded = normalized.Decoded
	result.Rejected = normalized.Rejected
	if len(normalized.Rejected) > 0 {
		fields := []zap.Field{zap.String("search", req.String())}
		for reason, n := range normalized.Rejected {
			c.metrics.ObserveRejected(string(reason), n)
			fields = append(fields, zap.Int(string(reason), n))
		}
		c.logger.Debug("legs rejected", fields...)
	}

	if !result.Complete() {
		result.Reason = emptyReason(result, offlineMisses)
		c.logger.Debug("search produced no usable candidates",
			zap.String("search", req.String()),
			zap.String("reason", result.Reason),
			zap.Int("decoded", result.Decoded),
			zap.Strings("failed_sources", result.FailedSources),
		)
	}

	return result, nil
}

func emptyReason(r *Result, offlineMisses int) string {
	switch {
	case r.SourcesSucceeded == 0 && offlineMisses == r.SourcesFailed:
		return ReasonNotCached
	case r.SourcesSucceeded == 0:
		return ReasonAllFailed
	case r.Decoded == 0:
		return ReasonNoOffers
	case len(r.Legs.Outbound) == 0 && len(r.Legs.Return) == 0:
		return ReasonAllRejected
	case len(r.Legs.Outbound) == 0:
		return ReasonMissingOutbound
	default:
		return ReasonMissingReturn
	}
}

var errOfflineMiss = errors.New("not cached and collector is offline")

// load returns the raw body for one source, reading the store before the
// network. Identical concurrent loads share one call.
func (c *Collector) load(ctx context.Context, src providers.Source, req models.SearchRequest) ([]byte, string, error) {
	key := cache.NewKey(src.Name(), req)
	flightKey := key.String()
	if c.config.Offline {
		flightKey = "offline:" + flightKey
	}

	type loaded struct {
		raw     []byte
		outcome string
	}

	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		if raw, ok := c.readStore(ctx, key); ok {
			return loaded{raw: raw, outcome: metrics.OutcomeCacheHit}, nil
		}
		if c.config.Offline {
			return loaded{outcome: metrics.OutcomeOfflineMiss}, errOfflineMiss
		}

		raw, err := c.fetchWithRetry(ctx, src, req)
		if err != nil {
			return loaded{outcome: metrics.OutcomeFailed}, err
		}
		c.writeStore(ctx, key, raw)
		return loaded{raw: raw, outcome: metrics.OutcomeFetched}, nil
	})

	l, _ := v.(loaded)
	c.metrics.ObserveSearch(src.Name(), l.outcome)
	if err != nil {
		if l.outcome == metrics.OutcomeFailed {
			c.logger.Warn("source failed",
				zap.String("source", src.Name()),
				zap.String("search", req.String()),
				zap.Error(err),
			)
		}
		return nil, l.outcome, err
	}
	return l.raw, l.outcome, nil
}

func (c *Collector) readStore(ctx context.Context, key cache.Key) ([]byte, bool) {
	blob, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.ObserveSearch(key.Source, metrics.OutcomeCacheFailure)
		c.logger.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	env, err := cache.Unwrap(blob)
	if err != nil {
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	return env.Data, true
}

func (c *Collector) writeStore(ctx context.Context, key cache.Key, raw []byte) {
	blob, err := cache.Wrap(key, raw, c.now())
	if err == nil {
		err = c.store.Set(ctx, key, blob)
	}
	if err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	c.logger.Debug("cached", zap.String("key", key.FileName()))
}

func (c *Collector) fetchWithRetry(ctx context.Context, src providers.Source, req models.SearchRequest) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 && len(c.config.RetryDelays) > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(c.config.RetryDelays) {
				delayIdx = len(c.config.RetryDelays) - 1
			}

			select {
			case <-time.After(c.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.config.RateLimiter != nil {
			if err := c.config.RateLimiter.Wait(ctx, src.Name()); err != nil {
				return nil, err
			}
		}

		raw, err := c.fetchOnce(ctx, src, req)
		if err == nil {
			return raw, nil
		}

		lastErr = err
		c.logger.Debug("fetch attempt failed",
			zap.String("source", src.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if !retryable(err) {
			break
		}
	}

	return nil, lastErr
}

func (c *Collector) fetchOnce(ctx context.Context, src providers.Source, req models.SearchRequest) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := src.Fetch(callCtx, req)
	c.metrics.ObserveFetch(src.Name(), time.Since(start))
	return raw, err
}

func retryable(err error) bool {
	if errors.Is(err, providers.ErrNotConfigured) || errors.Is(err, providers.ErrUnsupportedTrip) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var perr *providers.ProviderError
	if errors.As(err, &perr) && perr.StatusCode != 0 {
		return perr.StatusCode == http.StatusTooManyRequests || perr.StatusCode >= 500
	}
	return true
}

// Summary tallies a Prefetch run.
type Summary struct {
	Searches   int
	Complete   int
	Incomplete int
	CacheHits  int
	Failures   int
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d searches, %d complete, %d incomplete", s.Searches, s.Complete, s.Incomplete)
	fmt.Fprintf(&b, " (%d cache hits, %d source failures)", s.CacheHits, s.Failures)
	return b.String()
}

// Prefetch runs every search so their responses land in the store. onDone,
// when set, is called once per finished search from a single goroutine at a
// time.
func (c *Collector) Prefetch(ctx context.Context, reqs []models.SearchRequest, workers int, onDone func(*Result)) (Summary, error) {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		summary = Summary{Searches: len(reqs)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.Search(gctx, req)
			if err != nil {
				return fmt.Errorf("search %s: %w", req, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if res.Complete() {
				summary.Complete++
			} else {
				summary.Incomplete++
			}
			summary.CacheHits += res.CacheHits
			summary.Failures += res.SourcesFailed
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}

	err := g.Wait()
	return summary, err
}
