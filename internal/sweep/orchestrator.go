package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dharmasatrya/flightsweep/internal/builder"
	"github.com/dharmasatrya/flightsweep/internal/collector"
	"github.com/dharmasatrya/flightsweep/internal/metrics"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/ranking"
)

const (
	DefaultKeepPerPoint = 10
	DefaultTopN         = 30
	DefaultWorkers      = 4
)

var ErrInvalidConfig = errors.New("invalid sweep configuration")

type Config struct {
	Route        Route
	Grid         Grid
	Weights      models.Weights
	Strategies   []models.Strategy
	PerLeg       int
	KeepPerPoint int
	TopN         int
	Workers      int
	Passengers   int
	CabinClass   string
}

func (c Config) withDefaults() Config {
	if len(c.Strategies) == 0 {
		c.Strategies = []models.Strategy{models.StrategySequential, models.StrategyRoundTrips}
	}
	if c.PerLeg == 0 {
		c.PerLeg = builder.DefaultPerLeg
	}
	if c.KeepPerPoint == 0 {
		c.KeepPerPoint = DefaultKeepPerPoint
	}
	if c.TopN == 0 {
		c.TopN = DefaultTopN
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Passengers == 0 {
		c.Passengers = 1
	}
	if c.CabinClass == "" {
		c.CabinClass = "economy"
	}
	return c
}

func (c Config) runs(s models.Strategy) bool {
	for _, have := range c.Strategies {
		if have == s {
			return true
		}
	}
	return false
}

// Validate reports every problem at once. Zero values that have a default
// are accepted.
func (c Config) Validate() error {
	c = c.withDefaults()
	var errs []error

	r := c.Route
	if r.Home == "" || r.RegionA == "" || r.RegionB == "" {
		errs = append(errs, errors.New("route needs home, region A and region B airports"))
	} else if r.Home == r.RegionA || r.RegionA == r.RegionB || r.Home == r.RegionB {
		errs = append(errs, fmt.Errorf("route %s-%s-%s repeats an airport", r.Home, r.RegionA, r.RegionB))
	}

	if len(c.Grid.DepartureDates) == 0 {
		errs = append(errs, errors.New("no departure dates"))
	}
	for _, d := range c.Grid.DepartureDates {
		if d.IsZero() {
			errs = append(errs, errors.New("departure date is empty"))
			break
		}
	}
	if len(c.Grid.RegionANights) == 0 {
		errs = append(errs, errors.New("no region A stay lengths"))
	}
	if len(c.Grid.RegionBNights) == 0 {
		errs = append(errs, errors.New("no region B stay lengths"))
	}
	for _, n := range append(append([]int{}, c.Grid.RegionANights...), c.Grid.RegionBNights...) {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("stay length %d is not positive", n))
			break
		}
	}

	w := c.Weights
	if w.CostPerHour < 0 || w.CostPerStop < 0 || w.CostPerWeekday < 0 {
		errs = append(errs, fmt.Errorf("weights must not be negative: %+v", w))
	}

	for _, s := range c.Strategies {
		if s.LegCount() == 0 {
			errs = append(errs, fmt.Errorf("unknown strategy %q", s))
		}
	}
	if c.PerLeg < 0 || c.KeepPerPoint < 0 || c.TopN < 0 || c.Workers < 0 || c.Passengers < 0 {
		errs = append(errs, errors.New("limits must be positive"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Searcher yields the candidate lists for one search. *collector.Collector
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*collector.Result, error)
}

type Orchestrator struct {
	config   Config
	searcher Searcher
	builder  *builder.Builder
	scorer   ranking.Scorer
	factory  searchFactory
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New fails only on configuration errors, before any search runs.
func New(cfg Config, searcher Searcher, logger *zap.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if searcher == nil {
		return nil, fmt.Errorf("%w: no searcher", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg = cfg.withDefaults()
	scorer := ranking.NewScorer(cfg.Weights)
	return &Orchestrator{
		config:   cfg,
		searcher: searcher,
		builder:  builder.New(scorer, cfg.PerLeg),
		scorer:   scorer,
		factory:  searchFactory{route: cfg.Route, passengers: cfg.Passengers, cabin: cfg.CabinClass},
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}, nil
}

func (o *Orchestrator) Config() Config {
	return o.config
}

// Skip records a grid point and strategy that produced nothing.
type Skip struct {
	Point    Point
	Strategy models.Strategy
	Reason   string
}

type Result struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Weights     models.Weights
	Itineraries []models.Itinerary
	GridPoints  int
	Scored      int
	Considered  int
	// Skipped counts grid points with at least one skipped strategy. Skips
	// holds one entry per skipped point and strategy.
	Skipped int
	Skips   []Skip
}

type pointResult struct {
	itineraries []models.Itinerary
	skips       []Skip
	scored      bool
}

// Run evaluates every grid point on a bounded pool of workers. Each point
// writes only its own slot and ranking happens after all points finish, so
// the result does not depend on scheduling.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	started := o.now()
	points := o.config.Grid.Points()
	slots := make([]pointResult, len(points))
	memo := newSearchMemo(o.searcher)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, p := range points {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.evaluate(gctx, memo, p)
			if err != nil {
				return err
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      uuid.NewString(),
		StartedAt:  started,
		Weights:    o.config.Weights,
		GridPoints: len(points),
	}

	var all []models.Itinerary
	for _, slot := range slots {
		all = append(all, slot.itineraries...)
		result.Skips = append(result.Skips, slot.skips...)
		if slot.scored {
			result.Scored++
		}
	}
	result.Considered = len(all)
	for _, slot := range slots {
		if len(slot.skips) > 0 {
			result.Skipped++
		}
	}
	result.Itineraries = ranking.Top(all, o.config.TopN)
	result.Duration = o.now().Sub(started)

	o.metrics.ObserveSweep(result.Duration)
	o.logger.Info("sweep finished",
		zap.String("run_id", result.RunID),
		zap.Int("grid_points", result.GridPoints),
		zap.Int("scored", result.Scored),
		zap.Int("skipped", result.Skipped),
		zap.Int("skipped_strategies", len(result.Skips)),
		zap.Int("considered", result.Considered),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, memo *searchMemo, p Point) (pointResult, error) {
	var res pointResult

	for _, strategy := range o.config.Strategies {
		var (
			its    []models.Itinerary
			reason string
			err    error
		)
		switch strategy {
		case models.StrategySequential:
			its, reason, err = o.sequential(ctx, memo, p)
		case models.StrategyRoundTrips:
			its, reason, err = o.roundTrips(ctx, memo, p)
		}
		if err != nil {
			return pointResult{}, err
		}

		if len(its) == 0 {
			skip := Skip{Point: p, Strategy: strategy, Reason: reason}
			res.skips = append(res.skips, skip)
			o.metrics.ObserveGridPoint(string(strategy), false)
			o.logger.Info("grid point skipped",
				zap.String("departure", p.Departure.String()),
				zap.Int("region_a_nights", p.RegionANights),
				zap.Int("region_b_nights", p.RegionBNights),
				zap.String("strategy", string(strategy)),
				zap.String("reason", reason),
			)
			continue
		}

		res.scored = true
		res.itineraries = append(res.itineraries, ranking.Top(its, o.config.KeepPerPoint)...)
		o.metrics.ObserveGridPoint(string(strategy), true)
	}

	return res, nil
}

func (o *Orchestrator) sequential(ctx context.Context, memo *searchMemo, p Point) ([]models.Itinerary, string, error) {
	reqs := o.factory.sequential(p)
	var lists [3][]models.Leg
	for i, req := range reqs {
		res, err := memo.search(ctx, req)
		if err != nil {
			return nil, "", err
		}
		if !res.Complete() {
			return nil, skipReason(req, res), nil
		}
		lists[i] = res.Legs.Outbound
	}

	return o.builder.Sequential(lists[0], lists[1], lists[2], p.SequentialTrip()), "", nil
}

func (o *Orchestrator) roundTrips(ctx context.Context, memo *searchMemo, p Point) ([]models.Itinerary, string, error) {
	outerReq, innerReq := o.factory.roundTrips(p)

	outer, err := memo.search(ctx, outerReq)
	if err != nil {
		return nil, "", err
	}
	if !outer.Complete() {
		return nil, skipReason(outerReq, outer), nil
	}

	inner, err := memo.search(ctx, innerReq)
	if err != nil {
		return nil, "", err
	}
	if !inner.Complete() {
		return nil, skipReason(innerReq, inner), nil
	}

	return o.builder.RoundTrips(outer.Legs, inner.Legs, p.RoundTripTrip()), "", nil
}

func skipReason(req models.SearchRequest, res *collector.Result) string {
	reason := res.Reason
	if reason == "" {
		reason = "no candidates"
	}
	return req.String() + ": " + reason
}

// searchMemo runs each distinct search at most once per sweep.
type searchMemo struct {
	searcher Searcher
	group    singleflight.Group
	mu       sync.Mutex
	results  map[string]*collector.Result
}

func newSearchMemo(s Searcher) *searchMemo {
	return &searchMemo{
		searcher: s,
		results:  make(map[string]*collector.Result),
	}
}

func (m *searchMemo) search(ctx context.Context, req models.SearchRequest) (*collector.Result, error) {
	key := req.String()

	m.mu.Lock()
	res, ok := m.results[key]
	m.mu.Unlock()
	if ok {
		return res, nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		res, err := m.searcher.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.results[key] = res
		m.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*collector.Result), nil
}
