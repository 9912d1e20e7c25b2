package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightsweep/internal/cache"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/providers"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, sweep.Route{Home: "SEA", RegionA: "MXP", RegionB: "HYD"}, cfg.Route)
	assert.Equal(t, []string{"2026-04-24", "2026-04-25", "2026-05-01", "2026-05-02", "2026-05-08"}, cfg.Grid.DepartureDates)
	assert.Equal(t, []int{21, 22, 23}, cfg.Grid.RegionANights)
	assert.Equal(t, []int{5, 6, 7}, cfg.Grid.RegionBNights)
	assert.Equal(t, models.DefaultWeights(), cfg.Weights)
	assert.Equal(t, models.DefaultConstraints(), cfg.Constraints)
	assert.Equal(t, 500*time.Millisecond, cfg.Duffel.Delay)
	assert.Equal(t, 200*time.Millisecond, cfg.Google.Delay)
	assert.Equal(t, 60*time.Second, cfg.Collector.Timeout)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, cfg.Collector.RetryDelays)
	assert.Equal(t, CacheFile, cfg.Cache.Backend)
	assert.Equal(t, 20, cfg.Sweep.TopK)
	assert.Equal(t, 5, cfg.Sweep.PerLeg)
	assert.Equal(t, []string{"one_way_x3", "round_trip_x2"}, cfg.Sweep.Strategies)

	require.NoError(t, cfg.Validate())

	sc, err := cfg.SweepConfig()
	require.NoError(t, err)
	assert.Equal(t, 45, sc.Grid.Size())
	assert.Len(t, sweep.Plan(sc), 91)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightsweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
route:
  home: jfk
  region_a: lhr
  region_b: del
grid:
  departure_dates: ["2026-06-01", "2026-06-02"]
  region_a_nights: [10, 12]
  region_b_nights: [4]
weights:
  cost_per_weekday: 0
cache:
  backend: redis
  redis:
    ttl: 24h
collector:
  retry_delays: ["500ms"]
sweep:
  strategies: [round_trip_x2]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Log.Production)
	assert.Equal(t, sweep.Route{Home: "JFK", RegionA: "LHR", RegionB: "DEL"}, cfg.Route)
	assert.Equal(t, []string{"2026-06-01", "2026-06-02"}, cfg.Grid.DepartureDates)
	assert.Equal(t, []int{10, 12}, cfg.Grid.RegionANights)
	assert.Equal(t, []int{4}, cfg.Grid.RegionBNights)
	assert.Zero(t, cfg.Weights.CostPerWeekday)
	assert.Equal(t, 20.0, cfg.Weights.CostPerHour)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, cfg.Collector.RetryDelays)
	assert.Equal(t, []string{"round_trip_x2"}, cfg.Sweep.Strategies)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DUFFEL_API_KEY", "duffel_test_abc")
	t.Setenv("FLIGHTSWEEP_GRID_REGION_A_NIGHTS", "14, 15")
	t.Setenv("FLIGHTSWEEP_ROUTE_REGION_B", "bom")
	t.Setenv("FLIGHTSWEEP_CONSTRAINTS_MAX_LAYOVER", "2h30m")

	cfg := loadDefaults(t)

	assert.Equal(t, "duffel_test_abc", cfg.Duffel.APIKey)
	assert.Equal(t, []int{14, 15}, cfg.Grid.RegionANights)
	assert.Equal(t, "BOM", cfg.Route.RegionB)
	assert.Equal(t, 150*time.Minute, cfg.Constraints.MaxLayover)

	t.Setenv("FLIGHTSWEEP_DUFFEL_API_KEY", "duffel_test_prefixed")
	assert.Equal(t, "duffel_test_prefixed", loadDefaults(t).Duffel.APIKey)
}

func TestLoadRejectsMalformedLists(t *testing.T) {
	t.Setenv("FLIGHTSWEEP_GRID_REGION_B_NIGHTS", "5,six")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("FLIGHTSWEEP_GRID_REGION_B_NIGHTS", "5")
	t.Setenv("FLIGHTSWEEP_COLLECTOR_RETRY_DELAYS", "soon")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Port = 0
	cfg.Cache.Backend = "memcached"
	cfg.Grid.DepartureDates = []string{"2026-04-24", "24/04/2026"}
	cfg.Grid.RegionBNights = []int{5, -1}
	cfg.Sweep.Strategies = []string{"bus"}
	cfg.Google.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, want := range []string{"Port", "Cache.Backend", "Grid.DepartureDates[1]", "Grid.RegionBNights[1]", "Sweep.Strategies[0]", "google.endpoint"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateCrossFieldRules(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Cache.Backend = CacheSQL
	cfg.Cache.SQLDSN = ""
	assert.ErrorContains(t, cfg.Validate(), "cache.sql_dsn")

	cfg = loadDefaults(t)
	cfg.Route.RegionB = cfg.Route.Home
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, sweep.ErrInvalidConfig)
}

func TestSources(t *testing.T) {
	cfg := loadDefaults(t)

	online := cfg.Sources(false)
	require.Len(t, online, 1)
	assert.Equal(t, providers.DuffelName, online[0].Name())

	offline := cfg.Sources(true)
	require.Len(t, offline, 2)
	assert.Equal(t, providers.GoogleName, offline[1].Name())

	cfg.Google.Enabled = true
	assert.Len(t, cfg.Sources(false), 2)
}

func TestCollectorConfig(t *testing.T) {
	cfg := loadDefaults(t)

	cc := cfg.CollectorConfig(true)
	assert.True(t, cc.Offline)
	assert.Equal(t, 2, cc.MaxRetries)
	require.NotNil(t, cc.RateLimiter)
	assert.Equal(t, 2.0, float64(cc.RateLimiter.GetLimiter(providers.DuffelName).Limit()))
	assert.Equal(t, 5.0, float64(cc.RateLimiter.GetLimiter(providers.GoogleName).Limit()))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	cfg := loadDefaults(t)

	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	store, err := cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &cache.FileStore{}, store)
	require.NoError(t, store.Close())

	cfg.Cache.Backend = CacheNone
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &cache.NoOpStore{}, store)

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.Redis.Host = mr.Host()
	cfg.Cache.Redis.Port = port
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisStore{}, store)
	require.NoError(t, store.Close())

	cfg.Cache.Backend = "memcached"
	_, err = cfg.OpenStore(ctx)
	assert.ErrorIs(t, err, ErrInvalid)
}
