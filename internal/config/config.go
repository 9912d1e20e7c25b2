package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
	"github.com/dharmasatrya/flightsweep/pkg/logger"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	EnvPrefix = "FLIGHTSWEEP"

	CacheFile  = "file"
	CacheRedis = "redis"
	CacheSQL   = "sql"
	CacheNone  = "none"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Env       string `validate:"oneof=development production"`
	Port      int    `validate:"gt=0,lte=65535"`
	APIPrefix string `validate:"required,startswith=/"`
	OutputDir string `validate:"required"`

	Log         logger.Config
	Duffel      DuffelConfig
	Google      GoogleConfig
	Cache       CacheConfig
	Collector   CollectorConfig
	Route       sweep.Route
	Grid        GridConfig
	Weights     models.Weights
	Constraints models.Constraints
	Sweep       SweepConfig
}

type DuffelConfig struct {
	APIKey  string
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
	// Delay is the minimum spacing between two calls to the API.
	Delay time.Duration `validate:"gte=0"`
}

type GoogleConfig struct {
	Enabled  bool
	Endpoint string        `validate:"omitempty,url"`
	Timeout  time.Duration `validate:"gt=0"`
	Delay    time.Duration `validate:"gte=0"`
}

type CacheConfig struct {
	Backend   string `validate:"oneof=file redis sql none"`
	Dir       string
	SQLDriver string `validate:"omitempty,oneof=sqlite3 postgres"`
	SQLDSN    string
	Redis     RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int `validate:"gte=0,lte=65535"`
	Password string
	DB       int           `validate:"gte=0"`
	TTL      time.Duration `validate:"gte=0"`
}

type CollectorConfig struct {
	Timeout     time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=0"`
	RetryDelays []time.Duration
	Workers     int `validate:"gt=0"`
}

type GridConfig struct {
	DepartureDates []string `validate:"required,min=1,dive,datetime=2006-01-02"`
	RegionANights  []int    `validate:"required,min=1,dive,gt=0"`
	RegionBNights  []int    `validate:"required,min=1,dive,gt=0"`
}

type SweepConfig struct {
	Strategies   []string `validate:"required,min=1,dive,oneof=one_way_x3 round_trip_x2"`
	TopK         int      `validate:"gt=0"`
	PerLeg       int      `validate:"gt=0"`
	KeepPerPoint int      `validate:"gt=0"`
	TopN         int      `validate:"gt=0"`
	Workers      int      `validate:"gt=0"`
	Passengers   int      `validate:"gt=0,lte=9"`
	CabinClass   string   `validate:"oneof=economy premium_economy business first"`
}

// Load reads the optional config file at path (or ./flightsweep.yaml), then
// .env, then FLIGHTSWEEP_* environment variables. DUFFEL_API_KEY is honored
// without the prefix. The result is not validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("flightsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("duffel.api_key", EnvPrefix+"_DUFFEL_API_KEY", "DUFFEL_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:       v.GetString("env"),
		Port:      v.GetInt("port"),
		APIPrefix: v.GetString("api_prefix"),
		OutputDir: v.GetString("output_dir"),
	}

	cfg.Log = logger.Config{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		Production: cfg.Env == EnvProduction,
	}

	cfg.Duffel = DuffelConfig{
		APIKey:  v.GetString("duffel.api_key"),
		BaseURL: v.GetString("duffel.base_url"),
		Timeout: v.GetDuration("duffel.timeout"),
		Delay:   v.GetDuration("duffel.delay"),
	}

	cfg.Google = GoogleConfig{
		Enabled:  v.GetBool("google.enabled"),
		Endpoint: v.GetString("google.endpoint"),
		Timeout:  v.GetDuration("google.timeout"),
		Delay:    v.GetDuration("google.delay"),
	}

	cfg.Cache = CacheConfig{
		Backend:   v.GetString("cache.backend"),
		Dir:       v.GetString("cache.dir"),
		SQLDriver: v.GetString("cache.sql_driver"),
		SQLDSN:    v.GetString("cache.sql_dsn"),
		Redis: RedisConfig{
			Host:     v.GetString("cache.redis.host"),
			Port:     v.GetInt("cache.redis.port"),
			Password: v.GetString("cache.redis.password"),
			DB:       v.GetInt("cache.redis.db"),
			TTL:      v.GetDuration("cache.redis.ttl"),
		},
	}

	delays, err := durationList(v, "collector.retry_delays")
	if err != nil {
		return nil, err
	}
	cfg.Collector = CollectorConfig{
		Timeout:     v.GetDuration("collector.timeout"),
		MaxRetries:  v.GetInt("collector.max_retries"),
		RetryDelays: delays,
		Workers:     v.GetInt("collector.workers"),
	}

	cfg.Route = sweep.Route{
		Home:    strings.ToUpper(v.GetString("route.home")),
		RegionA: strings.ToUpper(v.GetString("route.region_a")),
		RegionB: strings.ToUpper(v.GetString("route.region_b")),
	}

	aNights, err := intList(v, "grid.region_a_nights")
	if err != nil {
		return nil, err
	}
	bNights, err := intList(v, "grid.region_b_nights")
	if err != nil {
		return nil, err
	}
	cfg.Grid = GridConfig{
		DepartureDates: stringList(v, "grid.departure_dates"),
		RegionANights:  aNights,
		RegionBNights:  bNights,
	}

	cfg.Weights = models.Weights{
		CostPerHour:    v.GetFloat64("weights.cost_per_hour"),
		CostPerStop:    v.GetFloat64("weights.cost_per_stop"),
		CostPerWeekday: v.GetFloat64("weights.cost_per_weekday"),
	}

	cfg.Constraints = models.Constraints{
		MaxStops:         v.GetInt("constraints.max_stops"),
		MaxLayover:       v.GetDuration("constraints.max_layover"),
		ExcludedCarriers: stringList(v, "constraints.excluded_carriers"),
	}

	cfg.Sweep = SweepConfig{
		Strategies:   stringList(v, "sweep.strategies"),
		TopK:         v.GetInt("sweep.top_k"),
		PerLeg:       v.GetInt("sweep.per_leg"),
		KeepPerPoint: v.GetInt("sweep.keep_per_point"),
		TopN:         v.GetInt("sweep.top_n"),
		Workers:      v.GetInt("sweep.workers"),
		Passengers:   v.GetInt("sweep.passengers"),
		CabinClass:   v.GetString("sweep.cabin_class"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("port", 8080)
	v.SetDefault("api_prefix", "/api/v1")
	v.SetDefault("output_dir", "./output")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("duffel.api_key", "")
	v.SetDefault("duffel.base_url", "https://api.duffel.com")
	v.SetDefault("duffel.timeout", "60s")
	v.SetDefault("duffel.delay", "500ms")

	v.SetDefault("google.enabled", false)
	v.SetDefault("google.endpoint", "")
	v.SetDefault("google.timeout", "60s")
	v.SetDefault("google.delay", "200ms")

	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", "./cache/sweep")
	v.SetDefault("cache.sql_driver", "sqlite3")
	v.SetDefault("cache.sql_dsn", "")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", "0s")

	v.SetDefault("collector.timeout", "60s")
	v.SetDefault("collector.max_retries", 2)
	v.SetDefault("collector.retry_delays", "1s,2s")
	v.SetDefault("collector.workers", 2)

	v.SetDefault("route.home", "SEA")
	v.SetDefault("route.region_a", "MXP")
	v.SetDefault("route.region_b", "HYD")

	v.SetDefault("grid.departure_dates", "2026-04-24,2026-04-25,2026-05-01,2026-05-02,2026-05-08")
	v.SetDefault("grid.region_a_nights", "21,22,23")
	v.SetDefault("grid.region_b_nights", "5,6,7")

	w := models.DefaultWeights()
	v.SetDefault("weights.cost_per_hour", w.CostPerHour)
	v.SetDefault("weights.cost_per_stop", w.CostPerStop)
	v.SetDefault("weights.cost_per_weekday", w.CostPerWeekday)

	c := models.DefaultConstraints()
	v.SetDefault("constraints.max_stops", c.MaxStops)
	v.SetDefault("constraints.max_layover", c.MaxLayover.String())
	v.SetDefault("constraints.excluded_carriers", strings.Join(c.ExcludedCarriers, ","))

	v.SetDefault("sweep.strategies", "one_way_x3,round_trip_x2")
	v.SetDefault("sweep.top_k", 20)
	v.SetDefault("sweep.per_leg", 5)
	v.SetDefault("sweep.keep_per_point", sweep.DefaultKeepPerPoint)
	v.SetDefault("sweep.top_n", sweep.DefaultTopN)
	v.SetDefault("sweep.workers", sweep.DefaultWorkers)
	v.SetDefault("sweep.passengers", 1)
	v.SetDefault("sweep.cabin_class", "economy")
}

// Validate checks every field and returns all violations joined under
// ErrInvalid.
func (c *Config) Validate() error {
	var errs []error

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if c.Cache.Backend == CacheSQL && c.Cache.SQLDSN == "" {
		errs = append(errs, errors.New("cache.sql_dsn is required for the sql backend"))
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is required for the file backend"))
	}
	if c.Google.Enabled && c.Google.Endpoint == "" {
		errs = append(errs, errors.New("google.endpoint is required when google is enabled"))
	}
	for _, d := range c.Collector.RetryDelays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("collector.retry_delays: %s is negative", d))
			break
		}
	}

	if len(errs) == 0 {
		if _, err := c.SweepConfig(); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Errorf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value())
}

// SweepConfig converts the grid and limits into the orchestrator's config
// and validates it.
func (c *Config) SweepConfig() (sweep.Config, error) {
	dates := make([]models.Date, 0, len(c.Grid.DepartureDates))
	for _, raw := range c.Grid.DepartureDates {
		d, err := models.ParseDate(raw)
		if err != nil {
			return sweep.Config{}, fmt.Errorf("%w: departure date %q: %w", ErrInvalid, raw, err)
		}
		dates = append(dates, d)
	}

	strategies := make([]models.Strategy, len(c.Sweep.Strategies))
	for i, s := range c.Sweep.Strategies {
		strategies[i] = models.Strategy(s)
	}

	cfg := sweep.Config{
		Route: c.Route,
		Grid: sweep.Grid{
			DepartureDates: dates,
			RegionANights:  c.Grid.RegionANights,
			RegionBNights:  c.Grid.RegionBNights,
		},
		Weights:      c.Weights,
		Strategies:   strategies,
		PerLeg:       c.Sweep.PerLeg,
		KeepPerPoint: c.Sweep.KeepPerPoint,
		TopN:         c.Sweep.TopN,
		Workers:      c.Sweep.Workers,
		Passengers:   c.Sweep.Passengers,
		CabinClass:   c.Sweep.CabinClass,
	}
	if err := cfg.Validate(); err != nil {
		return sweep.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// stringList accepts a YAML list or a comma separated string, which is the
// only list form an environment variable can carry.
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return splitAndTrim(raw)
	}
	return v.GetStringSlice(key)
}

func intList(v *viper.Viper, key string) ([]int, error) {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetIntSlice(key), nil
	}

	parts := splitAndTrim(raw)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalid, key, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func durationList(v *viper.Viper, key string) ([]time.Duration, error) {
	parts := stringList(v, key)
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
