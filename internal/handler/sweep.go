package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightsweep/internal/collector"
	"github.com/dharmasatrya/flightsweep/internal/metrics"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/providers"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
)

// AdapterFunc builds an adapter that ranks candidates under the given weights.
type AdapterFunc func(models.Weights) *providers.Adapter

type SweepHandler struct {
	collector  *collector.Collector
	base       sweep.Config
	adapterFor AdapterFunc
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewSweepHandler(c *collector.Collector, base sweep.Config, adapterFor AdapterFunc, logger *zap.Logger, m *metrics.Metrics) *SweepHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepHandler{
		collector:  c,
		base:       base,
		adapterFor: adapterFor,
		logger:     logger,
		metrics:    m,
	}
}

func (h *SweepHandler) Register(g *echo.Group) {
	g.POST("/sweeps", h.RunSweep)
	g.GET("/plan", h.Plan)
	g.POST("/flights/search", h.Search)
}

// RunSweep runs the configured sweep with the request's overrides applied.
// A server started offline stays offline whatever the request says.
func (h *SweepHandler) RunSweep(c echo.Context) error {
	var req models.SweepRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	cfg, err := h.apply(req)
	if err != nil {
		return validationError(c, err)
	}

	searcher := h.collector
	if req.Weights != nil && h.adapterFor != nil {
		searcher = searcher.WithAdapter(h.adapterFor(*req.Weights))
	}
	if req.Offline != nil && *req.Offline {
		searcher = searcher.Offline()
	}

	orch, err := sweep.New(cfg, searcher, h.logger, h.metrics)
	if err != nil {
		return validationError(c, err)
	}

	res, err := orch.Run(c.Request().Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("sweep failed", zap.Error(err))
		return c.JSON(status, models.ErrorResponse{
			Error:   "sweep_error",
			Message: "Failed to run sweep: " + err.Error(),
			Code:    status,
		})
	}

	return c.JSON(http.StatusOK, res.Response(searcher.IsOffline()))
}

func (h *SweepHandler) apply(req models.SweepRequest) (sweep.Config, error) {
	cfg := h.base

	if len(req.DepartureDates) > 0 {
		dates := make([]models.Date, len(req.DepartureDates))
		for i, raw := range req.DepartureDates {
			d, err := models.ParseDate(raw)
			if err != nil {
				return sweep.Config{}, err
			}
			dates[i] = d
		}
		cfg.Grid.DepartureDates = dates
	}
	if len(req.RegionANights) > 0 {
		cfg.Grid.RegionANights = req.RegionANights
	}
	if len(req.RegionBNights) > 0 {
		cfg.Grid.RegionBNights = req.RegionBNights
	}
	if req.Weights != nil {
		cfg.Weights = *req.Weights
	}
	if req.TopN != 0 {
		cfg.TopN = req.TopN
	}

	return cfg, cfg.Validate()
}

// Plan lists the distinct searches the configured sweep needs.
func (h *SweepHandler) Plan(c echo.Context) error {
	plan := sweep.Plan(h.base)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(plan),
		"searches": plan,
	})
}

// Search runs one search and returns its ranked candidates.
func (h *SweepHandler) Search(c echo.Context) error {
	startTime := time.Now()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return validationError(c, err)
	}

	result, err := h.collector.Search(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to search flights: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	rejected := make(map[string]int, len(result.Rejected))
	for reason, n := range result.Rejected {
		rejected[string(reason)] = n
	}

	resp := models.SearchResponse{
		Request: result.Request,
		Metadata: models.SearchMetadata{
			SourcesQueried:   result.SourcesQueried,
			SourcesSucceeded: result.SourcesSucceeded,
			SourcesFailed:    result.SourcesFailed,
			FailedSources:    result.FailedSources,
			CacheHits:        result.CacheHits,
			Decoded:          result.Decoded,
			Rejected:         rejected,
			Reason:           result.Reason,
			SearchTimeMs:     time.Since(startTime).Milliseconds(),
		},
		Outbound: models.NewLegRecords(result.Legs.Outbound, h.base.Weights),
	}
	if req.Kind() == models.RoundTrip {
		resp.Return = models.NewLegRecords(result.Legs.Return, h.base.Weights)
	}
	return c.JSON(http.StatusOK, resp)
}

func validationError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
