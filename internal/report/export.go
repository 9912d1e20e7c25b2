package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Export is the document written by WriteJSON. Itineraries are capped at
// ExportTop.
type Export struct {
	Route       string            `json:"route"`
	Constraints ExportConstraints `json:"constraints"`
	models.SweepResponse
}

// ExportConstraints renders the layover limit in hours and as a duration
// string instead of nanoseconds.
type ExportConstraints struct {
	MaxStops         int      `json:"max_stops"`
	MaxLayoverHours  float64  `json:"max_layover_hours"`
	MaxLayover       string   `json:"max_layover"`
	ExcludedCarriers []string `json:"excluded_carriers"`
}

func newExportConstraints(c models.Constraints) ExportConstraints {
	excluded := c.ExcludedCarriers
	if excluded == nil {
		excluded = []string{}
	}
	return ExportConstraints{
		MaxStops:         c.MaxStops,
		MaxLayoverHours:  c.MaxLayover.Hours(),
		MaxLayover:       c.MaxLayover.String(),
		ExcludedCarriers: excluded,
	}
}

func NewExport(r Report) Export {
	var resp models.SweepResponse
	if r.Result != nil {
		resp = r.Result.Response(r.Offline)
	}
	if len(resp.Itineraries) > ExportTop {
		resp.Itineraries = resp.Itineraries[:ExportTop]
	}
	if resp.Itineraries == nil {
		resp.Itineraries = []models.ItineraryRecord{}
	}
	if resp.Skips == nil {
		resp.Skips = []models.SkipRecord{}
	}

	return Export{
		Route:         r.routeLine(),
		Constraints:   newExportConstraints(r.Constraints),
		SweepResponse: resp,
	}
}

func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExport(r)); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
