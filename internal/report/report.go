// Package report renders a finished sweep for people: a console summary, a
// JSON export and a sortable HTML table.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
)

const (
	ConsoleTop   = 10
	ExportTop    = 30
	JSONFileName = "flight_sweep_results.json"
	HTMLFileName = "flight_sweep_viewer.html"
)

var (
	primaryColor = lipgloss.Color("#4A90D9")
	successColor = lipgloss.Color("#4ECDC4")
	warningColor = lipgloss.Color("#FFE66D")
	subtleColor  = lipgloss.Color("#666666")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	bestStyle    = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
)

// Report is what every sink renders.
type Report struct {
	Route       sweep.Route
	Constraints models.Constraints
	Result      *sweep.Result
	Offline     bool
}

func (r Report) itineraries() []models.Itinerary {
	if r.Result == nil {
		return nil
	}
	return r.Result.Itineraries
}

func (r Report) routeLine() string {
	rt := r.Route
	return strings.Join([]string{rt.Home, rt.RegionA, rt.RegionB, rt.Home}, " -> ")
}

func (r Report) scoringLine() string {
	w := r.weights()
	return fmt.Sprintf("Flight cost + (hours x $%.0f) + (stops x $%.0f) + (weekdays x $%.0f)",
		w.CostPerHour, w.CostPerStop, w.CostPerWeekday)
}

func (r Report) constraintsLine() string {
	c := r.Constraints
	line := fmt.Sprintf("Max %d stop(s), max %s layover, single carrier per leg", c.MaxStops, models.FormatDuration(c.MaxLayover.Hours()))
	if len(c.ExcludedCarriers) > 0 {
		line += ", excluding " + strings.Join(c.ExcludedCarriers, ", ")
	}
	return line
}

func (r Report) weights() models.Weights {
	if r.Result == nil {
		return models.DefaultWeights()
	}
	return r.Result.Weights
}

// WriteFiles saves the JSON export and the HTML viewer under dir and
// returns their paths.
func WriteFiles(dir string, r Report) (jsonPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report directory: %w", err)
	}

	jsonPath = filepath.Join(dir, JSONFileName)
	if err := writeFile(jsonPath, func(f *os.File) error { return WriteJSON(f, r) }); err != nil {
		return "", "", err
	}

	htmlPath = filepath.Join(dir, HTMLFileName)
	if err := writeFile(htmlPath, func(f *os.File) error { return WriteHTML(f, r) }); err != nil {
		return "", "", err
	}
	return jsonPath, htmlPath, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
