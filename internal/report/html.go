package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

//go:embed viewer.html.tmpl
var viewerSource string

var viewerTemplate = template.Must(template.New("viewer").Parse(viewerSource))

type viewerLeg struct {
	Route   string  `json:"route"`
	Date    string  `json:"date"`
	Carrier string  `json:"carrier"`
	Price   float64 `json:"price"`
	Priced  bool    `json:"priced"`
	Hours   float64 `json:"hours"`
	Stops   int     `json:"stops"`
	Source  string  `json:"source"`
}

type viewerRow struct {
	Rank          int         `json:"rank"`
	Strategy      string      `json:"strategy"`
	Depart        string      `json:"depart"`
	Return        string      `json:"return"`
	RegionANights int         `json:"region_a_nights"`
	RegionBNights int         `json:"region_b_nights"`
	Weekdays      int         `json:"weekdays"`
	TotalHours    float64     `json:"total_hours"`
	TotalStops    int         `json:"total_stops"`
	FlightCost    float64     `json:"flight_cost"`
	AbsenceCost   float64     `json:"absence_cost"`
	TotalScore    float64     `json:"total_score"`
	Legs          []viewerLeg `json:"legs"`
}

type viewerData struct {
	Title       string
	Route       string
	Scoring     string
	Constraints string
	Considered  int
	Skipped     int
	Rows        []viewerRow
}

func viewerRows(its []models.Itinerary) []viewerRow {
	rows := make([]viewerRow, len(its))
	for i, it := range its {
		legs := make([]viewerLeg, len(it.Legs))
		for j, leg := range it.Legs {
			legs[j] = viewerLeg{
				Route:   leg.Origin + "->" + leg.Destination,
				Date:    leg.Date.String(),
				Carrier: leg.Carrier,
				Priced:  leg.Price.Valid(),
				Hours:   round1(leg.Hours()),
				Stops:   leg.Stops,
				Source:  leg.Source,
			}
			if leg.Price.Valid() {
				legs[j].Price = leg.Price.Amount()
			}
		}

		rows[i] = viewerRow{
			Rank:          i + 1,
			Strategy:      it.Strategy.Label(),
			Depart:        it.Start.String(),
			Return:        it.End.String(),
			RegionANights: it.RegionANights,
			RegionBNights: it.RegionBNights,
			Weekdays:      it.Weekdays,
			TotalHours:    round1(it.TotalHours()),
			TotalStops:    it.TotalStops(),
			FlightCost:    math.Round(it.Score.FlightTotal),
			AbsenceCost:   math.Round(it.Score.AbsenceCost),
			TotalScore:    math.Round(it.Score.Total),
			Legs:          legs,
		}
	}
	return rows
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// WriteHTML renders every kept itinerary into a page with a sortable table.
func WriteHTML(w io.Writer, r Report) error {
	data := viewerData{
		Title:       "Flight Sweep Results",
		Route:       r.routeLine(),
		Scoring:     r.scoringLine(),
		Constraints: r.constraintsLine(),
		Rows:        viewerRows(r.itineraries()),
	}
	if r.Result != nil {
		data.Considered = r.Result.Considered
		data.Skipped = r.Result.Skipped
	}

	if err := viewerTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render viewer: %w", err)
	}
	return nil
}
