package models

import "fmt"

type Strategy string

const (
	StrategySequential Strategy = "one_way_x3"
	StrategyRoundTrips Strategy = "round_trip_x2"
)

func (s Strategy) LegCount() int {
	switch s {
	case StrategySequential:
		return 3
	case StrategyRoundTrips:
		return 4
	default:
		return 0
	}
}

func (s Strategy) Label() string {
	switch s {
	case StrategySequential:
		return "3 One-Ways"
	case StrategyRoundTrips:
		return "2 Round-Trips"
	default:
		return string(s)
	}
}

// Score is the breakdown of an itinerary's total cost.
type Score struct {
	FlightTotal float64 `json:"flight_total"`
	FlightScore float64 `json:"flight_score"`
	AbsenceCost float64 `json:"absence_cost"`
	Total       float64 `json:"total_score"`
}

// Itinerary is one complete trip. Legs are ordered as flown; for round trips
// that is [home->A, A->B, B->A, A->home].
type Itinerary struct {
	Strategy      Strategy `json:"strategy"`
	Legs          []Leg    `json:"legs"`
	Start         Date     `json:"start_date"`
	End           Date     `json:"end_date"`
	RegionANights int      `json:"region_a_nights"`
	RegionBNights int      `json:"region_b_nights"`
	Weekdays      int      `json:"weekdays"`
	Score         Score    `json:"score"`
}

func (it Itinerary) TotalHours() float64 {
	total := 0.0
	for _, leg := range it.Legs {
		total += leg.Hours()
	}
	return total
}

func (it Itinerary) TotalStops() int {
	total := 0
	for _, leg := range it.Legs {
		total += leg.Stops
	}
	return total
}

// Validate checks the leg count against the strategy and that leg dates are
// non-decreasing and inside the trip window.
func (it Itinerary) Validate() error {
	if want := it.Strategy.LegCount(); want == 0 || len(it.Legs) != want {
		return fmt.Errorf("%s itinerary has %d legs", it.Strategy, len(it.Legs))
	}
	if it.End.Before(it.Start) {
		return fmt.Errorf("trip ends %s before it starts %s", it.End, it.Start)
	}

	prev := it.Start
	for i, leg := range it.Legs {
		if leg.Date.Before(prev) {
			return fmt.Errorf("leg %d on %s precedes %s", i+1, leg.Date, prev)
		}
		if leg.Date.After(it.End) {
			return fmt.Errorf("leg %d on %s is after trip end %s", i+1, leg.Date, it.End)
		}
		prev = leg.Date
	}
	return nil
}
