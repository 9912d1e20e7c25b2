package ranking

import (
	"sort"
	"time"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Scorer prices itineraries with a fixed set of weights. It holds no other
// state and is safe for concurrent use.
type Scorer struct {
	weights models.Weights
}

func NewScorer(w models.Weights) Scorer {
	return Scorer{weights: w}
}

func (s Scorer) Weights() models.Weights {
	return s.weights
}

// LegScore is the weighted score of one leg. Unpriced legs score +Inf.
func (s Scorer) LegScore(leg models.Leg) float64 {
	return leg.Score(s.weights)
}

// Score fills in the weekday count and score breakdown of it.
func (s Scorer) Score(it models.Itinerary) models.Itinerary {
	var flightTotal, flightScore float64
	for _, leg := range it.Legs {
		flightTotal += leg.Price.Amount()
		flightScore += s.LegScore(leg)
	}

	it.Weekdays = CountWeekdays(it.Start, it.End)
	absence := float64(it.Weekdays) * s.weights.CostPerWeekday

	it.Score = models.Score{
		FlightTotal: flightTotal,
		FlightScore: flightScore,
		AbsenceCost: absence,
		Total:       flightScore + absence,
	}
	return it
}

// CountWeekdays counts Monday through Friday dates in [start, end] by walking
// every day.
func CountWeekdays(start, end models.Date) int {
	count := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// Rank returns a copy sorted by ascending total score. Equal scores keep
// their input order.
func Rank(its []models.Itinerary) []models.Itinerary {
	ranked := make([]models.Itinerary, len(its))
	copy(ranked, its)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total < ranked[j].Score.Total
	})

	return ranked
}

// Top ranks its and keeps at most n. n <= 0 keeps everything.
func Top(its []models.Itinerary, n int) []models.Itinerary {
	ranked := Rank(its)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopLegs orders candidate legs by score and keeps at most k.
func (s Scorer) TopLegs(legs []models.Leg, k int) []models.Leg {
	sorted := make([]models.Leg, len(legs))
	copy(sorted, legs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return s.LegScore(sorted[i]) < s.LegScore(sorted[j])
	})

	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
