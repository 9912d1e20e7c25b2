package builder

import (
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/ranking"
)

const DefaultPerLeg = 5

// Trip fixes the dates and stay lengths every itinerary built for one grid
// point shares.
type Trip struct {
	Start         models.Date
	End           models.Date
	RegionANights int
	RegionBNights int
}

// Builder enumerates itineraries from ranked candidate lists. Candidate lists
// are expected best first; only the first PerLeg entries of each are used.
type Builder struct {
	scorer ranking.Scorer
	perLeg int
}

func New(scorer ranking.Scorer, perLeg int) *Builder {
	if perLeg <= 0 {
		perLeg = DefaultPerLeg
	}
	return &Builder{
		scorer: scorer,
		perLeg: perLeg,
	}
}

func (b *Builder) PerLeg() int {
	return b.perLeg
}

// Sequential combines three one-way lists in nested loop order. Any empty
// list yields no itineraries.
func (b *Builder) Sequential(first, second, third []models.Leg, trip Trip) []models.Itinerary {
	first, second, third = b.head(first), b.head(second), b.head(third)
	if len(first) == 0 || len(second) == 0 || len(third) == 0 {
		return nil
	}

	result := make([]models.Itinerary, 0, len(first)*len(second)*len(third))
	for _, l1 := range first {
		for _, l2 := range second {
			for _, l3 := range third {
				result = append(result, b.itinerary(models.StrategySequential, trip, l1, l2, l3))
			}
		}
	}
	return result
}

// RoundTrips combines an outer round trip (home and region A) with an inner
// one (region A and region B). Each trip's outbound i is paired with its
// return min(i, len-1), so a pair may mix halves of different fares.
func (b *Builder) RoundTrips(outer, inner models.LegSet, trip Trip) []models.Itinerary {
	outerPairs := b.pairs(outer)
	innerPairs := b.pairs(inner)
	if len(outerPairs) == 0 || len(innerPairs) == 0 {
		return nil
	}

	result := make([]models.Itinerary, 0, len(outerPairs)*len(innerPairs))
	for _, o := range outerPairs {
		for _, in := range innerPairs {
			result = append(result, b.itinerary(models.StrategyRoundTrips, trip, o[0], in[0], in[1], o[1]))
		}
	}
	return result
}

func (b *Builder) pairs(set models.LegSet) [][2]models.Leg {
	outbound, returns := b.head(set.Outbound), b.head(set.Return)
	if len(outbound) == 0 || len(returns) == 0 {
		return nil
	}

	pairs := make([][2]models.Leg, len(outbound))
	for i, out := range outbound {
		pairs[i] = [2]models.Leg{out, returns[min(i, len(returns)-1)]}
	}
	return pairs
}

func (b *Builder) head(legs []models.Leg) []models.Leg {
	if len(legs) > b.perLeg {
		return legs[:b.perLeg]
	}
	return legs
}

func (b *Builder) itinerary(strategy models.Strategy, trip Trip, legs ...models.Leg) models.Itinerary {
	return b.scorer.Score(models.Itinerary{
		Strategy:      strategy,
		Legs:          legs,
		Start:         trip.Start,
		End:           trip.End,
		RegionANights: trip.RegionANights,
		RegionBNights: trip.RegionBNights,
	})
}
