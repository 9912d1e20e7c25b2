package builder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/ranking"
)

func legs(origin, destination, date string, n int, base float64) []models.Leg {
	out := make([]models.Leg, n)
	for i := range out {
		out[i] = models.Leg{
			Origin:      origin,
			Destination: destination,
			Date:        models.MustParseDate(date),
			Carrier:     fmt.Sprintf("%s-%s carrier %d", origin, destination, i),
			Duration:    "10 hr",
			Price:       models.NewPrice(base + float64(i)*25),
			Source:      "duffel",
		}
	}
	return out
}

// 2026-04-24, A=21, B=5: leg2 = 04-24 + 1 + 21 = 05-16, leg3 = 05-21.
func sequentialTrip() Trip {
	return Trip{
		Start:         models.MustParseDate("2026-04-24"),
		End:           models.MustParseDate("2026-05-21"),
		RegionANights: 21,
		RegionBNights: 5,
	}
}

func newTestBuilder() *Builder {
	return New(ranking.NewScorer(models.DefaultWeights()), DefaultPerLeg)
}

func TestSequentialFiveByFiveByFive(t *testing.T) {
	b := newTestBuilder()
	first := legs("SEA", "MXP", "2026-04-24", 5, 600)
	second := legs("MXP", "HYD", "2026-05-16", 5, 400)
	third := legs("HYD", "SEA", "2026-05-21", 5, 900)

	its := b.Sequential(first, second, third, sequentialTrip())
	require.Len(t, its, 125)

	top := ranking.Top(its, 10)
	assert.Len(t, top, 10)
	assert.Equal(t, first[0], top[0].Legs[0])
	assert.Equal(t, second[0], top[0].Legs[1])
	assert.Equal(t, third[0], top[0].Legs[2])
}

func TestSequentialNestedLoopOrder(t *testing.T) {
	b := newTestBuilder()
	first := legs("SEA", "MXP", "2026-04-24", 2, 600)
	second := legs("MXP", "HYD", "2026-05-16", 2, 400)
	third := legs("HYD", "SEA", "2026-05-21", 2, 900)

	its := b.Sequential(first, second, third, sequentialTrip())
	require.Len(t, its, 8)

	idx := 0
	for i := range first {
		for j := range second {
			for k := range third {
				assert.Equal(t, []models.Leg{first[i], second[j], third[k]}, its[idx].Legs, "position %d", idx)
				idx++
			}
		}
	}
}

func TestSequentialUsesOnlyTopPerLeg(t *testing.T) {
	b := newTestBuilder()
	first := legs("SEA", "MXP", "2026-04-24", 20, 600)
	second := legs("MXP", "HYD", "2026-05-16", 7, 400)
	third := legs("HYD", "SEA", "2026-05-21", 5, 900)

	its := b.Sequential(first, second, third, sequentialTrip())
	require.Len(t, its, 125)
	for _, it := range its {
		assert.Contains(t, first[:5], it.Legs[0])
	}

	small := New(ranking.NewScorer(models.DefaultWeights()), 2)
	assert.Len(t, small.Sequential(first, second, third, sequentialTrip()), 8)
	assert.Equal(t, DefaultPerLeg, New(ranking.Scorer{}, 0).PerLeg())
}

func TestSequentialEmptyListFailsClosed(t *testing.T) {
	b := newTestBuilder()
	full := legs("SEA", "MXP", "2026-04-24", 5, 600)

	assert.Empty(t, b.Sequential(nil, full, full, sequentialTrip()))
	assert.Empty(t, b.Sequential(full, []models.Leg{}, full, sequentialTrip()))
	assert.Empty(t, b.Sequential(full, full, nil, sequentialTrip()))
}

func TestSequentialScoresAndValidates(t *testing.T) {
	b := newTestBuilder()
	w := models.DefaultWeights()
	its := b.Sequential(
		legs("SEA", "MXP", "2026-04-24", 3, 600),
		legs("MXP", "HYD", "2026-05-16", 3, 400),
		legs("HYD", "SEA", "2026-05-21", 3, 900),
		sequentialTrip(),
	)

	for _, it := range its {
		require.NoError(t, it.Validate())
		assert.Equal(t, models.StrategySequential, it.Strategy)
		assert.Equal(t, 21, it.RegionANights)
		assert.Equal(t, 5, it.RegionBNights)

		sum := 0.0
		for _, leg := range it.Legs {
			sum += leg.Score(w)
		}
		assert.Equal(t, sum+float64(it.Weekdays)*w.CostPerWeekday, it.Score.Total)
		assert.Equal(t, ranking.CountWeekdays(it.Start, it.End), it.Weekdays)
	}
}

// 2026-04-24, A=21, B=5: rt2 out 05-16, rt2 back 05-21, rt1 back 05-22.
func roundTripTrip() Trip {
	return Trip{
		Start:         models.MustParseDate("2026-04-24"),
		End:           models.MustParseDate("2026-05-22"),
		RegionANights: 22,
		RegionBNights: 5,
	}
}

func TestRoundTripsFiveByFive(t *testing.T) {
	b := newTestBuilder()
	outer := models.LegSet{
		Outbound: legs("SEA", "MXP", "2026-04-24", 8, 500),
		Return:   legs("MXP", "SEA", "2026-05-22", 8, 500),
	}
	inner := models.LegSet{
		Outbound: legs("MXP", "HYD", "2026-05-16", 5, 300),
		Return:   legs("HYD", "MXP", "2026-05-21", 5, 300),
	}

	its := b.RoundTrips(outer, inner, roundTripTrip())
	require.Len(t, its, 25)

	for _, it := range its {
		require.NoError(t, it.Validate())
		assert.Equal(t, models.StrategyRoundTrips, it.Strategy)
		require.Len(t, it.Legs, 4)
		assert.Equal(t, "SEA", it.Legs[0].Origin)
		assert.Equal(t, "MXP", it.Legs[1].Origin)
		assert.Equal(t, "HYD", it.Legs[2].Origin)
		assert.Equal(t, "MXP", it.Legs[3].Origin)
		assert.Equal(t, "SEA", it.Legs[3].Destination)
	}
}

func TestRoundTripsPairByIndexWithClamp(t *testing.T) {
	b := newTestBuilder()
	outer := models.LegSet{
		Outbound: legs("SEA", "MXP", "2026-04-24", 5, 500),
		Return:   legs("MXP", "SEA", "2026-05-22", 2, 500),
	}
	inner := models.LegSet{
		Outbound: legs("MXP", "HYD", "2026-05-16", 1, 300),
		Return:   legs("HYD", "MXP", "2026-05-21", 1, 300),
	}

	its := b.RoundTrips(outer, inner, roundTripTrip())
	require.Len(t, its, 5)

	wantReturn := []int{0, 1, 1, 1, 1}
	for i, it := range its {
		assert.Equal(t, outer.Outbound[i], it.Legs[0])
		assert.Equal(t, outer.Return[wantReturn[i]], it.Legs[3], "outbound %d", i)
	}
}

// Pairing by index and splitting each fare in half are approximations: the
// outbound and return of a built pair may come from different offers, so its
// price need not match any bookable fare.
func TestRoundTripPairingIsAnApproximation(t *testing.T) {
	b := newTestBuilder()
	date := func(s string) models.Date { return models.MustParseDate(s) }

	// Offer X: 1000 total, split 500/500. Offer Y: 600 total, split 300/300.
	// X's outbound ranks first; only Y's return survived the filter.
	outer := models.LegSet{
		Outbound: []models.Leg{
			{Origin: "SEA", Destination: "MXP", Date: date("2026-04-24"), Carrier: "Delta", Duration: "10 hr", Price: models.NewPrice(1000).Half()},
			{Origin: "SEA", Destination: "MXP", Date: date("2026-04-24"), Carrier: "Delta", Duration: "20 hr", Price: models.NewPrice(600).Half()},
		},
		Return: []models.Leg{
			{Origin: "MXP", Destination: "SEA", Date: date("2026-05-22"), Carrier: "Delta", Duration: "10 hr", Price: models.NewPrice(600).Half()},
		},
	}
	inner := models.LegSet{
		Outbound: legs("MXP", "HYD", "2026-05-16", 1, 300),
		Return:   legs("HYD", "MXP", "2026-05-21", 1, 300),
	}

	its := b.RoundTrips(outer, inner, roundTripTrip())
	require.Len(t, its, 2)

	assert.Equal(t, 500.0, its[0].Legs[0].Price.Amount())
	assert.Equal(t, 300.0, its[0].Legs[3].Price.Amount())
	assert.Equal(t, 800.0, its[0].Legs[0].Price.Amount()+its[0].Legs[3].Price.Amount(),
		"pair costs 800 although the real fares are 1000 and 600")
}

func TestRoundTripsEmptyListFailsClosed(t *testing.T) {
	b := newTestBuilder()
	full := models.LegSet{
		Outbound: legs("SEA", "MXP", "2026-04-24", 5, 500),
		Return:   legs("MXP", "SEA", "2026-05-22", 5, 500),
	}

	assert.Empty(t, b.RoundTrips(full, models.LegSet{Outbound: full.Outbound}, roundTripTrip()))
	assert.Empty(t, b.RoundTrips(models.LegSet{Return: full.Return}, full, roundTripTrip()))
	assert.Empty(t, b.RoundTrips(models.LegSet{}, models.LegSet{}, roundTripTrip()))
}

func TestBuiltItinerariesDoNotShareLegSlices(t *testing.T) {
	b := newTestBuilder()
	its := b.Sequential(
		legs("SEA", "MXP", "2026-04-24", 2, 600),
		legs("MXP", "HYD", "2026-05-16", 1, 400),
		legs("HYD", "SEA", "2026-05-21", 1, 900),
		sequentialTrip(),
	)
	require.Len(t, its, 2)

	its[0].Legs[1].Carrier = "changed"
	assert.NotEqual(t, "changed", its[1].Legs[1].Carrier)
}
