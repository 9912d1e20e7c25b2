package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

func baseLeg() models.Leg {
	return models.Leg{
		Origin:      "MXP",
		Destination: "HYD",
		Date:        models.MustParseDate("2026-05-24"),
		Carrier:     "Emirates",
		Duration:    "PT13H10M",
		Stops:       1,
		Price:       models.NewPrice(612),
		Layovers:    []models.Layover{{Airport: "DXB", Duration: 150}},
	}
}

func TestCheck(t *testing.T) {
	c := models.DefaultConstraints()

	tests := []struct {
		name   string
		mutate func(*models.Leg)
		want   Reason
	}{
		{"accepted", func(*models.Leg) {}, Accepted},
		{"two stops", func(l *models.Leg) { l.Stops = 2 }, TooManyStops},
		{"interline", func(l *models.Leg) { l.Carrier = "Emirates, flydubai" }, MultipleCarriers},
		{"long connection", func(l *models.Leg) { l.Layovers[0].Duration = 241 }, LayoverTooLong},
		{"exactly four hours", func(l *models.Leg) { l.Layovers[0].Duration = 240 }, Accepted},
		{"no timestamps", func(l *models.Leg) { l.Layovers = nil }, Accepted},
		{"unpriced", func(l *models.Leg) { l.Price = models.Unpriced() }, InvalidPrice},
		{"sandbox airline", func(l *models.Leg) { l.Carrier = "Duffel Airways" }, ExcludedCarrier},
		{"case insensitive denylist", func(l *models.Leg) { l.Carrier = "TEST carrier" }, ExcludedCarrier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := baseLeg()
			leg.Layovers = append([]models.Layover(nil), leg.Layovers...)
			tt.mutate(&leg)
			assert.Equal(t, tt.want, Check(leg, c))
		})
	}
}

func TestCheckWithCustomConstraints(t *testing.T) {
	c := models.Constraints{MaxStops: 0, MaxLayover: time.Hour}
	leg := baseLeg()
	assert.Equal(t, TooManyStops, Check(leg, c))

	leg.Stops = 0
	assert.Equal(t, LayoverTooLong, Check(leg, c))

	leg.Carrier = "Duffel Airways"
	leg.Layovers = nil
	assert.Equal(t, Accepted, Check(leg, c), "empty denylist excludes nothing")
}

func TestCheckReportsBaseRuleBeforeDenylist(t *testing.T) {
	leg := baseLeg()
	leg.Carrier = "Test Air"
	leg.Price = models.Unpriced()

	assert.False(t, leg.PassesConstraints(models.DefaultConstraints()))
	assert.Equal(t, InvalidPrice, Check(leg, models.DefaultConstraints()))
}

func TestApply(t *testing.T) {
	good := baseLeg()
	stops := baseLeg()
	stops.Stops = 3
	unpriced := baseLeg()
	unpriced.Price = models.Unpriced()
	second := baseLeg()
	second.Price = models.NewPrice(700)

	counts := make(map[Reason]int)
	got := Apply([]models.Leg{good, stops, unpriced, second}, models.DefaultConstraints(), counts)

	assert.Equal(t, []models.Leg{good, second}, got)
	assert.Equal(t, map[Reason]int{TooManyStops: 1, InvalidPrice: 1}, counts)
	assert.Empty(t, Apply(nil, models.DefaultConstraints(), nil))
}
