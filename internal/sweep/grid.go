package sweep

import (
	"sort"

	"github.com/dharmasatrya/flightsweep/internal/builder"
	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Route is the home airport and the two regions visited in order.
type Route struct {
	Home    string `mapstructure:"home" validate:"required,len=3,alpha"`
	RegionA string `mapstructure:"region_a" validate:"required,len=3,alpha"`
	RegionB string `mapstructure:"region_b" validate:"required,len=3,alpha"`
}

type Grid struct {
	DepartureDates []models.Date
	RegionANights  []int
	RegionBNights  []int
}

func (g Grid) Size() int {
	return len(g.DepartureDates) * len(g.RegionANights) * len(g.RegionBNights)
}

// Points lists the grid in departure, region A, region B order.
func (g Grid) Points() []Point {
	points := make([]Point, 0, g.Size())
	for _, d := range g.DepartureDates {
		for _, a := range g.RegionANights {
			for _, b := range g.RegionBNights {
				points = append(points, Point{Departure: d, RegionANights: a, RegionBNights: b})
			}
		}
	}
	return points
}

// Point is one (departure date, region A nights, region B nights)
// combination.
type Point struct {
	Departure     models.Date
	RegionANights int
	RegionBNights int
}

// SequentialDates are the three one-way travel dates. Arrival in region A is
// the day after departure; the flight home lands the day it leaves.
func (p Point) SequentialDates() (leg1, leg2, leg3 models.Date) {
	leg1 = p.Departure
	leg2 = p.Departure.AddDays(1 + p.RegionANights)
	leg3 = leg2.AddDays(p.RegionBNights)
	return leg1, leg2, leg3
}

func (p Point) SequentialTrip() builder.Trip {
	leg1, _, leg3 := p.SequentialDates()
	return builder.Trip{
		Start:         leg1,
		End:           leg3,
		RegionANights: p.RegionANights,
		RegionBNights: p.RegionBNights,
	}
}

// RoundTripDates are the outer trip's out and back dates and the inner
// trip's out and back dates. The outer return leaves region A the day after
// the inner trip comes back.
func (p Point) RoundTripDates() (outerOut, innerOut, innerBack, outerBack models.Date) {
	outerOut = p.Departure
	innerOut = p.Departure.AddDays(1 + p.RegionANights)
	innerBack = innerOut.AddDays(p.RegionBNights)
	outerBack = innerBack.AddDays(1)
	return outerOut, innerOut, innerBack, outerBack
}

// RoundTripTrip reports one more night in region A than the sequential trip
// because of the extra day before the outer return.
func (p Point) RoundTripTrip() builder.Trip {
	outerOut, _, _, outerBack := p.RoundTripDates()
	return builder.Trip{
		Start:         outerOut,
		End:           outerBack,
		RegionANights: p.RegionANights + 1,
		RegionBNights: p.RegionBNights,
	}
}

type searchFactory struct {
	route      Route
	passengers int
	cabin      string
}

func (f searchFactory) oneWay(origin, destination string, date models.Date) models.SearchRequest {
	return models.SearchRequest{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: date,
		Passengers:    f.passengers,
		CabinClass:    f.cabin,
	}
}

func (f searchFactory) roundTrip(origin, destination string, out, back models.Date) models.SearchRequest {
	req := f.oneWay(origin, destination, out)
	req.ReturnDate = &back
	return req
}

func (f searchFactory) sequential(p Point) [3]models.SearchRequest {
	leg1, leg2, leg3 := p.SequentialDates()
	r := f.route
	return [3]models.SearchRequest{
		f.oneWay(r.Home, r.RegionA, leg1),
		f.oneWay(r.RegionA, r.RegionB, leg2),
		f.oneWay(r.RegionB, r.Home, leg3),
	}
}

func (f searchFactory) roundTrips(p Point) (outer, inner models.SearchRequest) {
	outerOut, innerOut, innerBack, outerBack := p.RoundTripDates()
	r := f.route
	return f.roundTrip(r.Home, r.RegionA, outerOut, outerBack), f.roundTrip(r.RegionA, r.RegionB, innerOut, innerBack)
}

// Plan lists every distinct search a sweep over cfg needs: one-way searches
// first, then round trips, each sorted by route and date.
func Plan(cfg Config) []models.SearchRequest {
	cfg = cfg.withDefaults()
	f := searchFactory{route: cfg.Route, passengers: cfg.Passengers, cabin: cfg.CabinClass}

	seen := make(map[string]bool)
	var oneWays, roundTrips []models.SearchRequest
	add := func(dst *[]models.SearchRequest, req models.SearchRequest) {
		key := req.String()
		if seen[key] {
			return
		}
		seen[key] = true
		*dst = append(*dst, req)
	}

	for _, p := range cfg.Grid.Points() {
		if cfg.runs(models.StrategySequential) {
			for _, req := range f.sequential(p) {
				add(&oneWays, req)
			}
		}
		if cfg.runs(models.StrategyRoundTrips) {
			outer, inner := f.roundTrips(p)
			add(&roundTrips, outer)
			add(&roundTrips, inner)
		}
	}

	sortSearches(oneWays)
	sortSearches(roundTrips)
	return append(oneWays, roundTrips...)
}

func sortSearches(reqs []models.SearchRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		if !a.DepartureDate.Equal(b.DepartureDate) {
			return a.DepartureDate.Before(b.DepartureDate)
		}
		return returnDate(a).Before(returnDate(b))
	})
}

func returnDate(req models.SearchRequest) models.Date {
	if req.ReturnDate == nil {
		return models.Date{}
	}
	return *req.ReturnDate
}
