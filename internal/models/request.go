package models

import "fmt"

type TripKind string

const (
	OneWay    TripKind = "one_way"
	RoundTrip TripKind = "round_trip"
)

type SearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate Date   `json:"departure_date"`
	ReturnDate    *Date  `json:"return_date,omitempty"`
	Passengers    int    `json:"passengers"`
	CabinClass    string `json:"cabin_class"`
}

func (r SearchRequest) Kind() TripKind {
	if r.ReturnDate != nil && !r.ReturnDate.IsZero() {
		return RoundTrip
	}
	return OneWay
}

func (r SearchRequest) String() string {
	if r.Kind() == RoundTrip {
		return fmt.Sprintf("%s<->%s %s/%s", r.Origin, r.Destination, r.DepartureDate, r.ReturnDate)
	}
	return fmt.Sprintf("%s->%s %s", r.Origin, r.Destination, r.DepartureDate)
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.DepartureDate.IsZero() {
		return ErrMissingDepartureDate
	}
	if r.ReturnDate != nil && r.ReturnDate.Before(r.DepartureDate) {
		return ErrReturnBeforeDeparture
	}
	if r.Passengers <= 0 {
		r.Passengers = 1
	}
	if r.CabinClass == "" {
		r.CabinClass = "economy"
	}
	return nil
}

// LegSet is what one search yields. Return is empty for one-way searches.
type LegSet struct {
	Outbound []Leg
	Return   []Leg
}

func (s LegSet) Len() int {
	return len(s.Outbound) + len(s.Return)
}

// SweepRequest overrides parts of the configured grid for one API call.
type SweepRequest struct {
	DepartureDates []string `json:"departure_dates,omitempty"`
	RegionANights  []int    `json:"region_a_nights,omitempty"`
	RegionBNights  []int    `json:"region_b_nights,omitempty"`
	Weights        *Weights `json:"weights,omitempty"`
	TopN           int      `json:"top_n,omitempty"`
	Offline        *bool    `json:"offline,omitempty"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrReturnBeforeDeparture ValidationError = "return_date precedes departure_date"
)
