package models

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightsweep/pkg/currency"
)

// Price is either a finite non-negative amount or unpriced. The zero value
// is unpriced.
type Price struct {
	amount float64
	valid  bool
}

func NewPrice(amount float64) Price {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Unpriced()
	}
	return Price{amount: amount, valid: true}
}

func Unpriced() Price {
	return Price{}
}

// ParsePrice never fails; anything it cannot read is unpriced.
func ParsePrice(s string) Price {
	amount, ok := currency.ParseUSD(s)
	if !ok {
		return Unpriced()
	}
	return NewPrice(amount)
}

func (p Price) Valid() bool { return p.valid }

// Amount is +Inf for an unpriced value so that it always sorts last.
func (p Price) Amount() float64 {
	if !p.valid {
		return math.Inf(1)
	}
	return p.amount
}

// String renders the canonical "$<n>" form accepted by ParsePrice.
func (p Price) String() string {
	if !p.valid {
		return "unpriced"
	}
	return "$" + strconv.FormatFloat(p.amount, 'f', -1, 64)
}

// Half splits a round-trip fare across its two slices.
func (p Price) Half() Price {
	if !p.valid {
		return p
	}
	return NewPrice(p.amount / 2)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.amount)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var amount *float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	if amount == nil {
		*p = Unpriced()
		return nil
	}
	*p = NewPrice(*amount)
	return nil
}

type Layover struct {
	Airport  string `json:"airport"`
	Duration int    `json:"duration_minutes"`
}

// Leg is one priced directional flight between two airports on one day.
// Legs are values; nothing mutates a Leg after a provider decodes it.
type Leg struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        Date      `json:"date"`
	Carrier     string    `json:"carrier"`
	Departure   string    `json:"departure"`
	Arrival     string    `json:"arrival"`
	Duration    string    `json:"duration"`
	Stops       int       `json:"stops"`
	Price       Price     `json:"price"`
	Source      string    `json:"source"`
	Layovers    []Layover `json:"layovers,omitempty"`
}

// Carriers lists the distinct names in the comma separated carrier field.
func (l Leg) Carriers() []string {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(l.Carrier, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (l Leg) SingleCarrier() bool {
	return len(l.Carriers()) == 1 && !strings.Contains(l.Carrier, ",")
}

// MaxLayover reports the longest connection, or false when the provider gave
// no segment timestamps.
func (l Leg) MaxLayover() (time.Duration, bool) {
	if len(l.Layovers) == 0 {
		return 0, false
	}
	longest := 0
	for _, lay := range l.Layovers {
		if lay.Duration > longest {
			longest = lay.Duration
		}
	}
	return time.Duration(longest) * time.Minute, true
}

func (l Leg) Hours() float64 {
	return DurationHours(l.Duration)
}

func (l Leg) PassesConstraints(c Constraints) bool {
	if l.Stops > c.MaxStops {
		return false
	}
	if !l.SingleCarrier() {
		return false
	}
	return l.Price.Valid()
}

// Score is the convenience-adjusted cost of flying this leg.
func (l Leg) Score(w Weights) float64 {
	return l.Price.Amount() + l.Hours()*w.CostPerHour + float64(l.Stops)*w.CostPerStop
}

var (
	textHours   = regexp.MustCompile(`(\d+)\s*hr`)
	textMinutes = regexp.MustCompile(`(\d+)\s*min`)
	isoDays     = regexp.MustCompile(`(\d+)D`)
	isoHours    = regexp.MustCompile(`(\d+)H`)
	isoMinutes  = regexp.MustCompile(`(\d+)M`)
	isoDuration = regexp.MustCompile(`^P(\d+D)?(T(\d+H)?(\d+M)?(\d+S)?)?$`)
)

// DurationHours reads "16 hr 30 min" or ISO-8601 "PT16H30M". Missing parts
// count as zero and unreadable input is 0.
func DurationHours(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if iso := strings.ToUpper(s); isoDuration.MatchString(iso) {
		datePart, timePart, _ := strings.Cut(iso, "T")
		return float64(firstInt(isoDays, datePart)*24+firstInt(isoHours, timePart)) +
			float64(firstInt(isoMinutes, timePart))/60
	}

	return float64(firstInt(textHours, s)) + float64(firstInt(textMinutes, s))/60
}

// FormatDuration renders hours back into the "H hr M min" form.
func FormatDuration(hours float64) string {
	total := int(math.Round(hours * 60))
	h, m := total/60, total%60
	switch {
	case h > 0 && m > 0:
		return strconv.Itoa(h) + " hr " + strconv.Itoa(m) + " min"
	case h > 0:
		return strconv.Itoa(h) + " hr"
	case m > 0:
		return strconv.Itoa(m) + " min"
	}
	return ""
}

func firstInt(re *regexp.Regexp, s string) int {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}
