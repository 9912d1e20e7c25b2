package filter

import (
	"strings"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Reason names the first constraint a leg failed. The empty Reason means the
// leg is accepted.
type Reason string

const (
	Accepted         Reason = ""
	TooManyStops     Reason = "too_many_stops"
	MultipleCarriers Reason = "multiple_carriers"
	LayoverTooLong   Reason = "layover_too_long"
	InvalidPrice     Reason = "invalid_price"
	ExcludedCarrier  Reason = "excluded_carrier"
)

// Check evaluates every hard constraint. Legs with no layover data skip the
// layover check.
func Check(leg models.Leg, c models.Constraints) Reason {
	if !leg.PassesConstraints(c) {
		return baseReason(leg, c)
	}

	if matchesExcluded(leg.Carrier, c.ExcludedCarriers) {
		return ExcludedCarrier
	}

	if longest, known := leg.MaxLayover(); known && longest > c.MaxLayover {
		return LayoverTooLong
	}

	return Accepted
}

// baseReason names which of the leg model's own rules failed.
func baseReason(leg models.Leg, c models.Constraints) Reason {
	switch {
	case leg.Stops > c.MaxStops:
		return TooManyStops
	case !leg.SingleCarrier():
		return MultipleCarriers
	default:
		return InvalidPrice
	}
}

// Apply keeps the legs that pass, preserving order. Rejections are tallied
// per reason when counts is non-nil.
func Apply(legs []models.Leg, c models.Constraints, counts map[Reason]int) []models.Leg {
	result := make([]models.Leg, 0, len(legs))

	for _, leg := range legs {
		reason := Check(leg, c)
		if reason != Accepted {
			if counts != nil {
				counts[reason]++
			}
			continue
		}
		result = append(result, leg)
	}

	return result
}

func matchesExcluded(carrier string, fragments []string) bool {
	name := strings.ToLower(carrier)
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		if strings.Contains(name, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}
