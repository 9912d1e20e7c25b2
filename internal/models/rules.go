package models

import "time"

// Weights convert travel inconvenience into dollars.
type Weights struct {
	CostPerHour    float64 `json:"cost_per_hour" mapstructure:"cost_per_hour" validate:"gte=0"`
	CostPerStop    float64 `json:"cost_per_stop" mapstructure:"cost_per_stop" validate:"gte=0"`
	CostPerWeekday float64 `json:"cost_per_weekday" mapstructure:"cost_per_weekday" validate:"gte=0"`
}

func DefaultWeights() Weights {
	return Weights{
		CostPerHour:    20,
		CostPerStop:    200,
		CostPerWeekday: 200,
	}
}

// Constraints are the hard limits a leg must meet before it is considered.
type Constraints struct {
	MaxStops         int           `json:"max_stops" mapstructure:"max_stops" validate:"gte=0"`
	MaxLayover       time.Duration `json:"max_layover" mapstructure:"max_layover" validate:"gt=0"`
	ExcludedCarriers []string      `json:"excluded_carriers" mapstructure:"excluded_carriers"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxStops:         1,
		MaxLayover:       4 * time.Hour,
		ExcludedCarriers: []string{"Duffel", "Test"},
	}
}
