package models

import "time"

type LegRecord struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Date        Date    `json:"date"`
	Carrier     string  `json:"carrier"`
	Departure   string  `json:"departure"`
	Arrival     string  `json:"arrival"`
	Duration    string  `json:"duration"`
	Hours       float64 `json:"duration_hours"`
	Stops       int     `json:"stops"`
	Price       Price   `json:"price"`
	Score       float64 `json:"score"`
	Source      string  `json:"source"`
}

// ItineraryRecord is the exported shape of a ranked itinerary.
type ItineraryRecord struct {
	Rank          int         `json:"rank"`
	Strategy      Strategy    `json:"strategy"`
	TotalScore    float64     `json:"total_score"`
	FlightTotal   float64     `json:"flight_total"`
	FlightScore   float64     `json:"flight_score"`
	AbsenceCost   float64     `json:"absence_cost"`
	StartDate     Date        `json:"start_date"`
	EndDate       Date        `json:"end_date"`
	RegionANights int         `json:"region_a_nights"`
	RegionBNights int         `json:"region_b_nights"`
	Weekdays      int         `json:"weekdays"`
	TotalHours    float64     `json:"total_hours"`
	TotalStops    int         `json:"total_stops"`
	Legs          []LegRecord `json:"legs"`
}

func NewLegRecord(leg Leg, w Weights) LegRecord {
	return LegRecord{
		Origin:      leg.Origin,
		Destination: leg.Destination,
		Date:        leg.Date,
		Carrier:     leg.Carrier,
		Departure:   leg.Departure,
		Arrival:     leg.Arrival,
		Duration:    leg.Duration,
		Hours:       leg.Hours(),
		Stops:       leg.Stops,
		Price:       leg.Price,
		Score:       leg.Score(w),
		Source:      leg.Source,
	}
}

func NewLegRecords(legs []Leg, w Weights) []LegRecord {
	records := make([]LegRecord, len(legs))
	for i, leg := range legs {
		records[i] = NewLegRecord(leg, w)
	}
	return records
}

func NewItineraryRecord(rank int, it Itinerary, w Weights) ItineraryRecord {
	return ItineraryRecord{
		Rank:          rank,
		Strategy:      it.Strategy,
		TotalScore:    it.Score.Total,
		FlightTotal:   it.Score.FlightTotal,
		FlightScore:   it.Score.FlightScore,
		AbsenceCost:   it.Score.AbsenceCost,
		StartDate:     it.Start,
		EndDate:       it.End,
		RegionANights: it.RegionANights,
		RegionBNights: it.RegionBNights,
		Weekdays:      it.Weekdays,
		TotalHours:    it.TotalHours(),
		TotalStops:    it.TotalStops(),
		Legs:          NewLegRecords(it.Legs, w),
	}
}

func NewItineraryRecords(its []Itinerary, w Weights) []ItineraryRecord {
	records := make([]ItineraryRecord, len(its))
	for i, it := range its {
		records[i] = NewItineraryRecord(i+1, it, w)
	}
	return records
}

type SkipRecord struct {
	DepartureDate Date     `json:"departure_date"`
	RegionANights int      `json:"region_a_nights"`
	RegionBNights int      `json:"region_b_nights"`
	Strategy      Strategy `json:"strategy"`
	Reason        string   `json:"reason"`
}

type SweepMetadata struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	DurationMs       int64     `json:"duration_ms"`
	Offline          bool      `json:"offline"`
	GridPoints       int       `json:"grid_points"`
	GridPointsScored int       `json:"grid_points_scored"`
	Skipped          int       `json:"skipped"`
	SkippedRuns      int       `json:"skipped_strategy_runs"`
	Considered       int       `json:"itineraries_considered"`
	Weights          Weights   `json:"weights"`
}

type SweepResponse struct {
	Metadata    SweepMetadata     `json:"metadata"`
	Itineraries []ItineraryRecord `json:"itineraries"`
	Skips       []SkipRecord      `json:"skips,omitempty"`
}

type SearchMetadata struct {
	SourcesQueried   int            `json:"sources_queried"`
	SourcesSucceeded int            `json:"sources_succeeded"`
	SourcesFailed    int            `json:"sources_failed"`
	FailedSources    []string       `json:"failed_sources,omitempty"`
	CacheHits        int            `json:"cache_hits"`
	Decoded          int            `json:"decoded"`
	Rejected         map[string]int `json:"rejected,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	SearchTimeMs     int64          `json:"search_time_ms"`
}

// SearchResponse carries the ranked candidates of one search.
type SearchResponse struct {
	Request  SearchRequest  `json:"request"`
	Metadata SearchMetadata `json:"metadata"`
	Outbound []LegRecord    `json:"outbound"`
	Return   []LegRecord    `json:"return,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
