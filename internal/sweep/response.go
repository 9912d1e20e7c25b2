package sweep

import "github.com/dharmasatrya/flightsweep/internal/models"

// Records ranks the kept itineraries from 1.
func (r *Result) Records() []models.ItineraryRecord {
	return models.NewItineraryRecords(r.Itineraries, r.Weights)
}

func (r *Result) Response(offline bool) models.SweepResponse {
	skips := make([]models.SkipRecord, len(r.Skips))
	for i, s := range r.Skips {
		skips[i] = models.SkipRecord{
			DepartureDate: s.Point.Departure,
			RegionANights: s.Point.RegionANights,
			RegionBNights: s.Point.RegionBNights,
			Strategy:      s.Strategy,
			Reason:        s.Reason,
		}
	}

	return models.SweepResponse{
		Metadata: models.SweepMetadata{
			RunID:            r.RunID,
			StartedAt:        r.StartedAt,
			DurationMs:       r.Duration.Milliseconds(),
			Offline:          offline,
			GridPoints:       r.GridPoints,
			GridPointsScored: r.Scored,
			Skipped:          r.Skipped,
			SkippedRuns:      len(r.Skips),
			Considered:       r.Considered,
			Weights:          r.Weights,
		},
		Itineraries: r.Records(),
		Skips:       skips,
	}
}
