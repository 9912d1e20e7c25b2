package providers

import (
	"github.com/dharmasatrya/flightsweep/internal/filter"
	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/ranking"
)

const DefaultTopK = 20

// Adapter turns decoded provider legs into candidate lists: each leg is
// checked against the constraints on its own, then the survivors are ranked
// by score and cut to the top K.
type Adapter struct {
	constraints models.Constraints
	scorer      ranking.Scorer
	topK        int
}

func NewAdapter(c models.Constraints, scorer ranking.Scorer, topK int) *Adapter {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Adapter{
		constraints: c,
		scorer:      scorer,
		topK:        topK,
	}
}

// Normalized is the candidate list for one search plus the tally of legs the
// constraint filter turned away.
type Normalized struct {
	Legs     models.LegSet
	Decoded  int
	Rejected map[filter.Reason]int
}

// Normalize merges the legs every source produced for one search.
func (a *Adapter) Normalize(sets ...models.LegSet) Normalized {
	var outbound, inbound []models.Leg
	decoded := 0
	for _, set := range sets {
		outbound = append(outbound, set.Outbound...)
		inbound = append(inbound, set.Return...)
		decoded += set.Len()
	}

	rejected := make(map[filter.Reason]int)
	outbound = filter.Apply(outbound, a.constraints, rejected)
	inbound = filter.Apply(inbound, a.constraints, rejected)

	result := Normalized{
		Decoded:  decoded,
		Rejected: rejected,
		Legs: models.LegSet{
			Outbound: a.scorer.TopLegs(outbound, a.topK),
		},
	}
	if len(inbound) > 0 {
		result.Legs.Return = a.scorer.TopLegs(inbound, a.topK)
	}

	return result
}
