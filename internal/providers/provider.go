package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Source is one flight-pricing provider. Fetch returns the provider's raw
// response body so it can be cached verbatim; Decode turns such a body back
// into legs and never fails.
type Source interface {
	Name() string
	Supports(kind models.TripKind) bool
	Fetch(ctx context.Context, req models.SearchRequest) ([]byte, error)
	Decode(req models.SearchRequest, raw []byte) models.LegSet
}

var (
	ErrUnsupportedTrip = errors.New("trip kind not supported by source")
	ErrNotConfigured   = errors.New("source is not configured")
)

type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}
