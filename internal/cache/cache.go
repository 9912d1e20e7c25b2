package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

// Store keeps raw provider responses. A miss is (nil, false, nil); err is
// reserved for a store that could not be read.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Set(ctx context.Context, key Key, blob []byte) error
	Close() error
}

// Key identifies one provider search.
type Key struct {
	Source      string
	Origin      string
	Destination string
	Date        models.Date
	ReturnDate  *models.Date
}

func NewKey(source string, req models.SearchRequest) Key {
	k := Key{
		Source:      source,
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.DepartureDate,
	}
	if req.Kind() == models.RoundTrip {
		ret := *req.ReturnDate
		k.ReturnDate = &ret
	}
	return k
}

// String is <source>_<orig>_<dest>_<date>[_rt_<return>].
func (k Key) String() string {
	s := fmt.Sprintf("%s_%s_%s_%s", k.Source, k.Origin, k.Destination, k.Date)
	if k.ReturnDate != nil && !k.ReturnDate.IsZero() {
		s += "_rt_" + k.ReturnDate.String()
	}
	return s
}

func (k Key) FileName() string {
	return k.String() + ".json"
}

// Envelope is what gets stored: the provider body verbatim plus enough
// context to tell where it came from.
type Envelope struct {
	Source      string          `json:"source"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Date        models.Date     `json:"date"`
	ReturnDate  *models.Date    `json:"return_date"`
	FetchedAt   time.Time       `json:"fetched_at"`
	Data        json.RawMessage `json:"data"`
}

// Wrap builds the stored form of a provider body. raw must be valid JSON.
func Wrap(key Key, raw []byte, fetchedAt time.Time) ([]byte, error) {
	env := Envelope{
		Source:      key.Source,
		Origin:      key.Origin,
		Destination: key.Destination,
		Date:        key.Date,
		ReturnDate:  key.ReturnDate,
		FetchedAt:   fetchedAt.UTC(),
		Data:        json.RawMessage(raw),
	}

	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wrap %s: %w", key, err)
	}
	return blob, nil
}

func Unwrap(blob []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return Envelope{}, fmt.Errorf("unwrap cache entry: %w", err)
	}
	return env, nil
}

type NoOpStore struct{}

func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

func (s *NoOpStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoOpStore) Set(ctx context.Context, key Key, blob []byte) error {
	return nil
}

func (s *NoOpStore) Close() error {
	return nil
}
