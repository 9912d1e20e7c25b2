package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

const GoogleName = "google"

// googleResponse is the flat list produced by the Google Flights scraper
// bridge: display strings only, no segment timestamps.
type googleResponse struct {
	Flights []json.RawMessage `json:"flights"`
	Error   string         `json:"error,omitempty"`
}

type googleFlight struct {
	Airline   string     `json:"airline"`
	Price     string     `json:"price"`
	Duration  string     `json:"duration"`
	Stops     *googleInt `json:"stops"`
	Departure string     `json:"departure"`
	Arrival   string     `json:"arrival"`
	IsBest    bool       `json:"is_best"`
}

var errBadStops = errors.New("stops is not a non-negative integer")

// googleInt reads the scraper's stop count, which is sometimes the string
// "Unknown". A flight without a usable count fails to decode.
type googleInt int

func (n *googleInt) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return errBadStops
	}
	if i < 0 {
		return errBadStops
	}
	*n = googleInt(i)
	return nil
}

type GoogleConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// GoogleProvider reads one-way results from an HTTP bridge in front of the
// Google Flights scraper. Without an endpoint it can only decode cached
// responses.
type GoogleProvider struct {
	endpoint string
	client   *http.Client
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GoogleProvider{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *GoogleProvider) Name() string {
	return GoogleName
}

func (p *GoogleProvider) Supports(kind models.TripKind) bool {
	return kind == models.OneWay
}

func (p *GoogleProvider) Fetch(ctx context.Context, req models.SearchRequest) ([]byte, error) {
	if req.Kind() != models.OneWay {
		return nil, NewProviderError(p.Name(), ErrUnsupportedTrip)
	}
	if p.endpoint == "" {
		return nil, NewProviderError(p.Name(), ErrNotConfigured)
	}

	passengers := req.Passengers
	if passengers <= 0 {
		passengers = 1
	}
	q := url.Values{}
	q.Set("from", req.Origin)
	q.Set("to", req.Destination)
	q.Set("date", req.DepartureDate.String())
	q.Set("adults", strconv.Itoa(passengers))
	q.Set("seat", "economy")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/flights?"+q.Encode(), nil)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var check googleResponse
	if err := json.Unmarshal(raw, &check); err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	if check.Error != "" {
		return nil, NewProviderError(p.Name(), errors.New(check.Error))
	}

	return raw, nil
}

func (p *GoogleProvider) Decode(req models.SearchRequest, raw []byte) models.LegSet {
	if req.Kind() != models.OneWay {
		return models.LegSet{}
	}

	var resp googleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.LegSet{}
	}

	var set models.LegSet
	for _, entry := range resp.Flights {
		var f googleFlight
		if err := json.Unmarshal(entry, &f); err != nil || f.Stops == nil {
			continue
		}
		if f.Price == "" {
			continue
		}
		carrier := f.Airline
		if carrier == "" {
			carrier = "Unknown"
		}
		set.Outbound = append(set.Outbound, models.Leg{
			Origin:      req.Origin,
			Destination: req.Destination,
			Date:        req.DepartureDate,
			Carrier:     carrier,
			Departure:   f.Departure,
			Arrival:     f.Arrival,
			Duration:    f.Duration,
			Stops:       int(*f.Stops),
			Price:       models.ParsePrice(f.Price),
			Source:      p.Name(),
		})
	}

	return set
}
