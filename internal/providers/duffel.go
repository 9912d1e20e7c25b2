package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/internal/timezone"
)

const (
	DuffelName          = "duffel"
	DuffelRoundTripName = "duffel_rt"
	DefaultDuffelURL    = "https://api.duffel.com"
	duffelVersion       = "v2"
)

// Offers stay raw so that one malformed offer does not discard the rest.
type duffelResponse struct {
	Data struct {
		Offers []json.RawMessage `json:"offers"`
	} `json:"data"`
}

type duffelOffer struct {
	ID            string        `json:"id"`
	TotalAmount   duffelAmount  `json:"total_amount"`
	TotalCurrency string        `json:"total_currency"`
	Slices        []duffelSlice `json:"slices"`
}

type duffelSlice struct {
	Duration string          `json:"duration"`
	Segments []duffelSegment `json:"segments"`
}

type duffelSegment struct {
	MarketingCarrier duffelCarrier `json:"marketing_carrier"`
	FlightNumber     string        `json:"marketing_carrier_flight_number"`
	Origin           duffelPlace   `json:"origin"`
	Destination      duffelPlace   `json:"destination"`
	DepartingAt      string        `json:"departing_at"`
	ArrivingAt       string        `json:"arriving_at"`
	Duration         string        `json:"duration"`
}

type duffelCarrier struct {
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
}

type duffelPlace struct {
	IATACode string `json:"iata_code"`
}

// duffelAmount accepts the API's decimal strings as well as plain numbers.
type duffelAmount string

func (a *duffelAmount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = duffelAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = duffelAmount(n.String())
	return nil
}

type duffelOfferRequest struct {
	Data duffelOfferRequestData `json:"data"`
}

type duffelOfferRequestData struct {
	Slices     []duffelRequestSlice `json:"slices"`
	Passengers []duffelPassenger    `json:"passengers"`
	CabinClass string               `json:"cabin_class"`
}

type duffelRequestSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassenger struct {
	Type string `json:"type"`
}

type DuffelConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type DuffelProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDuffelProvider(cfg DuffelConfig) *DuffelProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultDuffelURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DuffelProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *DuffelProvider) Name() string {
	return DuffelName
}

func (p *DuffelProvider) Supports(models.TripKind) bool {
	return true
}

func (p *DuffelProvider) Fetch(ctx context.Context, req models.SearchRequest) ([]byte, error) {
	if p.apiKey == "" {
		return nil, NewProviderError(p.Name(), ErrNotConfigured)
	}

	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/air/offer_requests?return_offers=true", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Duffel-Version", duffelVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

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

	if !json.Valid(raw) {
		return nil, NewProviderError(p.Name(), errors.New("malformed response body"))
	}

	return raw, nil
}

func (p *DuffelProvider) buildRequest(req models.SearchRequest) duffelOfferRequest {
	slices := []duffelRequestSlice{{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate.String(),
	}}
	if req.Kind() == models.RoundTrip {
		slices = append(slices, duffelRequestSlice{
			Origin:        req.Destination,
			Destination:   req.Origin,
			DepartureDate: req.ReturnDate.String(),
		})
	}

	passengers := req.Passengers
	if passengers <= 0 {
		passengers = 1
	}
	pax := make([]duffelPassenger, passengers)
	for i := range pax {
		pax[i] = duffelPassenger{Type: "adult"}
	}

	cabin := req.CabinClass
	if cabin == "" {
		cabin = "economy"
	}

	return duffelOfferRequest{Data: duffelOfferRequestData{
		Slices:     slices,
		Passengers: pax,
		CabinClass: cabin,
	}}
}

// Decode maps one-way offers to one leg each and round-trip offers to an
// outbound and a return leg that each carry half the total fare. Airlines do
// not publish a separable price for either half.
func (p *DuffelProvider) Decode(req models.SearchRequest, raw []byte) models.LegSet {
	var resp duffelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.LegSet{}
	}

	var set models.LegSet
	for _, entry := range resp.Data.Offers {
		var offer duffelOffer
		if err := json.Unmarshal(entry, &offer); err != nil {
			continue
		}
		if offer.TotalAmount == "" {
			continue
		}
		price := models.ParsePrice(string(offer.TotalAmount))

		if req.Kind() == models.RoundTrip {
			if len(offer.Slices) != 2 {
				continue
			}
			half := price.Half()
			if out, ok := p.normalize(offer.Slices[0], req.Origin, req.Destination, req.DepartureDate, half, DuffelRoundTripName); ok {
				set.Outbound = append(set.Outbound, out)
			}
			if back, ok := p.normalize(offer.Slices[1], req.Destination, req.Origin, *req.ReturnDate, half, DuffelRoundTripName); ok {
				set.Return = append(set.Return, back)
			}
			continue
		}

		if len(offer.Slices) == 0 {
			continue
		}
		if leg, ok := p.normalize(offer.Slices[0], req.Origin, req.Destination, req.DepartureDate, price, DuffelName); ok {
			set.Outbound = append(set.Outbound, leg)
		}
	}

	return set
}

func (p *DuffelProvider) normalize(s duffelSlice, origin, destination string, date models.Date, price models.Price, source string) (models.Leg, bool) {
	if len(s.Segments) == 0 || s.Duration == "" {
		return models.Leg{}, false
	}

	var carriers []string
	seen := make(map[string]bool)
	for _, seg := range s.Segments {
		name := seg.MarketingCarrier.Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		carriers = append(carriers, name)
	}

	var layovers []models.Layover
	for i := 0; i < len(s.Segments)-1; i++ {
		gap, ok := timezone.Gap(s.Segments[i].ArrivingAt, s.Segments[i+1].DepartingAt)
		if !ok {
			continue
		}
		layovers = append(layovers, models.Layover{
			Airport:  s.Segments[i].Destination.IATACode,
			Duration: int(gap.Minutes()),
		})
	}

	first, last := s.Segments[0], s.Segments[len(s.Segments)-1]

	return models.Leg{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		Carrier:     strings.Join(carriers, ", "),
		Departure:   timezone.FormatDisplay(first.DepartingAt, first.Origin.IATACode),
		Arrival:     timezone.FormatDisplay(last.ArrivingAt, last.Destination.IATACode),
		Duration:    models.FormatDuration(models.DurationHours(s.Duration)),
		Stops:       len(s.Segments) - 1,
		Price:       price,
		Source:      source,
		Layovers:    layovers,
	}, true
}
