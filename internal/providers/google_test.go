package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightsweep/internal/models"
)

func TestGoogleFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flights", r.URL.Path)
		assert.Equal(t, "MXP", r.URL.Query().Get("from"))
		assert.Equal(t, "HYD", r.URL.Query().Get("to"))
		assert.Equal(t, "2026-05-24", r.URL.Query().Get("date"))
		assert.Equal(t, "1", r.URL.Query().Get("adults"))
		w.Write([]byte(`{"flights":[{"airline":"Emirates","price":"$1,234","duration":"16 hr 30 min","stops":1}]}`))
	}))
	defer server.Close()

	p := NewGoogleProvider(GoogleConfig{Endpoint: server.URL + "/"})
	req := models.SearchRequest{Origin: "MXP", Destination: "HYD", DepartureDate: models.MustParseDate("2026-05-24")}

	raw, err := p.Fetch(context.Background(), req)
	require.NoError(t, err)

	set := p.Decode(req, raw)
	require.Len(t, set.Outbound, 1)
	assert.Equal(t, models.NewPrice(1234), set.Outbound[0].Price)
}

func TestGoogleFetchErrors(t *testing.T) {
	req := models.SearchRequest{Origin: "MXP", Destination: "HYD", DepartureDate: models.MustParseDate("2026-05-24")}

	t.Run("no endpoint", func(t *testing.T) {
		_, err := NewGoogleProvider(GoogleConfig{}).Fetch(context.Background(), req)
		assert.True(t, errors.Is(err, ErrNotConfigured))
	})

	t.Run("round trip", func(t *testing.T) {
		p := NewGoogleProvider(GoogleConfig{Endpoint: "http://127.0.0.1:1"})
		assert.False(t, p.Supports(models.RoundTrip))

		_, err := p.Fetch(context.Background(), roundTripRequest())
		assert.True(t, errors.Is(err, ErrUnsupportedTrip))
	})

	t.Run("scraper error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"blocked by consent page","flights":[]}`))
		}))
		defer server.Close()

		_, err := NewGoogleProvider(GoogleConfig{Endpoint: server.URL}).Fetch(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked by consent page")
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewGoogleProvider(GoogleConfig{Endpoint: server.URL}).Fetch(context.Background(), req)
		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	})
}

func TestGoogleDecode(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{})
	req := models.SearchRequest{Origin: "MXP", Destination: "HYD", DepartureDate: models.MustParseDate("2026-05-24")}

	set := p.Decode(req, readFixture(t, "google_oneway.json"))
	require.Len(t, set.Outbound, 3, "flights with an empty price or unknown stops are skipped")
	assert.Empty(t, set.Return)

	emirates := set.Outbound[0]
	assert.Equal(t, "Emirates", emirates.Carrier)
	assert.Equal(t, models.NewPrice(1234), emirates.Price)
	assert.InDelta(t, 16.5, emirates.Hours(), 1e-9)
	assert.Equal(t, 1, emirates.Stops)
	assert.Equal(t, GoogleName, emirates.Source)
	assert.Equal(t, "MXP", emirates.Origin)
	assert.Equal(t, "2026-05-24", emirates.Date.String())

	assert.False(t, set.Outbound[2].Price.Valid(), "unreadable price decodes as unpriced")
	for _, leg := range set.Outbound {
		assert.NotEqual(t, "Air India", leg.Carrier)
	}

	assert.Zero(t, p.Decode(req, []byte(`garbage`)).Len())
	assert.Zero(t, p.Decode(roundTripRequest(), readFixture(t, "google_oneway.json")).Len())
}

func TestGoogleDecodeSkipsMalformedFlights(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{})
	req := models.SearchRequest{Origin: "MXP", Destination: "HYD", DepartureDate: models.MustParseDate("2026-05-24")}

	tests := []struct {
		name   string
		flight string
	}{
		{"unknown stops", `{"airline":"Air India","price":"$845","duration":"10 hr","stops":"Unknown"}`},
		{"negative stops", `{"airline":"Air India","price":"$845","duration":"10 hr","stops":-1}`},
		{"fractional stops", `{"airline":"Air India","price":"$845","duration":"10 hr","stops":1.5}`},
		{"missing stops", `{"airline":"Air India","price":"$845","duration":"10 hr"}`},
		{"null stops", `{"airline":"Air India","price":"$845","duration":"10 hr","stops":null}`},
		{"numeric price", `{"airline":"Air India","price":845,"duration":"10 hr","stops":0}`},
		{"not an object", `"Air India"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"flights":[` +
				`{"airline":"Emirates","price":"$1,234","duration":"16 hr 30 min","stops":1},` +
				tt.flight + `]}`

			set := p.Decode(req, []byte(raw))
			require.Len(t, set.Outbound, 1)
			assert.Equal(t, "Emirates", set.Outbound[0].Carrier)
			assert.Equal(t, 1, set.Outbound[0].Stops)
		})
	}
}

func TestGoogleDecodeKeepsNonstop(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{})
	req := models.SearchRequest{Origin: "MXP", Destination: "HYD", DepartureDate: models.MustParseDate("2026-05-24")}

	set := p.Decode(req, []byte(`{"flights":[{"airline":"ITA Airways","price":"$410","duration":"9 hr","stops":0}]}`))
	require.Len(t, set.Outbound, 1)
	assert.Equal(t, 0, set.Outbound[0].Stops)
}
