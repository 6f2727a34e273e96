package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherwatch/internal/types"
)

type mockForecastProvider struct {
	lastQuery types.ForecastQuery
	samples   []types.ForecastSample
	err       error
}

func (m *mockForecastProvider) Hourly(_ context.Context, q types.ForecastQuery) ([]types.ForecastSample, error) {
	m.lastQuery = q
	return m.samples, m.err
}

func newForecastRouter(provider *mockForecastProvider) http.Handler {
	h := NewForecastHandler(provider, types.ForecastQuery{
		Latitude:  50.0755,
		Longitude: 14.4378,
		Hours:     48,
		Timezone:  "UTC",
	}, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestForecastGet_Success(t *testing.T) {
	temp := 21.5
	provider := &mockForecastProvider{samples: []types.ForecastSample{
		{Timestamp: time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC), Temperature: &temp},
	}}
	router := newForecastRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forecast", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 48, provider.lastQuery.Hours)

	var resp struct {
		Data ForecastResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.InDelta(t, 50.0755, resp.Data.Latitude, 1e-9)
	require.Len(t, resp.Data.Samples, 1)
	require.NotNil(t, resp.Data.Samples[0].Temperature)
	assert.InDelta(t, 21.5, *resp.Data.Samples[0].Temperature, 1e-9)
}

func TestForecastGet_HoursOverride(t *testing.T) {
	provider := &mockForecastProvider{}
	router := newForecastRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forecast?hours=12", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, provider.lastQuery.Hours)
}

func TestForecastGet_InvalidHours(t *testing.T) {
	router := newForecastRouter(&mockForecastProvider{})

	for _, hours := range []string{"0", "-3", "banana", "999"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forecast?hours="+hours, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "hours=%s", hours)
	}
}

func TestForecastGet_UpstreamError(t *testing.T) {
	provider := &mockForecastProvider{
		err: types.NewAppError(types.ErrCodeUpstreamForecast, "provider unreachable", nil),
	}
	router := newForecastRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forecast", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
