package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weatherwatch/internal/core"
	"weatherwatch/internal/types"
)

// ForecastProvider defines the forecast access contract for the forecast
// handler. Matches forecasts.Service but is defined locally per the handler
// injection pattern.
type ForecastProvider interface {
	Hourly(ctx context.Context, q types.ForecastQuery) ([]types.ForecastSample, error)
}

// ForecastResponse is the response body for GET /v1/forecast.
type ForecastResponse struct {
	Latitude  float64                `json:"latitude"`
	Longitude float64                `json:"longitude"`
	Samples   []types.ForecastSample `json:"samples"`
}

// ForecastHandler exposes the watched location's hourly forecast so clients
// can preview the same data the rule engine evaluates.
type ForecastHandler struct {
	provider ForecastProvider
	query    types.ForecastQuery
	logger   *slog.Logger
}

// NewForecastHandler creates a ForecastHandler. The query fixes the watched
// location; clients may only narrow the hour window.
func NewForecastHandler(provider ForecastProvider, query types.ForecastQuery, logger *slog.Logger) *ForecastHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastHandler{
		provider: provider,
		query:    query,
		logger:   logger,
	}
}

// RegisterRoutes mounts the forecast endpoint onto the mux.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast", h.Get)
}

// Get handles GET /v1/forecast. An optional ?hours= parameter narrows the
// window below the configured lookahead.
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := h.query

	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 || hours > h.query.Hours {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidInput,
				"query parameter 'hours' must be an integer between 1 and "+strconv.Itoa(h.query.Hours), nil))
			return
		}
		q.Hours = hours
	}

	samples, err := h.provider.Hourly(r.Context(), q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: ForecastResponse{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Samples:   samples,
	}})
}
