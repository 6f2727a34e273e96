// Package forecasts retrieves hourly forecast data from the Open-Meteo API
// and exposes it as an ordered sample sequence for rule evaluation.
//
// The upstream returns parallel arrays (time, temperature_2m, precipitation,
// relativehumidity_2m). The client zips them preserving array order; a null
// cell becomes an absent metric value on that sample, never an error. Rule
// evaluation depends on that order, so no sorting or de-duplication happens
// here.
package forecasts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"weatherwatch/internal/config"
	"weatherwatch/internal/types"
)

// hourlyFields is the fixed set of variables requested from the upstream,
// matching the metrics rules can reference.
const hourlyFields = "temperature_2m,precipitation,relativehumidity_2m"

// maxErrorBodyRead bounds how much of an upstream error body is kept for
// diagnostics.
const maxErrorBodyRead = 2048

// Client is the raw Open-Meteo HTTP client. Wrap it in a Service to add
// circuit breaking and request coalescing.
type Client struct {
	cfg        *config.ForecastConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a forecast client from the provider configuration.
func NewClient(cfg *config.ForecastConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// hourlyResponse mirrors the subset of the Open-Meteo payload we consume.
// Metric arrays use pointer elements because the API encodes missing data
// points as null.
type hourlyResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Precipitation []*float64 `json:"precipitation"`
		Humidity      []*float64 `json:"relativehumidity_2m"`
	} `json:"hourly"`
}

// Hourly fetches the hourly forecast for the query window and returns the
// samples in the provider's chronological order.
func (c *Client) Hourly(ctx context.Context, q types.ForecastQuery) ([]types.ForecastSample, error) {
	reqURL := c.buildURL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast,
			"forecast provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyRead))
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast,
			fmt.Sprintf("forecast provider returned status %d: %s", resp.StatusCode, body), nil)
	}

	var payload hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast,
			"decoding forecast response", err)
	}

	samples := c.zip(payload)
	if len(samples) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast,
			"forecast response contained no hourly data", nil)
	}

	c.logger.DebugContext(ctx, "forecast fetched",
		"samples", len(samples),
		"lookahead_hours", q.Hours,
	)
	return samples, nil
}

// buildURL assembles the Open-Meteo request URL for the query.
func (c *Client) buildURL(q types.ForecastQuery) string {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 4, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 4, 64))
	v.Set("hourly", hourlyFields)
	v.Set("forecast_hours", strconv.Itoa(q.Hours))
	if q.Timezone != "" {
		v.Set("timezone", q.Timezone)
	}
	if c.cfg.Model != "" {
		v.Set("forecast_model", c.cfg.Model)
	}
	return c.cfg.BaseURL + "?" + v.Encode()
}

// zip converts the parallel hourly arrays into ordered samples. The time
// array drives the length; a metric array shorter than it (or a null cell)
// yields an absent value for that hour. Unparseable timestamps keep the
// sample (order is what matters) with a zero Timestamp.
func (c *Client) zip(payload hourlyResponse) []types.ForecastSample {
	h := payload.Hourly
	loc := time.UTC
	samples := make([]types.ForecastSample, 0, len(h.Time))
	for i, ts := range h.Time {
		s := types.ForecastSample{}
		if t, err := time.ParseInLocation("2006-01-02T15:04", ts, loc); err == nil {
			s.Timestamp = t
		}
		if i < len(h.Temperature) {
			s.Temperature = h.Temperature[i]
		}
		if i < len(h.Precipitation) {
			s.Precipitation = h.Precipitation[i]
		}
		if i < len(h.Humidity) {
			s.Humidity = h.Humidity[i]
		}
		samples = append(samples, s)
	}
	return samples
}
