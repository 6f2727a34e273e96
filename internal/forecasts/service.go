package forecasts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"weatherwatch/internal/config"
	"weatherwatch/internal/types"
)

// Compile-time assertion that Service implements types.ForecastSource.
var _ types.ForecastSource = (*Service)(nil)

// Fetcher is the raw forecast retrieval contract Service wraps. Satisfied
// by *Client; tests substitute a fake.
type Fetcher interface {
	Hourly(ctx context.Context, q types.ForecastQuery) ([]types.ForecastSample, error)
}

// Service guards the upstream client with a circuit breaker and coalesces
// identical concurrent fetches. Many subscriber jobs fire at the same
// wall-clock minute and all want the same fixed-location window, so without
// coalescing every tick would hit the provider separately.
type Service struct {
	fetcher Fetcher
	breaker *gobreaker.CircuitBreaker[[]types.ForecastSample]
	flight  singleflight.Group
	logger  *slog.Logger
}

// NewService wraps the fetcher with breaker settings from configuration.
func NewService(fetcher Fetcher, cfg *config.ForecastConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]types.ForecastSample](gobreaker.Settings{
		Name:    "open-meteo",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("forecast breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Service{
		fetcher: fetcher,
		breaker: breaker,
		logger:  logger,
	}
}

// Hourly returns the hourly samples for the query. Concurrent calls with an
// identical query share one upstream round trip; when the breaker is open
// the call fails fast with an upstream error the scheduler absorbs at tick
// level.
func (s *Service) Hourly(ctx context.Context, q types.ForecastQuery) ([]types.ForecastSample, error) {
	key := flightKey(q)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.breaker.Execute(func() ([]types.ForecastSample, error) {
			return s.fetcher.Hourly(ctx, q)
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "forecast fetch coalesced", "key", key)
	}
	return v.([]types.ForecastSample), nil
}

func flightKey(q types.ForecastQuery) string {
	return fmt.Sprintf("%.4f:%.4f:%d:%s", q.Latitude, q.Longitude, q.Hours, q.Timezone)
}
