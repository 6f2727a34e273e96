package types

import (
	"context"
	"time"
)

// ForecastSource retrieves an ordered hourly forecast sequence. It abstracts
// the upstream weather provider; the sequence covers at least the requested
// lookahead window in chronological order.
type ForecastSource interface {
	Hourly(ctx context.Context, q ForecastQuery) ([]ForecastSample, error)
}

// PushTransport attempts one notification delivery and classifies the
// outcome. Expected provider failures (endpoint gone, network error, 5xx)
// are reported through the DeliveryResult, not the error; the error return
// is reserved for faults before the request is made, such as an
// unencodable payload.
type PushTransport interface {
	Deliver(ctx context.Context, sub PushSubscription, payload NotificationPayload) (*DeliveryResult, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
