package types

import (
	"fmt"
	"time"
)

// PushKeys carries the client key material required to encrypt a Web Push
// payload for one subscription.
type PushKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// PushSubscription is the browser-generated push delivery descriptor
// (PushSubscription.toJSON() shape). The Endpoint URL is the natural key
// for both the subscription store and the schedule registry; everything
// else is opaque to the core and only handed to the push transport.
type PushSubscription struct {
	Endpoint       string   `json:"endpoint" validate:"required,url"`
	ExpirationTime *float64 `json:"expirationTime,omitempty"`
	Keys           PushKeys `json:"keys" validate:"required"`
}

// ClockTime is a wall-clock time of day (no date, no zone).
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClockTime parses an "HH:MM" string. The transport layer validates
// the format before the core sees it; this is the shared parse point.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, NewAppError(ErrCodeValidationInvalidTime,
			fmt.Sprintf("time %q is not in HH:MM format", s), err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ScheduledJob is the inspectable record of one endpoint's recurring daily
// evaluation job. Job state lives in the registry keyed by endpoint rather
// than in timer closures, so jobs can be listed, replaced, and cancelled by
// identity.
type ScheduledJob struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Time      ClockTime `json:"time"`
	Timezone  string    `json:"timezone"`
	Rules     RuleSet   `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
	NextRun   time.Time `json:"next_run"`
}

// NotificationPayload is the JSON document delivered to the service worker.
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DeliveryResult captures the classified outcome of one delivery attempt.
//
// Outcome mapping: Status "sent" means delivered; Status "failed" with
// Terminal set means the endpoint is permanently invalid and the
// subscription must be retired; "failed" with Retryable set is a transient
// failure retried implicitly on the next daily tick.
type DeliveryResult struct {
	Status        DeliveryStatus `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Retryable     bool           `json:"retryable"`
	Terminal      bool           `json:"terminal"`
}

// Delivered reports whether the attempt succeeded.
func (r *DeliveryResult) Delivered() bool {
	return r != nil && r.Status == DeliveryStatusSent
}
