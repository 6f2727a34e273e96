// Package config defines the process-wide configuration for weatherwatch.
// Configuration is loaded once at startup and is immutable thereafter; it
// follows 12-Factor principles by strictly separating code from
// configuration. Any missing required value or invalid format fails the
// process immediately on startup.
package config

import (
	"time"

	"weatherwatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Forecast ForecastConfig
	Push     PushConfig
	Schedule ScheduleConfig
	Notify   NotifyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"4000"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ForecastConfig holds the upstream weather provider settings. The service
// watches a single fixed location; multi-location support is a non-goal.
type ForecastConfig struct {
	BaseURL        string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	Latitude       float64       `envconfig:"FORECAST_LATITUDE" default:"50.0755" validate:"min=-90,max=90"`
	Longitude      float64       `envconfig:"FORECAST_LONGITUDE" default:"14.4378" validate:"min=-180,max=180"`
	Model          string        `envconfig:"FORECAST_MODEL" default:"icon_d2"`
	LookaheadHours int           `envconfig:"FORECAST_LOOKAHEAD_HOURS" default:"48" validate:"min=1,max=168"`
	Timeout        time.Duration `envconfig:"FORECAST_TIMEOUT" default:"10s"`

	// Circuit breaker tuning for the upstream client.
	BreakerFailureThreshold uint32        `envconfig:"FORECAST_BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout      time.Duration `envconfig:"FORECAST_BREAKER_OPEN_TIMEOUT" default:"2m"`
}

// PushConfig holds Web Push (VAPID) delivery settings. The private key is a
// SecretString so it can never leak through logs or serialized config.
type PushConfig struct {
	VAPIDPublicKey  string        `envconfig:"VAPID_PUBLIC_KEY" validate:"required"`
	VAPIDPrivateKey SecretString  `envconfig:"VAPID_PRIVATE_KEY" validate:"required"`
	ContactEmail    string        `envconfig:"VAPID_CONTACT" default:"mailto:alerts@weatherwatch.local"`
	TTL             int           `envconfig:"PUSH_TTL_SECONDS" default:"86400"`
	Timeout         time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`

	// AllowInsecureEndpoints disables the SSRF guard on subscriber endpoints.
	// Only ever set in local development against a fake push service.
	AllowInsecureEndpoints bool `envconfig:"PUSH_ALLOW_INSECURE_ENDPOINTS" default:"false"`
}

// ScheduleConfig holds defaults for subscriber schedules.
type ScheduleConfig struct {
	// DefaultTimezone applies when a schedule request omits a timezone.
	DefaultTimezone string `envconfig:"SCHEDULE_TIMEZONE" default:"Europe/Prague" validate:"required,timezone"`
}

// NotifyConfig holds the notification payload text.
type NotifyConfig struct {
	Title string `envconfig:"NOTIFY_TITLE" default:"Weather matches your conditions"`
	Body  string `envconfig:"NOTIFY_BODY" default:"Check the forecast for the hours ahead."`
}
