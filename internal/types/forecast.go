package types

import "time"

// ForecastSample is one hourly data point in an ordered forecast sequence.
// Metric fields are pointers: a nil value means the provider did not report
// that variable for the hour. The rule engine depends on the slice order
// being chronological, not on the timestamps themselves.
type ForecastSample struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Precipitation *float64  `json:"precipitation,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
}

// Value returns the sample's value for the given metric. The second return
// is false when the metric is absent for this sample or unknown entirely; a
// rule's run counter resets in that case.
func (s ForecastSample) Value(m Metric) (float64, bool) {
	var v *float64
	switch m {
	case MetricTemperature:
		v = s.Temperature
	case MetricPrecipitation:
		v = s.Precipitation
	case MetricHumidity:
		v = s.Humidity
	default:
		return 0, false
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// ForecastQuery describes one request to the forecast source.
type ForecastQuery struct {
	Latitude  float64
	Longitude float64
	Hours     int
	Timezone  string
}
