package types

// Metric identifies a forecast variable a rule can test.
type Metric string

const (
	MetricTemperature   Metric = "temperature"
	MetricPrecipitation Metric = "precipitation"
	MetricHumidity      Metric = "humidity"
)

// AllMetrics is the complete set of metrics a rule may reference.
// Used by boundary validation; the engine itself treats anything outside
// this set as "value absent".
var AllMetrics = []Metric{MetricTemperature, MetricPrecipitation, MetricHumidity}

// Valid reports whether the metric is one of the supported variables.
func (m Metric) Valid() bool {
	switch m {
	case MetricTemperature, MetricPrecipitation, MetricHumidity:
		return true
	}
	return false
}

// Comparator defines the comparison operators available to rules.
type Comparator string

const (
	CmpGreaterThan   Comparator = ">"
	CmpGreaterThanEq Comparator = ">="
	CmpLessThan      Comparator = "<"
	CmpLessThanEq    Comparator = "<="
	CmpEqual         Comparator = "=="
)

// Compare applies the comparator to (value, threshold). An unrecognized
// comparator compares false, so a malformed rule can never be satisfied.
// Equality is exact; callers using fractional thresholds should be aware
// there is no tolerance.
func (c Comparator) Compare(value, threshold float64) bool {
	switch c {
	case CmpGreaterThan:
		return value > threshold
	case CmpGreaterThanEq:
		return value >= threshold
	case CmpLessThan:
		return value < threshold
	case CmpLessThanEq:
		return value <= threshold
	case CmpEqual:
		return value == threshold
	}
	return false
}

// Valid reports whether the comparator is one of the supported operators.
func (c Comparator) Valid() bool {
	switch c {
	case CmpGreaterThan, CmpGreaterThanEq, CmpLessThan, CmpLessThanEq, CmpEqual:
		return true
	}
	return false
}

// DeliveryStatus enumerates the states of a push delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// ChannelType identifies a notification delivery channel.
type ChannelType string

// ChannelPush is the Web Push delivery channel. It is currently the only
// channel; the type exists so delivery metrics and results stay channel-keyed.
const ChannelPush ChannelType = "push"
