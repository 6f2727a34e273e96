package rules

import (
	"testing"
	"time"

	"weatherwatch/internal/types"
)

// hourly builds an ordered sample sequence from parallel metric slices.
// A nil entry means the metric is absent for that hour. Timestamps start at
// midnight purely for readability; the engine only depends on slice order.
func hourly(temps, precs, hums []*float64) []types.ForecastSample {
	n := len(temps)
	if len(precs) > n {
		n = len(precs)
	}
	if len(hums) > n {
		n = len(hums)
	}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]types.ForecastSample, n)
	for i := range samples {
		samples[i] = types.ForecastSample{Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if i < len(temps) {
			samples[i].Temperature = temps[i]
		}
		if i < len(precs) {
			samples[i].Precipitation = precs[i]
		}
		if i < len(hums) {
			samples[i].Humidity = hums[i]
		}
	}
	return samples
}

func vals(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i := range vs {
		v := vs[i]
		out[i] = &v
	}
	return out
}

// referenceSamples is the scenario used across the individual cases below:
// hourly from 00:00 to 05:00, temperatures [20,26,27,28,30,24] and
// precipitation [0,0,0,0,6,7].
func referenceSamples() []types.ForecastSample {
	return hourly(
		vals(20, 26, 27, 28, 30, 24),
		vals(0, 0, 0, 0, 6, 7),
		nil,
	)
}

func TestEvaluate_ReferenceScenarios(t *testing.T) {
	tests := []struct {
		name string
		set  types.RuleSet
		want bool
	}{
		{
			name: "temperature above 25 for 3 consecutive hours",
			set: types.RuleSet{
				{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 3},
			},
			want: true, // run 01:00-04:00, length 4
		},
		{
			name: "precipitation at least 5 for 2 consecutive hours",
			set: types.RuleSet{
				{Metric: types.MetricPrecipitation, Comparator: types.CmpGreaterThanEq, Threshold: 5, DurationHours: 2},
			},
			want: true, // run 04:00-05:00
		},
		{
			name: "temperature strictly above 30 never holds",
			set: types.RuleSet{
				{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 30, DurationHours: 2},
			},
			want: false, // 30 itself fails strict >
		},
		{
			name: "conjunction of independently satisfied rules",
			set: types.RuleSet{
				{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 2},
				{Metric: types.MetricPrecipitation, Comparator: types.CmpGreaterThanEq, Threshold: 6, DurationHours: 1},
			},
			want: true,
		},
		{
			name: "conjunction fails when one rule fails",
			set: types.RuleSet{
				{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 2},
				{Metric: types.MetricPrecipitation, Comparator: types.CmpGreaterThanEq, Threshold: 10, DurationHours: 1},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.set, referenceSamples()); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_EmptyRuleSet(t *testing.T) {
	if !Evaluate(nil, referenceSamples()) {
		t.Error("empty rule set must be vacuously satisfied")
	}
	if !Evaluate(types.RuleSet{}, nil) {
		t.Error("empty rule set must be satisfied even with no samples")
	}
}

func TestEvaluate_EmptySamples(t *testing.T) {
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 0, DurationHours: 1},
	}
	if Evaluate(set, nil) {
		t.Error("no samples can never satisfy a rule requiring at least one hour")
	}
}

func TestEvaluate_RunMustBeConsecutive(t *testing.T) {
	// 3 matching hours exist in total, but the longest contiguous run is 2.
	samples := hourly(vals(26, 26, 10, 26), nil, nil)
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 3},
	}
	if Evaluate(set, samples) {
		t.Error("non-contiguous matches must not accumulate")
	}

	set[0].DurationHours = 2
	if !Evaluate(set, samples) {
		t.Error("contiguous run of 2 must satisfy a 2h requirement")
	}
}

func TestEvaluate_MissingMetricResetsRun(t *testing.T) {
	// Humidity present on hours 0,1 and 3,4 with a gap at hour 2.
	h70 := 70.0
	hums := []*float64{&h70, &h70, nil, &h70, &h70}
	samples := hourly(nil, nil, hums)

	set := types.RuleSet{
		{Metric: types.MetricHumidity, Comparator: types.CmpGreaterThanEq, Threshold: 60, DurationHours: 3},
	}
	if Evaluate(set, samples) {
		t.Error("an absent metric value must reset the run counter")
	}

	set[0].DurationHours = 2
	if !Evaluate(set, samples) {
		t.Error("runs on either side of the gap still count individually")
	}
}

func TestEvaluate_UnknownMetricIsUnsatisfiable(t *testing.T) {
	set := types.RuleSet{
		{Metric: types.Metric("wind_speed"), Comparator: types.CmpGreaterThan, Threshold: 0, DurationHours: 1},
	}
	if Evaluate(set, referenceSamples()) {
		t.Error("a rule on an unknown metric must be unsatisfiable, not an error")
	}
}

func TestEvaluate_UnknownComparatorIsUnsatisfiable(t *testing.T) {
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.Comparator("!="), Threshold: 0, DurationHours: 1},
	}
	if Evaluate(set, referenceSamples()) {
		t.Error("a rule with an unknown comparator must be unsatisfiable")
	}
}

func TestEvaluate_ExactEquality(t *testing.T) {
	samples := hourly(vals(30, 30, 29.999), nil, nil)
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.CmpEqual, Threshold: 30, DurationHours: 2},
	}
	if !Evaluate(set, samples) {
		t.Error("two consecutive exact matches must satisfy a 2h equality rule")
	}

	set[0].DurationHours = 3
	if Evaluate(set, samples) {
		t.Error("equality is exact; 29.999 must not extend the run")
	}
}

func TestEvaluate_MatchesIndependentRuleConjunction(t *testing.T) {
	// AND semantics: the set result equals evaluating each rule alone.
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 3},
		{Metric: types.MetricPrecipitation, Comparator: types.CmpGreaterThanEq, Threshold: 5, DurationHours: 2},
		{Metric: types.MetricTemperature, Comparator: types.CmpLessThan, Threshold: 21, DurationHours: 1},
	}
	samples := referenceSamples()

	want := true
	for _, r := range set {
		want = want && Evaluate(types.RuleSet{r}, samples)
	}
	if got := Evaluate(set, samples); got != want {
		t.Errorf("Evaluate(set) = %v, AND of single-rule evaluations = %v", got, want)
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	set := types.RuleSet{
		{Metric: types.MetricTemperature, Comparator: types.CmpGreaterThan, Threshold: 25, DurationHours: 3},
	}
	samples := referenceSamples()
	first := Evaluate(set, samples)
	for i := 0; i < 10; i++ {
		if Evaluate(set, samples) != first {
			t.Fatal("repeated evaluation with identical inputs must be deterministic")
		}
	}
}
