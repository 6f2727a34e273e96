package types

import (
	"errors"
	"testing"
)

func TestComparatorCompare(t *testing.T) {
	tests := []struct {
		cmp       Comparator
		value     float64
		threshold float64
		want      bool
	}{
		{CmpGreaterThan, 26, 25, true},
		{CmpGreaterThan, 25, 25, false},
		{CmpGreaterThanEq, 25, 25, true},
		{CmpGreaterThanEq, 24.9, 25, false},
		{CmpLessThan, 24, 25, true},
		{CmpLessThan, 25, 25, false},
		{CmpLessThanEq, 25, 25, true},
		{CmpLessThanEq, 25.1, 25, false},
		{CmpEqual, 25, 25, true},
		{CmpEqual, 25.0001, 25, false},
		{Comparator("~="), 25, 25, false},
	}

	for _, tt := range tests {
		if got := tt.cmp.Compare(tt.value, tt.threshold); got != tt.want {
			t.Errorf("%g %s %g = %v, want %v", tt.value, tt.cmp, tt.threshold, got, tt.want)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{Metric: MetricTemperature, Comparator: CmpGreaterThan, Threshold: 25, DurationHours: 3}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown metric", Rule{Metric: "wind", Comparator: CmpGreaterThan, DurationHours: 1}},
		{"unknown comparator", Rule{Metric: MetricHumidity, Comparator: "!=", DurationHours: 1}},
		{"zero duration", Rule{Metric: MetricHumidity, Comparator: CmpLessThan, DurationHours: 0}},
		{"negative duration", Rule{Metric: MetricHumidity, Comparator: CmpLessThan, DurationHours: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *AppError, got %T", err)
			}
			if appErr.Code != ErrCodeValidationInvalidRule {
				t.Errorf("expected invalid-rule code, got %q", appErr.Code)
			}
		})
	}
}

func TestRuleSetValidateReportsIndex(t *testing.T) {
	set := RuleSet{
		{Metric: MetricTemperature, Comparator: CmpGreaterThan, Threshold: 25, DurationHours: 3},
		{Metric: "pressure", Comparator: CmpGreaterThan, DurationHours: 1},
	}

	err := set.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Details["rule_index"] != 1 {
		t.Errorf("expected rule_index 1, got %v", appErr.Details["rule_index"])
	}
}

func TestRuleSetValidateEmpty(t *testing.T) {
	if err := (RuleSet{}).Validate(); err != nil {
		t.Errorf("empty rule set must validate, got %v", err)
	}
	if err := (RuleSet)(nil).Validate(); err != nil {
		t.Errorf("nil rule set must validate, got %v", err)
	}
}

func TestRuleString(t *testing.T) {
	r := Rule{Metric: MetricPrecipitation, Comparator: CmpGreaterThanEq, Threshold: 5, DurationHours: 2}
	if got := r.String(); got != "precipitation >= 5 for 2h" {
		t.Errorf("String() = %q", got)
	}
}
