package types

import (
	"errors"
	"fmt"
)

// Rule is a single threshold condition over one forecast metric. It is
// satisfied when the metric holds the comparison against Threshold for at
// least DurationHours consecutive hourly samples.
type Rule struct {
	Metric        Metric     `json:"metric" validate:"required,oneof=temperature precipitation humidity"`
	Comparator    Comparator `json:"comparator" validate:"required,oneof=> >= < <= =="`
	Threshold     float64    `json:"threshold"`
	DurationHours int        `json:"duration_hours" validate:"required,min=1,max=48"`
}

// Validate checks the rule shape. This is boundary validation; the rule
// engine itself never errors on a malformed rule, it just treats it as
// unsatisfiable.
func (r Rule) Validate() error {
	if !r.Metric.Valid() {
		return NewAppError(ErrCodeValidationInvalidRule,
			fmt.Sprintf("unknown metric %q", r.Metric), nil)
	}
	if !r.Comparator.Valid() {
		return NewAppError(ErrCodeValidationInvalidRule,
			fmt.Sprintf("unknown comparator %q", r.Comparator), nil)
	}
	if r.DurationHours < 1 {
		return NewAppError(ErrCodeValidationInvalidRule,
			"duration_hours must be at least 1", nil)
	}
	return nil
}

// String renders the rule in a compact human-readable form for logs.
func (r Rule) String() string {
	return fmt.Sprintf("%s %s %g for %dh", r.Metric, r.Comparator, r.Threshold, r.DurationHours)
}

// RuleSet is an ordered AND-combination of rules. It is satisfied only when
// every rule independently finds a qualifying run. An empty set is
// vacuously satisfied.
type RuleSet []Rule

// Validate checks every rule in the set.
func (rs RuleSet) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			var appErr *AppError
			if errors.As(err, &appErr) {
				return appErr.WithDetails(map[string]any{"rule_index": i})
			}
			return err
		}
	}
	return nil
}
