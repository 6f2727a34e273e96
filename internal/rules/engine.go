// Package rules implements the forecast rule evaluation engine.
//
// A rule is satisfied when its metric holds the configured comparison against
// the threshold for at least DurationHours consecutive samples. A rule set is
// the logical AND of its rules: every rule must independently find such a run.
// Evaluation is a pure function over the inputs with no hidden state, so it is
// safe to call concurrently from many scheduler ticks.
package rules

import "weatherwatch/internal/types"

// Evaluate reports whether every rule in the set finds a qualifying run in
// the ordered sample sequence. An empty rule set is vacuously satisfied,
// regardless of the samples (including none at all).
func Evaluate(set types.RuleSet, samples []types.ForecastSample) bool {
	for _, r := range set {
		if !ruleSatisfied(r, samples) {
			return false
		}
	}
	return true
}

// ruleSatisfied scans the samples once, maintaining a consecutive-match
// counter. A sample whose metric value is absent, or fails the comparison,
// resets the counter to zero; there is no gap tolerance or interpolation.
// The scan short-circuits as soon as the counter reaches DurationHours.
func ruleSatisfied(rule types.Rule, samples []types.ForecastSample) bool {
	run := 0
	for _, s := range samples {
		v, ok := s.Value(rule.Metric)
		if !ok || !rule.Comparator.Compare(v, rule.Threshold) {
			run = 0
			continue
		}
		run++
		if run >= rule.DurationHours {
			return true
		}
	}
	return false
}
