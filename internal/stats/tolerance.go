// Package stats provides the statistical agreement primitives used to compare
// a target engine against a reference validator: tolerance checks, the
// two-sample Kolmogorov-Smirnov test, and sample summaries.
package stats

import (
	"fmt"
	"math"
	"strings"
)

// Epsilon is the threshold below which an expected value is treated as zero.
const Epsilon = 2.220446049250313e-16

// Preset names accepted by TolerancePreset.
const (
	PresetStochastic    = "stochastic"
	PresetDeterministic = "deterministic"
)

// Tolerance holds per-statistic agreement thresholds.
// All fields are non-negative fractions; zero requires an exact match.
type Tolerance struct {
	Mean        float64 `json:"mean" yaml:"mean"`               // max relative deviation of the mean
	Std         float64 `json:"std" yaml:"std"`                 // max relative deviation of the standard deviation
	Percentiles float64 `json:"percentiles" yaml:"percentiles"` // max relative deviation of percentile values
	KSPValue    float64 `json:"ks_pvalue" yaml:"ks_pvalue"`     // minimum acceptable KS p-value
	CIBounds    float64 `json:"ci_bounds" yaml:"ci_bounds"`     // max relative deviation of CI bounds
}

// DefaultTolerance returns the stochastic preset.
func DefaultTolerance() Tolerance {
	return StochasticTolerance()
}

// StochasticTolerance returns thresholds for genuinely random outputs.
func StochasticTolerance() Tolerance {
	return Tolerance{
		Mean:        0.01,
		Std:         0.05,
		Percentiles: 0.02,
		KSPValue:    0.05,
		CIBounds:    0.02,
	}
}

// DeterministicTolerance returns strict thresholds for outputs expected to be
// reproducible exactly.
func DeterministicTolerance() Tolerance {
	return Tolerance{
		Mean:        0.001,
		Std:         0.001,
		Percentiles: 0.001,
		KSPValue:    0.05,
		CIBounds:    0.001,
	}
}

// TolerancePreset resolves a preset by name (case-insensitive).
func TolerancePreset(name string) (Tolerance, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetStochastic:
		return StochasticTolerance(), nil
	case PresetDeterministic:
		return DeterministicTolerance(), nil
	default:
		return Tolerance{}, fmt.Errorf("unknown tolerance preset %q (must be %q or %q)", name, PresetStochastic, PresetDeterministic)
	}
}

// Validate reports the first negative or NaN field.
func (t Tolerance) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"mean", t.Mean},
		{"std", t.Std},
		{"percentiles", t.Percentiles},
		{"ks_pvalue", t.KSPValue},
		{"ci_bounds", t.CIBounds},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || f.value < 0 {
			return fmt.Errorf("tolerance.%s must be a non-negative number, got %v", f.name, f.value)
		}
	}
	return nil
}

// WithinTolerance reports whether actual agrees with expected.
// For |expected| < Epsilon the check falls back to |actual| <= tolerance,
// otherwise the relative difference must not exceed tolerance.
func WithinTolerance(actual, expected, tolerance float64) bool {
	if actual == expected {
		return true
	}
	if math.Abs(expected) < Epsilon {
		return math.Abs(actual) <= tolerance
	}
	return math.Abs(actual-expected)/math.Abs(expected) <= tolerance
}

// RelativeDifference returns |actual-expected|/|expected|, or |actual| when
// expected is effectively zero.
func RelativeDifference(actual, expected float64) float64 {
	if math.Abs(expected) < Epsilon {
		return math.Abs(actual)
	}
	return math.Abs(actual-expected) / math.Abs(expected)
}
