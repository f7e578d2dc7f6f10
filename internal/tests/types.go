// Package tests provides the Monte Carlo test-suite model for stochval:
// test specifications, suite loading, statistic comparison and verdicts.
package tests

import (
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// Defaults applied to specs that leave a field unset.
const (
	DefaultSeed       uint64 = 42
	DefaultIterations        = 10_000
)

// TestSpec is one named comparison case loaded from a suite document.
type TestSpec struct {
	Name         string             `json:"name" validate:"required"`
	Suite        string             `json:"suite,omitempty"`        // suite file stem
	Index        int                `json:"-"`                      // position in input order
	Distribution string             `json:"distribution,omitempty"` // empty for non Monte Carlo cases
	Params       map[string]float64 `json:"params,omitempty"`       // reference parameterization
	Seed         uint64             `json:"seed"`
	Iterations   int                `json:"iterations" validate:"gt=0"`
	Validator    string             `json:"validator,omitempty"` // reference validator id
	Expected     *Expected          `json:"expected,omitempty"`
	Tolerance    *ToleranceOverride `json:"tolerance,omitempty" validate:"omitempty"`
	Effective    stats.Tolerance    `json:"effective_tolerance"` // merged at load time
}

// HasDistribution reports whether the spec describes a Monte Carlo case.
func (s *TestSpec) HasDistribution() bool {
	return s.Distribution != ""
}

// Expected holds optional reference values a validator is expected to reproduce.
type Expected struct {
	Mean        *float64           `json:"mean,omitempty" yaml:"mean"`
	Std         *float64           `json:"std,omitempty" yaml:"std"`
	Percentiles map[string]float64 `json:"percentiles,omitempty" yaml:"percentiles"`
}

// ToleranceOverride replaces individual fields of the suite tolerance.
type ToleranceOverride struct {
	Mean        *float64 `json:"mean,omitempty" yaml:"mean" validate:"omitempty,gte=0"`
	Std         *float64 `json:"std,omitempty" yaml:"std" validate:"omitempty,gte=0"`
	Percentiles *float64 `json:"percentiles,omitempty" yaml:"percentiles" validate:"omitempty,gte=0"`
	KSPValue    *float64 `json:"ks_pvalue,omitempty" yaml:"ks_pvalue" validate:"omitempty,gte=0,lte=1"`
	CIBounds    *float64 `json:"ci_bounds,omitempty" yaml:"ci_bounds" validate:"omitempty,gte=0"`
}

// EffectiveTolerance merges an override into base field by field.
// A nil override returns base unchanged.
func EffectiveTolerance(base stats.Tolerance, o *ToleranceOverride) stats.Tolerance {
	if o == nil {
		return base
	}
	eff := base
	if o.Mean != nil {
		eff.Mean = *o.Mean
	}
	if o.Std != nil {
		eff.Std = *o.Std
	}
	if o.Percentiles != nil {
		eff.Percentiles = *o.Percentiles
	}
	if o.KSPValue != nil {
		eff.KSPValue = *o.KSPValue
	}
	if o.CIBounds != nil {
		eff.CIBounds = *o.CIBounds
	}
	return eff
}

// LoadOptions carries the suite-wide defaults a loader applies.
type LoadOptions struct {
	Tolerance stats.Tolerance // base tolerance before per-case overrides
	Validator string          // validator used when neither spec nor suite names one
	Strict    bool            // fail on unparseable suite files instead of warning
}

// DefaultLoadOptions returns the stochastic tolerance and the standard R validator.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Tolerance: stats.DefaultTolerance(),
		Validator: "monte_carlo_validator.R",
	}
}
