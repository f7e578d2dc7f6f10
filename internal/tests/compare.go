package tests

import (
	"fmt"
	"math"

	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// LenientPercentileFloor is the smallest relative tolerance applied to
// percentiles in lenient mode.
const LenientPercentileFloor = 0.10

// LenientStdFraction scales the reference std into an absolute percentile allowance.
const LenientStdFraction = 0.5

// Policy controls which statistics are compared and how strictly.
type Policy struct {
	// LenientPercentiles accepts a percentile that passes either the widened
	// relative check or the absolute check against half the reference std.
	LenientPercentiles bool
	// Percentiles lists the percentile labels to compare, in order.
	Percentiles []string
}

// DefaultPolicy compares P5, P50 and P95 leniently.
func DefaultPolicy() Policy {
	return Policy{
		LenientPercentiles: true,
		Percentiles:        []string{"5", "50", "95"},
	}
}

// Mismatch describes the first statistic that failed its tolerance.
type Mismatch struct {
	Statistic string
	Target    float64
	Reference float64
	Diff      float64 // relative difference as a fraction
	Tolerance float64
	message   string
}

func (m *Mismatch) Error() string {
	return m.message
}

func newMismatch(stat string, target, reference, tol float64) *Mismatch {
	diff := stats.RelativeDifference(target, reference)
	return &Mismatch{
		Statistic: stat,
		Target:    target,
		Reference: reference,
		Diff:      diff,
		Tolerance: tol,
		message: fmt.Sprintf("%s mismatch: target=%.4f, reference=%.4f (diff=%.2f%%, tol=%.1f%%)",
			stat, target, reference, diff*100, tol*100),
	}
}

// MissingStatisticError reports a required statistic that one side did not produce.
type MissingStatisticError struct {
	Statistic string
	Side      string // "target" or "reference"
}

func (e *MissingStatisticError) Error() string {
	return fmt.Sprintf("%s statistics missing %s", e.Side, e.Statistic)
}

// CompareSummaries checks target against reference with the effective tolerance.
// Checks run in order (mean, std, percentiles, confidence interval, KS) and the
// first failure wins. It returns (nil, nil) on agreement, a *Mismatch when a
// statistic is out of tolerance, a *MissingStatisticError when mean or std
// is absent from either side, and a *stats.NonFiniteError when a KS sample
// holds NaN or infinity.
func CompareSummaries(target, reference *stats.Summary, tol stats.Tolerance, policy Policy) (*Mismatch, error) {
	tMean, rMean, err := requirePair("mean", target.MeanValue, reference.MeanValue)
	if err != nil {
		return nil, err
	}
	if !stats.WithinTolerance(tMean, rMean, tol.Mean) {
		return newMismatch("Mean", tMean, rMean, tol.Mean), nil
	}

	tStd, rStd, err := requirePair("std", target.StdValue, reference.StdValue)
	if err != nil {
		return nil, err
	}
	if !stats.WithinTolerance(tStd, rStd, tol.Std) {
		return newMismatch("Std", tStd, rStd, tol.Std), nil
	}

	for _, label := range policy.Percentiles {
		tv, okT := target.Percentile(label)
		rv, okR := reference.Percentile(label)
		if !okT || !okR {
			continue
		}
		if !percentileAgrees(tv, rv, rStd, tol.Percentiles, policy.LenientPercentiles) {
			return newMismatch("P"+label, tv, rv, effectivePercentileTolerance(tol.Percentiles, policy.LenientPercentiles)), nil
		}
	}

	if target.CI != nil && reference.CI != nil {
		if !stats.WithinTolerance(target.CI.Lower, reference.CI.Lower, tol.CIBounds) {
			return newMismatch("CI lower", target.CI.Lower, reference.CI.Lower, tol.CIBounds), nil
		}
		if !stats.WithinTolerance(target.CI.Upper, reference.CI.Upper, tol.CIBounds) {
			return newMismatch("CI upper", target.CI.Upper, reference.CI.Upper, tol.CIBounds), nil
		}
	}

	if target.HasSamples() && reference.HasSamples() {
		if err := stats.CheckFinite(target.Samples); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		if err := stats.CheckFinite(reference.Samples); err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		ks := stats.KSTest(target.Samples, reference.Samples)
		if ks.PValue < tol.KSPValue {
			return &Mismatch{
				Statistic: "KS",
				Target:    ks.D,
				Reference: ks.PValue,
				Diff:      ks.D,
				Tolerance: tol.KSPValue,
				message: fmt.Sprintf("KS mismatch: D=%.4f, p=%.4g (min p=%.4g, n1=%d, n2=%d)",
					ks.D, ks.PValue, tol.KSPValue, ks.N1, ks.N2),
			}, nil
		}
	}

	return nil, nil
}

func requirePair(name string, tget, rget func() (float64, bool)) (float64, float64, error) {
	tv, ok := tget()
	if !ok {
		return 0, 0, &MissingStatisticError{Statistic: name, Side: "target"}
	}
	rv, ok := rget()
	if !ok {
		return 0, 0, &MissingStatisticError{Statistic: name, Side: "reference"}
	}
	return tv, rv, nil
}

func effectivePercentileTolerance(tol float64, lenient bool) float64 {
	if lenient {
		return math.Max(tol, LenientPercentileFloor)
	}
	return tol
}

func percentileAgrees(target, reference, referenceStd, tol float64, lenient bool) bool {
	if !lenient {
		return stats.WithinTolerance(target, reference, tol)
	}
	if stats.WithinTolerance(target, reference, math.Max(tol, LenientPercentileFloor)) {
		return true
	}
	return math.Abs(target-reference) <= LenientStdFraction*referenceStd
}

// CheckExpected reports whether the reference summary matches the hints a
// spec declares. Percentile hints follow the policy's lenient rule, the same
// as percentile comparison. A nil expected always matches. The result is
// advisory: hints never decide a verdict.
func CheckExpected(reference *stats.Summary, expected *Expected, tol stats.Tolerance, policy Policy) error {
	if expected == nil {
		return nil
	}
	if expected.Mean != nil {
		got, ok := reference.MeanValue()
		if !ok {
			return &MissingStatisticError{Statistic: "mean", Side: "reference"}
		}
		if !stats.WithinTolerance(got, *expected.Mean, tol.Mean) {
			return fmt.Errorf("reference disagrees with expected mean: got %.4f, expected %.4f", got, *expected.Mean)
		}
	}
	std, hasStd := reference.StdValue()
	if expected.Std != nil {
		if !hasStd {
			return &MissingStatisticError{Statistic: "std", Side: "reference"}
		}
		if !stats.WithinTolerance(std, *expected.Std, tol.Std) {
			return fmt.Errorf("reference disagrees with expected std: got %.4f, expected %.4f", std, *expected.Std)
		}
	}
	for _, label := range SortedLabels(expected.Percentiles) {
		want := expected.Percentiles[label]
		got, ok := reference.Percentile(label)
		if !ok {
			return &MissingStatisticError{Statistic: "P" + label, Side: "reference"}
		}
		if !percentileAgrees(got, want, std, tol.Percentiles, policy.LenientPercentiles) {
			return fmt.Errorf("reference disagrees with expected P%s: got %.4f, expected %.4f", label, got, want)
		}
	}
	return nil
}

// SortedLabels returns percentile labels in numeric order.
func SortedLabels(m map[string]float64) []string {
	s := stats.Summary{Percentiles: m}
	return s.PercentileLabels()
}
