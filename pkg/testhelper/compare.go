package testhelper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/stochval/internal/reference"
	"github.com/AndreyAkinshin/stochval/internal/stats"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Tolerance holds relative agreement thresholds for sample comparisons.
type Tolerance struct {
	// Mean is the maximum relative deviation of the mean.
	Mean float64
	// Std is the maximum relative deviation of the standard deviation.
	Std float64
	// Percentiles is the maximum relative deviation of P5, P50 and P95.
	// Percentiles also pass when within half a reference std.
	Percentiles float64
	// KSPValue is the minimum acceptable two-sample KS p-value.
	// Zero disables the KS check.
	KSPValue float64
}

// DefaultTolerance returns thresholds suited to independent random streams.
func DefaultTolerance() Tolerance {
	t := stats.StochasticTolerance()
	return Tolerance{Mean: t.Mean, Std: t.Std, Percentiles: t.Percentiles, KSPValue: t.KSPValue}
}

// ValidateTolerance returns an error describing the first invalid field.
func ValidateTolerance(tol Tolerance) error {
	if err := tol.internal().Validate(); err != nil {
		return err
	}
	if tol.KSPValue > 1 {
		return fmt.Errorf("invalid KSPValue: %g (must be between 0 and 1)", tol.KSPValue)
	}
	return nil
}

func (t Tolerance) internal() stats.Tolerance {
	return stats.Tolerance{Mean: t.Mean, Std: t.Std, Percentiles: t.Percentiles, KSPValue: t.KSPValue}
}

// Agree reports whether target and reference samples agree within tol.
// Panics if tol is invalid (use ValidateTolerance to check beforehand).
func Agree(target, reference []float64, tol Tolerance) bool {
	ok, _ := Compare(target, reference, tol)
	return ok
}

// Compare checks target samples against reference samples and returns a
// description of the first statistic that disagrees.
// Panics if tol is invalid (use ValidateTolerance to check beforehand).
func Compare(target, reference []float64, tol Tolerance) (bool, string) {
	if err := ValidateTolerance(tol); err != nil {
		panic(err)
	}
	if len(target) == 0 || len(reference) == 0 {
		return false, fmt.Sprintf("empty sample (target n=%d, reference n=%d)", len(target), len(reference))
	}

	ts, err := stats.Summarize(target, stats.DefaultPercentiles)
	if err != nil {
		return false, fmt.Sprintf("target: %v", err)
	}
	rs, err := stats.Summarize(reference, stats.DefaultPercentiles)
	if err != nil {
		return false, fmt.Sprintf("reference: %v", err)
	}
	if tol.KSPValue == 0 {
		ts.Samples, rs.Samples = nil, nil
	}

	mismatch, err := tests.CompareSummaries(ts, rs, tol.internal(), tests.DefaultPolicy())
	if err != nil {
		return false, err.Error()
	}
	if mismatch != nil {
		return false, mismatch.Error()
	}
	return true, ""
}

// ReferenceSamples draws the case's samples from the in-process gonum
// reference, seeded with the case seed.
func ReferenceSamples(ctx context.Context, c Case) ([]float64, error) {
	g := &reference.Gonum{}
	res, err := g.Validate(ctx, reference.Request{
		Validator:    reference.GonumID,
		Distribution: c.Distribution,
		Params:       c.Params,
		Seed:         c.Seed,
		Iterations:   c.Iterations,
		Samples:      true,
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("%s: %s", c.Name, res.Failure())
	}
	s, err := reference.ParseStats(res.Results)
	if err != nil {
		return nil, err
	}
	return s.Samples, nil
}

// FormatSummary renders the mean, std and percentiles of samples on one line.
func FormatSummary(samples []float64) string {
	s, err := stats.Summarize(samples, stats.DefaultPercentiles)
	if err != nil {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "n=%d mean=%.4f std=%.4f", len(samples), *s.Mean, *s.Std)
	for _, label := range s.PercentileLabels() {
		v, _ := s.Percentile(label)
		b.WriteString(" p")
		b.WriteString(label)
		b.WriteString("=")
		b.WriteString(strconv.FormatFloat(v, 'f', 4, 64))
	}
	return b.String()
}
