package stats

import (
	"fmt"
	"math"
	"slices"
)

const (
	ksMaxTerms      = 100
	ksTermThreshold = 1e-10
)

// KSResult is the outcome of a two-sample Kolmogorov-Smirnov test.
type KSResult struct {
	D      float64 `json:"d"`
	PValue float64 `json:"p_value"`
	N1     int     `json:"n1"`
	N2     int     `json:"n2"`
}

// KSStatistic computes the two-sample Kolmogorov-Smirnov statistic D, the
// largest vertical gap between the empirical CDFs of a and b.
//
// Both samples are sorted and merge-walked; on ties the pointer into a moves
// first. The gap is measured only once every copy of the current value has
// been consumed from both samples, so identical samples yield 0. An empty
// sample on either side yields 1.0. Inputs are not modified.
//
// Samples must be finite: NaN never equals itself, so it never closes a tie
// and a NaN-bearing sample reports D = 1 even against itself. Callers check
// with CheckFinite first.
func KSStatistic(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 1.0
	}

	sortedA := slices.Clone(a)
	sortedB := slices.Clone(b)
	slices.Sort(sortedA)
	slices.Sort(sortedB)

	n1 := float64(len(sortedA))
	n2 := float64(len(sortedB))

	var i, j int
	var maxD float64

	for i < len(sortedA) || j < len(sortedB) {
		var cur float64
		if j >= len(sortedB) || (i < len(sortedA) && sortedA[i] <= sortedB[j]) {
			cur = sortedA[i]
			i++
		} else {
			cur = sortedB[j]
			j++
		}

		if (i < len(sortedA) && sortedA[i] == cur) || (j < len(sortedB) && sortedB[j] == cur) {
			continue
		}

		maxD = math.Max(maxD, math.Abs(float64(i)/n1-float64(j)/n2))
	}

	return maxD
}

// KSPValue approximates the p-value of statistic d for sample sizes n1 and n2
// using the asymptotic Kolmogorov distribution.
func KSPValue(d float64, n1, n2 int) float64 {
	if d <= 0 {
		return 1.0
	}
	if d >= 1 {
		return 0.0
	}
	if n1 <= 0 || n2 <= 0 {
		return 0.0
	}

	n := float64(n1) * float64(n2) / float64(n1+n2)
	sqrtN := math.Sqrt(n)
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	lambdaSq := lambda * lambda

	var sum float64
	converged := false
	for k := 1; k <= ksMaxTerms; k++ {
		kf := float64(k)
		term := math.Exp(-2 * kf * kf * lambdaSq)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
		if term < ksTermThreshold {
			converged = true
			break
		}
	}

	// The series only fails to converge for lambda below ~0.034, where the
	// Kolmogorov survival function is 1 to machine precision.
	if !converged {
		return 1.0
	}

	// Truncating the alternating series leaves an error below twice the
	// last term, so anything that close to 1 is 1.
	p := 2 * sum
	if p > 1-2*ksTermThreshold {
		return 1.0
	}
	return clamp(p, 0, 1)
}

// KSTest runs the two-sample test on a and b.
func KSTest(a, b []float64) KSResult {
	d := KSStatistic(a, b)
	return KSResult{
		D:      d,
		PValue: KSPValue(d, len(a), len(b)),
		N1:     len(a),
		N2:     len(b),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// NonFiniteError reports a NaN or infinite value in a sample.
type NonFiniteError struct {
	Index int
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("sample contains non-finite value %v at index %d", e.Value, e.Index)
}

// CheckFinite returns a *NonFiniteError for the first NaN or infinite value.
func CheckFinite(samples []float64) error {
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &NonFiniteError{Index: i, Value: v}
		}
	}
	return nil
}
