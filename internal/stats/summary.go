package stats

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"

	mstats "github.com/montanaflynn/stats"
)

// DefaultPercentiles are the percentile labels requested from the target
// engine for every fixture.
var DefaultPercentiles = []int{5, 10, 25, 50, 75, 90, 95}

// Interval is a confidence interval reported by one implementation.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Summary is the comparable artifact extracted from one implementation's
// output. Percentile keys are decimal labels such as "5", "50" and "95".
type Summary struct {
	Mean        *float64           `json:"mean,omitempty"`
	Std         *float64           `json:"std,omitempty"`
	Percentiles map[string]float64 `json:"percentiles,omitempty"`
	CI          *Interval          `json:"ci,omitempty"`
	Samples     []float64          `json:"-"`
}

// Float returns a pointer to v, for populating optional summary fields.
func Float(v float64) *float64 {
	return &v
}

// MeanValue returns the mean, if present.
func (s *Summary) MeanValue() (float64, bool) {
	if s == nil || s.Mean == nil {
		return 0, false
	}
	return *s.Mean, true
}

// StdValue returns the standard deviation, if present.
func (s *Summary) StdValue() (float64, bool) {
	if s == nil || s.Std == nil {
		return 0, false
	}
	return *s.Std, true
}

// Percentile returns the value stored under label, if present.
func (s *Summary) Percentile(label string) (float64, bool) {
	if s == nil || s.Percentiles == nil {
		return 0, false
	}
	v, ok := s.Percentiles[label]
	return v, ok
}

// PercentileLabels returns the summary's percentile labels in numeric order.
func (s *Summary) PercentileLabels() []string {
	if s == nil {
		return nil
	}
	labels := slices.Collect(maps.Keys(s.Percentiles))
	slices.SortFunc(labels, func(a, b string) int {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA != nil || errB != nil {
			return cmp.Compare(a, b)
		}
		return cmp.Compare(fa, fb)
	})
	return labels
}

// HasSamples reports whether raw samples are available for a KS test.
func (s *Summary) HasSamples() bool {
	return s != nil && len(s.Samples) > 0
}

// Summarize computes mean, population standard deviation and the requested
// percentiles of a sample. The returned summary keeps a reference to samples.
func Summarize(samples []float64, percentiles []int) (*Summary, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot summarize an empty sample")
	}
	if err := CheckFinite(samples); err != nil {
		return nil, err
	}

	data := mstats.Float64Data(samples)

	mean, err := data.Mean()
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	std, err := data.StandardDeviationPopulation()
	if err != nil {
		return nil, fmt.Errorf("standard deviation: %w", err)
	}

	pcts := make(map[string]float64, len(percentiles))
	for _, p := range percentiles {
		v, err := data.PercentileNearestRank(float64(p))
		if err != nil {
			return nil, fmt.Errorf("percentile %d: %w", p, err)
		}
		pcts[strconv.Itoa(p)] = v
	}

	return &Summary{
		Mean:        Float(mean),
		Std:         Float(std),
		Percentiles: pcts,
		Samples:     samples,
	}, nil
}
