// Package report delivers verdicts and the run summary to the console and to
// machine-readable files.
package report

import (
	"errors"
	"time"

	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Summary aggregates a finished run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Counts      tests.Tally   `json:"counts"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	FailOnError bool          `json:"fail_on_error"`
	Failed      bool          `json:"failed"`
}

// Summarize computes the summary once every case has finished.
func Summarize(runID string, verdicts []tests.Verdict, elapsed time.Duration, failOnError bool) Summary {
	counts := tests.Count(verdicts)
	return Summary{
		RunID:       runID,
		Counts:      counts,
		Elapsed:     elapsed,
		FailOnError: failOnError,
		Failed:      counts.RunFailed(failOnError),
	}
}

// Sink receives verdicts in input order, then the summary.
type Sink interface {
	Case(v tests.Verdict)
	Finish(s Summary) error
}

// Multi fans out to several sinks.
type Multi []Sink

// Case forwards v to every sink.
func (m Multi) Case(v tests.Verdict) {
	for _, s := range m {
		s.Case(v)
	}
}

// Finish forwards s to every sink and joins their errors.
func (m Multi) Finish(s Summary) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Finish(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
