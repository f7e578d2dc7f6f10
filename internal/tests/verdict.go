package tests

import (
	"fmt"
	"time"

	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// Status is the outcome category of one comparison case.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
	StatusSkip  Status = "skip"
)

// Verdict is the final result of running one TestSpec.
type Verdict struct {
	Name      string         `json:"name"`
	Suite     string         `json:"suite,omitempty"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Stage     string         `json:"stage,omitempty"` // pipeline stage that produced a non-pass verdict
	Target    *stats.Summary `json:"target,omitempty"`
	Reference *stats.Summary `json:"reference,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Pass builds a passing verdict.
func Pass(name, details string) Verdict {
	return Verdict{Name: name, Status: StatusPass, Message: details}
}

// Fail builds a verdict for a statistic outside tolerance.
func Fail(name, reason string) Verdict {
	return Verdict{Name: name, Status: StatusFail, Message: reason}
}

// Errorf builds a verdict for a case that could not be evaluated.
func Errorf(name, format string, args ...any) Verdict {
	return Verdict{Name: name, Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Skip builds a verdict for a case that is not applicable.
func Skip(name, reason string) Verdict {
	return Verdict{Name: name, Status: StatusSkip, Message: reason}
}

func (v Verdict) IsPass() bool  { return v.Status == StatusPass }
func (v Verdict) IsFail() bool  { return v.Status == StatusFail }
func (v Verdict) IsError() bool { return v.Status == StatusError }
func (v Verdict) IsSkip() bool  { return v.Status == StatusSkip }

// Tally aggregates verdict counts for a run.
type Tally struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errors"`
	Skipped int `json:"skipped"`
}

// Count tallies verdicts by status.
func Count(verdicts []Verdict) Tally {
	t := Tally{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case StatusPass:
			t.Passed++
		case StatusFail:
			t.Failed++
		case StatusError:
			t.Errored++
		case StatusSkip:
			t.Skipped++
		}
	}
	return t
}

// RunFailed reports whether the run as a whole failed. Error verdicts count
// only when failOnError is set.
func (t Tally) RunFailed(failOnError bool) bool {
	return t.Failed > 0 || (failOnError && t.Errored > 0)
}
