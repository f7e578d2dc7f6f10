package report

import (
	"fmt"
	"time"

	"github.com/AndreyAkinshin/stochval/internal/output"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Console prints one line per verdict and a colored summary.
type Console struct {
	out     *output.Writer
	verbose bool
}

// NewConsole creates a console sink. Verbose also prints details of passing cases.
func NewConsole(w *output.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// Case prints a verdict line.
func (c *Console) Case(v tests.Verdict) {
	detail := v.Message
	if v.IsPass() && !c.verbose {
		detail = ""
	}
	c.out.CaseLine(mark(v.Status), v.Name, formatDuration(v.Duration), detail)
}

// Finish prints totals and the final banner.
func (c *Console) Finish(s Summary) error {
	n := s.Counts
	c.out.SummaryHeader("Summary")
	c.out.SummaryItem("Total", fmt.Sprintf("%d", n.Total))
	c.out.SummaryPassed("Passed", fmt.Sprintf("%d", n.Passed))
	if n.Failed > 0 {
		c.out.SummaryFailed("Failed", fmt.Sprintf("%d", n.Failed))
	}
	if n.Errored > 0 {
		c.out.SummaryFailed("Errors", fmt.Sprintf("%d", n.Errored))
	}
	if n.Skipped > 0 {
		c.out.SummarySkipped("Skipped", fmt.Sprintf("%d", n.Skipped))
	}
	c.out.SummaryItem("Elapsed", formatDuration(s.Elapsed))

	if s.Failed {
		c.out.FinalFailure("FAIL: %d failed, %d errors out of %d cases", n.Failed, n.Errored, n.Total)
		return nil
	}
	c.out.FinalSuccess("PASS: %d of %d cases agree", n.Passed, n.Total)
	if n.Errored > 0 && !s.FailOnError {
		c.out.Hint("%d cases could not be evaluated; use --fail-on-error to gate on them", n.Errored)
	}
	return nil
}

func mark(s tests.Status) int {
	switch s {
	case tests.StatusPass:
		return output.MarkPass
	case tests.StatusFail:
		return output.MarkFail
	case tests.StatusError:
		return output.MarkError
	default:
		return output.MarkSkip
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
