package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/stochval/internal/errors"
	"github.com/AndreyAkinshin/stochval/internal/report"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [report.json|-]",
		Short: "Print the summary of a JSON report written by 'stochval run --report'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			return runSummary(cmd.InOrStdin(), path)
		},
	}
}

func runSummary(stdin io.Reader, path string) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.Wrap(err, "failed to read report")
	}

	var doc report.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Configf("not a stochval report: %v", err)
	}
	if doc.RunID == "" && len(doc.Verdicts) == 0 {
		out.Errorln("hint: write a report with 'stochval run --report report.json'")
		return errors.Config("no verdicts found in input")
	}

	console := report.NewConsole(out, false)
	for _, v := range doc.Verdicts {
		if !v.IsPass() {
			console.Case(v)
		}
	}
	summary := report.Summarize(doc.RunID, doc.Verdicts, doc.Summary.Elapsed, doc.Summary.FailOnError)
	if err := console.Finish(summary); err != nil {
		return err
	}
	out.Info("Run %s", displayRunID(doc.RunID))

	if summary.Failed {
		return errRunFailed
	}
	return nil
}

func displayRunID(id string) string {
	if id == "" {
		return "(unknown)"
	}
	return id
}
