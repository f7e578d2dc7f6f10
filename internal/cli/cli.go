// Package cli provides command-line interface functionality for stochval.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/stochval/internal/errors"
	"github.com/AndreyAkinshin/stochval/internal/output"
)

// Version is set at build time.
var Version = "dev"

var out = output.New()

// errRunFailed marks a run whose verdicts failed; the report already explains why.
var errRunFailed = errors.New("comparison run failed")

// globalOptions holds persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
	quiet     bool
	noColor   bool
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return errors.ExitSuccess
	}
	if err != errRunFailed {
		out.ErrorPrefix("%v", err)
	}
	return errors.GetExitCode(err)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "stochval",
		Short: "Statistical agreement checks between a Monte Carlo engine and reference validators",
		Long: "stochval runs each Monte Carlo test case through the forge engine and an\n" +
			"independent reference validator, then compares the two sample summaries\n" +
			"within per-statistic tolerances.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			out.SetQuiet(opts.quiet)
			if opts.noColor {
				out.SetColor(false)
			}
			logger, err := newLogger(os.Stderr, opts.logLevel, opts.logFormat)
			if err != nil {
				return errors.Config(err.Error())
			}
			slog.SetDefault(logger)
			return nil
		},
	}
	root.SetOut(out.Out())
	root.SetVersionTemplate("stochval {{.Version}}\n")

	f := root.PersistentFlags()
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress informational output")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newCheckCmd(),
		newConfigCmd(),
		newSummaryCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stochval version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stochval %s\n", Version)
		},
	}
}

// newLogger builds the slog logger for diagnostics on w.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q (must be debug, info, warn or error)", level)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (must be text or json)", format)
	}
}
