package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/stochval/internal/engine"
	"github.com/AndreyAkinshin/stochval/internal/errors"
	"github.com/AndreyAkinshin/stochval/internal/fixture"
	"github.com/AndreyAkinshin/stochval/internal/metrics"
	"github.com/AndreyAkinshin/stochval/internal/project"
	"github.com/AndreyAkinshin/stochval/internal/reference"
	"github.com/AndreyAkinshin/stochval/internal/report"
	"github.com/AndreyAkinshin/stochval/internal/runner"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

type runFlags struct {
	suiteFlags
	binary      string
	validators  string
	failOnError bool
	parallel    int
	concurrent  bool
	keep        bool
	reportPath  string
	metricsPath string
	verbose     bool
}

func newRunCmd() *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every test case against the target engine and its reference",
		Example: "  stochval run\n" +
			"  stochval run --parallel 8 --report out/report.json\n" +
			"  stochval run --run '^normal_' --preset deterministic",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRun(ctx, rf, cmd.Flags().Changed("parallel"))
		},
	}

	f := cmd.Flags()
	f.StringVar(&rf.testsDir, "tests", "", "suite directory (default from config)")
	f.StringVar(&rf.pattern, "pattern", "", "suite file glob (default from config)")
	f.StringVar(&rf.preset, "preset", "", "tolerance preset: stochastic or deterministic")
	f.BoolVar(&rf.strict, "strict", false, "treat unparseable suite files as errors")
	f.StringVar(&rf.filter, "run", "", "only run cases whose name matches this regular expression")
	f.StringVar(&rf.binary, "binary", "", "forge binary (default: FORGE_BIN, sibling build, PATH)")
	f.StringVar(&rf.validators, "validators", "", "reference validator script directory")
	f.BoolVar(&rf.failOnError, "fail-on-error", false, "exit non-zero when any case errors")
	f.IntVarP(&rf.parallel, "parallel", "j", 1, "number of cases to run at once")
	f.BoolVar(&rf.concurrent, "concurrent-invocations", false, "run target and reference of a case at the same time")
	f.BoolVar(&rf.keep, "keep-fixtures", false, "keep generated fixtures under .stochval/runs")
	f.StringVar(&rf.reportPath, "report", "", "write a JSON report to this file")
	f.StringVar(&rf.metricsPath, "metrics-file", "", "write Prometheus textfile metrics to this file")
	f.BoolVarP(&rf.verbose, "verbose", "v", false, "print details of passing cases")
	return cmd
}

func runRun(ctx context.Context, rf *runFlags, parallelSet bool) error {
	proj, err := loadProject(&rf.suiteFlags)
	if err != nil {
		return err
	}
	cfg := proj.Config
	if rf.binary != "" {
		cfg.Engine.Binary = rf.binary
	}
	if rf.validators != "" {
		cfg.Reference.ValidatorsDir = rf.validators
	}
	if rf.failOnError {
		cfg.Policy.FailOnError = true
	}
	if rf.concurrent {
		cfg.Execution.ConcurrentInvocations = true
	}
	if rf.keep {
		cfg.Execution.KeepFixtures = true
	}

	specs, err := loadSpecs(proj, &rf.suiteFlags)
	if err != nil {
		return err
	}

	forgePath, err := resolveForge(cfg.Engine.Binary)
	if err != nil {
		return err
	}
	forge := engine.NewForge(forgePath)
	forge.Timeout = time.Duration(cfg.Engine.TimeoutMs) * time.Millisecond

	rscript := reference.NewRscript(cfg.Reference.Rscript, proj.ValidatorsDir())
	rscript.Timeout = time.Duration(cfg.Reference.TimeoutMs) * time.Millisecond

	rVersion := "not required"
	if needsRscript(specs) {
		rVersion, err = rscript.CheckAvailable(ctx)
		if err != nil {
			return errors.Environment("R (Rscript) not found. Install with:\n  macOS: brew install r\n  Ubuntu: apt install r-base")
		}
	}

	workers := cfg.Execution.Parallel
	if parallelSet {
		workers = rf.parallel
	} else {
		workers = runner.Workers(workers)
	}

	base := ""
	if cfg.Execution.KeepFixtures {
		base = proj.FixtureDir()
	}
	ws := fixture.NewWorkspace(base, cfg.Execution.KeepFixtures)
	defer func() {
		if err := ws.Close(); err != nil {
			slog.Warn("failed to remove run directory", slog.String("dir", ws.Root), slog.Any("error", err))
		}
	}()

	printRunHeader(proj, forgePath, rVersion, len(specs), workers)

	sinks := report.Multi{report.NewConsole(out, rf.verbose)}
	if rf.reportPath != "" {
		sinks = append(sinks, report.NewJSON(rf.reportPath))
	}
	rec := metrics.New()

	r := runner.New(
		forge,
		&reference.Router{Gonum: &reference.Gonum{}, External: rscript},
		ws,
		runner.Options{
			Parallel:              workers,
			ConcurrentInvocations: cfg.Execution.ConcurrentInvocations,
			Policy: tests.Policy{
				LenientPercentiles: cfg.Lenient(),
				Percentiles:        cfg.Policy.Percentiles,
			},
		},
		runner.WithLogger(slog.Default().With(slog.String("run_id", ws.RunID))),
		runner.WithSink(sinks),
		runner.WithObserver(rec),
	)

	start := time.Now()
	verdicts := r.RunAll(ctx, specs)
	summary := report.Summarize(ws.RunID, verdicts, time.Since(start), cfg.Policy.FailOnError)

	if err := sinks.Finish(summary); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	if rf.metricsPath != "" {
		if err := rec.WriteTextfile(rf.metricsPath, time.Now()); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	if cfg.Execution.KeepFixtures {
		out.Hint("fixtures kept in %s", ws.Root)
	}

	if summary.Failed {
		return errRunFailed
	}
	return nil
}

// resolveForge returns the engine binary to run, failing with an environment error.
func resolveForge(configured string) (string, error) {
	if configured == "" {
		p, ok := engine.FindForgeBinary()
		if !ok {
			return "", errors.Environment("Forge binary not found. Set FORGE_BIN or use --binary")
		}
		return p, nil
	}
	if _, err := os.Stat(configured); err == nil {
		return configured, nil
	}
	if p, err := exec.LookPath(configured); err == nil {
		return p, nil
	}
	return "", errors.Environmentf("Forge binary not found: %s", configured)
}

func needsRscript(specs []tests.TestSpec) bool {
	for _, s := range specs {
		if s.HasDistribution() && s.Validator != reference.GonumID {
			return true
		}
	}
	return false
}

func printRunHeader(proj *project.Project, forgePath, rVersion string, cases, workers int) {
	out.Info("stochval %s", Version)
	out.Info("  Forge: %s", forgePath)
	out.Info("  R: %s", rVersion)
	out.Info("  Tests: %s", proj.TestsDir())
	out.Info("  Validators: %s", proj.ValidatorsDir())
	out.Info("")
	out.Info("Running %s with %d %s...", plural(cases, "case"), workers, pluralWord(workers, "worker"))
}

func plural(n int, word string) string {
	return fmt.Sprintf("%d %s", n, pluralWord(n, word))
}

func pluralWord(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
