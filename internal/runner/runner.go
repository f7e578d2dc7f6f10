// Package runner drives comparison cases through the verdict state machine,
// sequentially or on a bounded worker pool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AndreyAkinshin/stochval/internal/engine"
	"github.com/AndreyAkinshin/stochval/internal/fixture"
	"github.com/AndreyAkinshin/stochval/internal/formula"
	"github.com/AndreyAkinshin/stochval/internal/output"
	"github.com/AndreyAkinshin/stochval/internal/procexec"
	"github.com/AndreyAkinshin/stochval/internal/reference"
	"github.com/AndreyAkinshin/stochval/internal/stats"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

var out = output.New()

// EnvParallel overrides the configured worker count.
const EnvParallel = "STOCHVAL_PARALLEL"

const (
	minParallelWorkers = 1

	// maxParallelWorkers caps STOCHVAL_PARALLEL. Each case spawns up to two
	// subprocesses, so more workers than this only thrash the scheduler.
	maxParallelWorkers = 256
)

// Pipeline stages, reported on non-pass verdicts and in logs.
const (
	StageFormula   = "formula"
	StageFixture   = "fixture"
	StageTarget    = "target"
	StageReference = "reference"
	StageParse     = "parse"
	StageCompare   = "compare"
)

// Collaborator names used for invocation metrics.
const (
	CollaboratorTarget    = "target"
	CollaboratorReference = "reference"
)

// Sink receives verdicts in input order as soon as they are final.
type Sink interface {
	Case(v tests.Verdict)
}

// Observer is notified of verdicts and external invocations, typically to record metrics.
type Observer interface {
	ObserveVerdict(v tests.Verdict)
	ObserveInvocation(collaborator string, d time.Duration, err error)
}

// Options configures execution behavior.
type Options struct {
	// Parallel is the worker count; values below 1 run sequentially.
	Parallel int
	// ConcurrentInvocations runs the target and reference of one case at the same time.
	ConcurrentInvocations bool
	Policy                tests.Policy
}

// Runner evaluates TestSpecs against a target engine and a reference validator.
type Runner struct {
	engine    engine.Engine
	reference reference.Validator
	workspace *fixture.Workspace
	opts      Options
	logger    *slog.Logger
	sink      Sink
	observer  Observer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithSink streams verdicts to s in input order.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithObserver records verdicts and invocation timings.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// New creates a new Runner.
func New(e engine.Engine, ref reference.Validator, ws *fixture.Workspace, opts Options, options ...Option) *Runner {
	r := &Runner{
		engine:    e,
		reference: ref,
		workspace: ws,
		opts:      opts,
		logger:    slog.Default(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// RunAll evaluates every spec and returns verdicts in input order. Per-case
// failures become verdicts; no error crosses a case boundary.
func (r *Runner) RunAll(ctx context.Context, specs []tests.TestSpec) []tests.Verdict {
	verdicts := make([]tests.Verdict, len(specs))
	emit := newOrderedEmitter(r.sink, verdicts)

	workers := max(minParallelWorkers, min(r.opts.Parallel, maxParallelWorkers))
	if workers == 1 {
		for i := range specs {
			verdicts[i] = r.RunCase(ctx, &specs[i])
			emit.done(i)
		}
		return verdicts
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range specs {
		g.Go(func() error {
			v := r.RunCase(ctx, &specs[i])
			emit.store(i, v)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// RunCase drives one spec through the state machine and returns its verdict.
func (r *Runner) RunCase(ctx context.Context, spec *tests.TestSpec) tests.Verdict {
	start := time.Now()
	log := r.logger.With(slog.String("case", spec.Name))
	log.Debug("case started", slog.String("distribution", spec.Distribution))

	v := r.evaluate(ctx, spec, log)
	v.Name = spec.Name
	v.Suite = spec.Suite
	v.Duration = time.Since(start)

	attrs := []any{slog.String("status", string(v.Status)), slog.Duration("duration", v.Duration)}
	if v.Stage != "" {
		attrs = append(attrs, slog.String("stage", v.Stage))
	}
	if v.IsPass() || v.IsSkip() {
		log.Info("case finished", attrs...)
	} else {
		log.Warn("case finished", append(attrs, slog.String("message", v.Message))...)
	}
	if r.observer != nil {
		r.observer.ObserveVerdict(v)
	}
	return v
}

func (r *Runner) evaluate(ctx context.Context, spec *tests.TestSpec, log *slog.Logger) tests.Verdict {
	if !spec.HasDistribution() {
		return tests.Skip(spec.Name, "No distribution specified (not a Monte Carlo test)")
	}
	if err := ctx.Err(); err != nil {
		return staged(tests.Errorf(spec.Name, "Cancelled before start: %v", err), StageFormula)
	}

	f, err := formula.Build(spec.Distribution, spec.Params)
	if err != nil {
		return staged(tests.Skip(spec.Name, fmt.Sprintf("Cannot build formula: %v", err)), StageFormula)
	}
	log.Debug("formula built", slog.String("formula", f.String()))

	fx, err := r.workspace.Prepare(spec, f)
	if err != nil {
		return staged(tests.Errorf(spec.Name, "Failed to write fixture: %v", err), StageFixture)
	}
	defer func() {
		if err := r.workspace.Cleanup(fx); err != nil {
			log.Warn("fixture cleanup failed", slog.Any("error", err))
		}
	}()

	req := reference.NewRequest(spec)
	req.Samples = spec.Effective.KSPValue > 0

	target, targetErr, result, refErr := r.invoke(ctx, fx, req)

	if targetErr != nil {
		return staged(tests.Errorf(spec.Name, "Target engine failed: %v", targetErr), StageTarget)
	}
	if refErr != nil {
		return staged(tests.Errorf(spec.Name, "Reference validator failed: %v", refErr), StageReference)
	}
	if !result.Success {
		return staged(tests.Errorf(spec.Name, "Reference returned error: %s", result.Failure()), StageReference)
	}

	refStats, err := reference.ParseStats(result.Results)
	if err != nil {
		log.Debug("reference statistics unparseable", slog.Any("error", err))
		return staged(tests.Errorf(spec.Name, "Failed to parse reference statistics"), StageParse)
	}

	if err := tests.CheckExpected(refStats, spec.Expected, spec.Effective, r.opts.Policy); err != nil {
		log.Warn("reference does not match expected hints", slog.Any("error", err))
	}

	mismatch, err := tests.CompareSummaries(target, refStats, spec.Effective, r.opts.Policy)
	if err != nil {
		return withSummaries(staged(tests.Errorf(spec.Name, "%v", err), StageCompare), target, refStats)
	}
	if mismatch != nil {
		return withSummaries(staged(tests.Fail(spec.Name, mismatch.Error()), StageCompare), target, refStats)
	}

	mean, _ := target.MeanValue()
	std, _ := target.StdValue()
	return withSummaries(tests.Pass(spec.Name, fmt.Sprintf("mean=%.2f std=%.2f (within tolerance)", mean, std)), target, refStats)
}

// invoke runs the target and the reference, concurrently when configured.
// Both always complete before results are combined.
func (r *Runner) invoke(ctx context.Context, fx *fixture.Fixture, req reference.Request) (
	target *stats.Summary, targetErr error, result *reference.Result, refErr error,
) {
	runTarget := func() {
		start := time.Now()
		target, targetErr = r.engine.Simulate(ctx, fx)
		r.observeInvocation(CollaboratorTarget, time.Since(start), targetErr)
	}
	runReference := func() {
		start := time.Now()
		result, refErr = r.reference.Validate(ctx, req)
		if refErr == nil && result == nil {
			refErr = errors.New("reference returned no result")
		}
		r.observeInvocation(CollaboratorReference, time.Since(start), refErr)
	}

	if !r.opts.ConcurrentInvocations {
		runTarget()
		if targetErr != nil {
			return
		}
		runReference()
		return
	}

	var g errgroup.Group
	g.Go(func() error { runTarget(); return nil })
	g.Go(func() error { runReference(); return nil })
	_ = g.Wait()
	return
}

func (r *Runner) observeInvocation(collaborator string, d time.Duration, err error) {
	if r.observer != nil {
		r.observer.ObserveInvocation(collaborator, d, err)
	}
	if procexec.IsTimeout(err) {
		r.logger.Warn("invocation timed out", slog.String("collaborator", collaborator), slog.Duration("duration", d))
	}
}

func staged(v tests.Verdict, stage string) tests.Verdict {
	v.Stage = stage
	return v
}

func withSummaries(v tests.Verdict, target, ref *stats.Summary) tests.Verdict {
	v.Target = target
	v.Reference = ref
	return v
}

// orderedEmitter forwards completed verdicts to a sink, holding back any that
// finish ahead of an earlier case.
type orderedEmitter struct {
	mu       sync.Mutex
	sink     Sink
	verdicts []tests.Verdict
	ready    []bool
	next     int
}

func newOrderedEmitter(sink Sink, verdicts []tests.Verdict) *orderedEmitter {
	return &orderedEmitter{sink: sink, verdicts: verdicts, ready: make([]bool, len(verdicts))}
}

func (e *orderedEmitter) store(i int, v tests.Verdict) {
	e.mu.Lock()
	e.verdicts[i] = v
	e.mu.Unlock()
	e.done(i)
}

func (e *orderedEmitter) done(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready[i] = true
	for e.next < len(e.verdicts) && e.ready[e.next] {
		if e.sink != nil {
			e.sink.Case(e.verdicts[e.next])
		}
		e.next++
	}
}

// Workers returns the worker count to use: STOCHVAL_PARALLEL when set and
// valid, otherwise configured. Invalid values (non-numeric, <1, >256) print a
// warning and fall back. The result is always at least 1.
func Workers(configured int) int {
	fallback := max(minParallelWorkers, min(configured, maxParallelWorkers))

	env := os.Getenv(EnvParallel)
	if env == "" {
		return fallback
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		out.Warning("invalid %s value %q (not a number), using %d", EnvParallel, env, fallback)
		return fallback
	}

	if n < minParallelWorkers || n > maxParallelWorkers {
		out.Warning("%s=%d out of range [%d-%d], using %d", EnvParallel, n, minParallelWorkers, maxParallelWorkers, fallback)
		return fallback
	}

	return n
}
