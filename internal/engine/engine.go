// Package engine drives the target engine under test: it runs a simulation
// for a rendered fixture and extracts the summary statistics it reports.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/AndreyAkinshin/stochval/internal/fixture"
	"github.com/AndreyAkinshin/stochval/internal/procexec"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// DefaultTimeout bounds a single simulation.
const DefaultTimeout = 30 * time.Second

// Engine runs a fixture through the target implementation.
type Engine interface {
	Simulate(ctx context.Context, f *fixture.Fixture) (*stats.Summary, error)
}

// ExitError reports a target engine process that exited unsuccessfully.
type ExitError struct {
	Code   int
	Stderr string
	Stdout string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	if s := strings.TrimSpace(e.Stdout); s != "" {
		msg += "\n" + s
	}
	return msg
}

// Forge runs the forge command-line simulator.
type Forge struct {
	Binary  string
	Timeout time.Duration
}

// NewForge returns a Forge with the default timeout.
func NewForge(binary string) *Forge {
	return &Forge{Binary: binary, Timeout: DefaultTimeout}
}

// Simulate runs `forge simulate <fixture> --seed N -o <out>` and parses the
// JSON results written to the fixture's output path.
func (e *Forge) Simulate(ctx context.Context, f *fixture.Fixture) (*stats.Summary, error) {
	out, err := procexec.Run(ctx, procexec.Command{
		Path: e.Binary,
		Args: []string{
			"simulate", f.Path,
			"--seed", strconv.FormatUint(f.Seed, 10),
			"-o", f.OutputPath,
		},
		Timeout: e.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if !out.Success() {
		return nil, &ExitError{Code: out.ExitCode, Stderr: string(out.Stderr), Stdout: string(out.Stdout)}
	}

	data, err := os.ReadFile(f.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return ParseOutput(data)
}

// Version returns the engine's reported version string.
func (e *Forge) Version(ctx context.Context) (string, error) {
	out, err := procexec.Run(ctx, procexec.Command{Path: e.Binary, Args: []string{"--version"}, Timeout: e.Timeout})
	if err != nil {
		return "", err
	}
	if !out.Success() {
		return "", &ExitError{Code: out.ExitCode, Stderr: string(out.Stderr)}
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

type resultsDocument struct {
	MonteCarlo *struct {
		Outputs map[string]outputStats `json:"outputs"`
	} `json:"monte_carlo_results"`
}

type outputStats struct {
	Mean        *float64           `json:"mean"`
	StdDev      *float64           `json:"std_dev"`
	Percentiles map[string]float64 `json:"percentiles"`
	Samples     []float64          `json:"samples"`
	CI          *stats.Interval    `json:"ci"`
}

// ParseOutput extracts the summary for the compared output variable.
// Mean and std_dev are required; percentile keys such as "p5" become "5".
func ParseOutput(data []byte) (*stats.Summary, error) {
	var doc resultsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.MonteCarlo == nil {
		return nil, errors.New("missing monte_carlo_results")
	}
	if doc.MonteCarlo.Outputs == nil {
		return nil, errors.New("missing outputs")
	}
	out, ok := doc.MonteCarlo.Outputs[fixture.OutputVariable]
	if !ok {
		return nil, fmt.Errorf("missing %s", fixture.OutputVariable)
	}
	if out.Mean == nil {
		return nil, errors.New("missing mean")
	}
	if out.StdDev == nil {
		return nil, errors.New("missing std_dev")
	}

	pcts := make(map[string]float64, len(out.Percentiles))
	for k, v := range out.Percentiles {
		pcts[strings.TrimPrefix(k, "p")] = v
	}

	return &stats.Summary{
		Mean:        out.Mean,
		Std:         out.StdDev,
		Percentiles: pcts,
		CI:          out.CI,
		Samples:     out.Samples,
	}, nil
}

// relativeBuildPath is where a sibling forge checkout puts its release binary.
const relativeBuildPath = "../forge/target/release/forge"

// FindForgeBinary resolves the engine binary from FORGE_BIN, a sibling
// release build, or PATH, in that order.
func FindForgeBinary() (string, bool) {
	if p := os.Getenv("FORGE_BIN"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	if _, err := os.Stat(relativeBuildPath); err == nil {
		return relativeBuildPath, true
	}
	if p, err := exec.LookPath("forge"); err == nil {
		return p, true
	}
	return "", false
}
