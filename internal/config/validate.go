package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// MaxParallel caps execution.parallel and STOCHVAL_PARALLEL.
const MaxParallel = 256

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for errors and returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validateTimeouts(cfg); err != nil {
		return nil, err
	}
	if err := validateTests(cfg); err != nil {
		return nil, err
	}
	if err := validateTolerance(cfg); err != nil {
		return nil, err
	}
	if err := validatePolicy(cfg); err != nil {
		return nil, err
	}
	if err := validateExecution(cfg); err != nil {
		return nil, err
	}

	if cfg.Execution != nil && cfg.Execution.KeepFixtures && cfg.Execution.Parallel > 1 {
		warnings = append(warnings, "execution.keep_fixtures with parallel > 1 leaves one directory per case; clean the run directory manually")
	}
	return warnings, nil
}

func validateTimeouts(cfg *Config) error {
	if cfg.Engine != nil && cfg.Engine.TimeoutMs < 0 {
		return &ValidationError{Field: "engine.timeout_ms", Message: "must be positive"}
	}
	if cfg.Reference != nil && cfg.Reference.TimeoutMs < 0 {
		return &ValidationError{Field: "reference.timeout_ms", Message: "must be positive"}
	}
	return nil
}

func validateTests(cfg *Config) error {
	if cfg.Tests == nil || cfg.Tests.Pattern == "" {
		return nil
	}
	if _, err := filepath.Match(cfg.Tests.Pattern, ""); err != nil {
		return &ValidationError{Field: "tests.pattern", Message: fmt.Sprintf("invalid glob: %v", err)}
	}
	return nil
}

func validateTolerance(cfg *Config) error {
	tol, err := cfg.ResolveTolerance()
	if err != nil {
		return &ValidationError{Field: "tolerance.preset", Message: err.Error()}
	}
	if err := tol.Validate(); err != nil {
		return &ValidationError{Field: "tolerance", Message: err.Error()}
	}
	if tol.KSPValue > 1 {
		return &ValidationError{Field: "tolerance.ks_pvalue", Message: "must be between 0 and 1"}
	}
	return nil
}

func validatePolicy(cfg *Config) error {
	if cfg.Policy == nil {
		return nil
	}
	for i, label := range cfg.Policy.Percentiles {
		p, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
		if err != nil || math.IsNaN(p) || p < 0 || p > 100 {
			return &ValidationError{
				Field:   fmt.Sprintf("policy.percentiles[%d]", i),
				Message: fmt.Sprintf("%q is not a percentile between 0 and 100", label),
			}
		}
	}
	return nil
}

func validateExecution(cfg *Config) error {
	if cfg.Execution == nil {
		return nil
	}
	if cfg.Execution.Parallel < 0 || cfg.Execution.Parallel > MaxParallel {
		return &ValidationError{
			Field:   "execution.parallel",
			Message: fmt.Sprintf("must be between 1 and %d", MaxParallel),
		}
	}
	return nil
}

// ValidatePreset checks a tolerance preset name such as one given on the command line.
func ValidatePreset(name string) error {
	if _, err := stats.TolerancePreset(name); err != nil {
		return &ValidationError{Field: "preset", Message: err.Error()}
	}
	return nil
}
