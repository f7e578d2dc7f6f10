package config

import (
	"strings"

	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// Default configuration values.
const (
	DefaultEngineTimeoutMs    = 30_000
	DefaultRscript            = "Rscript"
	DefaultValidatorsDir      = "validators/r"
	DefaultValidator          = "monte_carlo_validator.R"
	DefaultReferenceTimeoutMs = 30_000
	DefaultTestsDirectory     = "tests/analytics"
	DefaultTestsPattern       = "*.yaml"
	DefaultParallel           = 1
)

// DefaultPercentiles are the percentile labels compared when the policy lists none.
var DefaultPercentiles = []string{"5", "50", "95"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyEngineDefaults(cfg)
	applyReferenceDefaults(cfg)
	applyTestsDefaults(cfg)
	applyToleranceDefaults(cfg)
	applyPolicyDefaults(cfg)
	applyExecutionDefaults(cfg)
}

func applyEngineDefaults(cfg *Config) {
	if cfg.Engine == nil {
		cfg.Engine = &EngineConfig{}
	}
	if cfg.Engine.TimeoutMs == 0 {
		cfg.Engine.TimeoutMs = DefaultEngineTimeoutMs
	}
}

func applyReferenceDefaults(cfg *Config) {
	if cfg.Reference == nil {
		cfg.Reference = &ReferenceConfig{}
	}
	if cfg.Reference.Rscript == "" {
		cfg.Reference.Rscript = DefaultRscript
	}
	if cfg.Reference.ValidatorsDir == "" {
		cfg.Reference.ValidatorsDir = DefaultValidatorsDir
	}
	if cfg.Reference.DefaultValidator == "" {
		cfg.Reference.DefaultValidator = DefaultValidator
	}
	if cfg.Reference.TimeoutMs == 0 {
		cfg.Reference.TimeoutMs = DefaultReferenceTimeoutMs
	}
}

func applyTestsDefaults(cfg *Config) {
	if cfg.Tests == nil {
		cfg.Tests = &TestsConfig{}
	}
	if cfg.Tests.Directory == "" {
		cfg.Tests.Directory = DefaultTestsDirectory
	}
	if cfg.Tests.Pattern == "" {
		cfg.Tests.Pattern = DefaultTestsPattern
	}
}

func applyToleranceDefaults(cfg *Config) {
	if cfg.Tolerance == nil {
		cfg.Tolerance = &ToleranceConfig{}
	}
	if cfg.Tolerance.Preset == "" {
		cfg.Tolerance.Preset = stats.PresetStochastic
	}
}

func applyPolicyDefaults(cfg *Config) {
	if cfg.Policy == nil {
		cfg.Policy = &PolicyConfig{}
	}
	if len(cfg.Policy.Percentiles) == 0 {
		cfg.Policy.Percentiles = append([]string(nil), DefaultPercentiles...)
	}
}

func applyExecutionDefaults(cfg *Config) {
	if cfg.Execution == nil {
		cfg.Execution = &ExecutionConfig{}
	}
	if cfg.Execution.Parallel == 0 {
		cfg.Execution.Parallel = DefaultParallel
	}
}

// ResolveTolerance returns the preset named in the configuration with any
// explicit field overrides applied.
func (c *Config) ResolveTolerance() (stats.Tolerance, error) {
	tc := c.Tolerance
	if tc == nil {
		return stats.DefaultTolerance(), nil
	}
	tol, err := stats.TolerancePreset(tc.Preset)
	if err != nil {
		return stats.Tolerance{}, err
	}
	if tc.Mean != nil {
		tol.Mean = *tc.Mean
	}
	if tc.Std != nil {
		tol.Std = *tc.Std
	}
	if tc.Percentiles != nil {
		tol.Percentiles = *tc.Percentiles
	}
	if tc.KSPValue != nil {
		tol.KSPValue = *tc.KSPValue
	}
	if tc.CIBounds != nil {
		tol.CIBounds = *tc.CIBounds
	}
	return tol, nil
}

// Lenient reports whether percentile comparison uses the lenient fallback.
// Unless set explicitly it follows the preset, so a preset chosen on the
// command line still decides it.
func (c *Config) Lenient() bool {
	if c.Policy == nil || c.Policy.LenientPercentiles == nil {
		return c.Tolerance == nil || !strings.EqualFold(c.Tolerance.Preset, stats.PresetDeterministic)
	}
	return *c.Policy.LenientPercentiles
}
