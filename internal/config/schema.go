// Package config provides configuration loading and validation for .stochval/config.json.
package config

// Config represents the complete config.json configuration.
type Config struct {
	Engine    *EngineConfig    `json:"engine,omitempty"`
	Reference *ReferenceConfig `json:"reference,omitempty"`
	Tests     *TestsConfig     `json:"tests,omitempty"`
	Tolerance *ToleranceConfig `json:"tolerance,omitempty"`
	Policy    *PolicyConfig    `json:"policy,omitempty"`
	Execution *ExecutionConfig `json:"execution,omitempty"`
}

// EngineConfig configures the target engine invocation.
type EngineConfig struct {
	Binary    string `json:"binary,omitempty"` // empty means auto-discover
	TimeoutMs int    `json:"timeout_ms,omitempty"`
}

// ReferenceConfig configures the reference validator invocation.
type ReferenceConfig struct {
	Rscript          string `json:"rscript,omitempty"`
	ValidatorsDir    string `json:"validators_dir,omitempty"`
	DefaultValidator string `json:"default_validator,omitempty"`
	TimeoutMs        int    `json:"timeout_ms,omitempty"`
}

// TestsConfig configures where suite documents are loaded from.
type TestsConfig struct {
	Directory string `json:"directory,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Strict    bool   `json:"strict,omitempty"` // unparseable suites are errors, not warnings
}

// ToleranceConfig selects a tolerance preset and optionally overrides fields of it.
type ToleranceConfig struct {
	Preset      string   `json:"preset,omitempty"` // "stochastic" or "deterministic"
	Mean        *float64 `json:"mean,omitempty"`
	Std         *float64 `json:"std,omitempty"`
	Percentiles *float64 `json:"percentiles,omitempty"`
	KSPValue    *float64 `json:"ks_pvalue,omitempty"`
	CIBounds    *float64 `json:"ci_bounds,omitempty"`
}

// PolicyConfig controls how verdicts and comparisons are interpreted.
type PolicyConfig struct {
	FailOnError        bool     `json:"fail_on_error,omitempty"`
	LenientPercentiles *bool    `json:"lenient_percentiles,omitempty"` // nil follows the preset
	Percentiles        []string `json:"percentiles,omitempty"`
}

// ExecutionConfig controls scheduling of comparison cases.
type ExecutionConfig struct {
	Parallel              int  `json:"parallel,omitempty"`
	ConcurrentInvocations bool `json:"concurrent_invocations,omitempty"`
	KeepFixtures          bool `json:"keep_fixtures,omitempty"`
}
