package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/stochval/internal/config"
	"github.com/AndreyAkinshin/stochval/internal/project"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

func TestConfigAgreementFixture(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(fixturesDir(), "agreement", ".stochval", "config.json")

	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	tol, err := cfg.ResolveTolerance()
	if err != nil {
		t.Fatalf("ResolveTolerance() error = %v", err)
	}
	want := stats.StochasticTolerance()
	want.KSPValue = 0
	if tol != want {
		t.Errorf("tolerance = %+v, want %+v", tol, want)
	}
	if cfg.Execution.Parallel != 4 {
		t.Errorf("Parallel = %d, want 4", cfg.Execution.Parallel)
	}
	if cfg.Reference.DefaultValidator != "gonum" {
		t.Errorf("DefaultValidator = %q", cfg.Reference.DefaultValidator)
	}
	if cfg.Reference.Rscript != config.DefaultRscript {
		t.Errorf("Rscript = %q, want default", cfg.Reference.Rscript)
	}
}

func TestConfigUnknownFieldWarns(t *testing.T) {
	t.Parallel()
	proj, err := project.LoadProjectFrom(filepath.Join(fixturesDir(), "broken"))
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}

	found := false
	for _, w := range proj.Warnings {
		if strings.Contains(w, "future_option") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming future_option", proj.Warnings)
	}
	if !proj.Config.Tests.Strict {
		t.Error("Strict = false, want true")
	}
}

func TestConfigDeterministicPreset(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeConfig(t, root, `{"tolerance": {"preset": "deterministic", "mean": 0.0005}}`)

	proj, err := project.LoadProjectFrom(root)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	tol, err := proj.Config.ResolveTolerance()
	if err != nil {
		t.Fatal(err)
	}
	if tol.Mean != 0.0005 {
		t.Errorf("Mean = %g, want explicit override 0.0005", tol.Mean)
	}
	if tol.Std != stats.DeterministicTolerance().Std {
		t.Errorf("Std = %g, want deterministic preset", tol.Std)
	}
	if proj.Config.Lenient() {
		t.Error("Lenient() = true under the deterministic preset")
	}
}

func TestConfigEnvOverridesBinary(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"engine": {"binary": "/opt/forge"}}`)
	t.Setenv(config.EnvForgeBin, "/usr/local/bin/forge")

	proj, err := project.LoadProjectFrom(root)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	if proj.Config.Engine.Binary != "/usr/local/bin/forge" {
		t.Errorf("Binary = %q, want the %s value", proj.Config.Engine.Binary, config.EnvForgeBin)
	}
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, project.ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, project.ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
