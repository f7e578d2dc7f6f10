package tests

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/stochval/internal/stats"
)

const normalSuite = `
_r_validator: monte_carlo_validator.R
tests:
  normal_basic:
    distribution: normal
    params: {mean: 100, sd: 15}
    seed: 7
    iterations: 5000
  alpha_uniform:
    distribution: uniform
    params: {min: 0, max: 10}
    tolerance:
      mean: 0.05
  no_distribution:
    params: {}
`

func writeSuite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseSuite_OrderAndDefaults(t *testing.T) {
	t.Parallel()

	specs, err := ParseSuite([]byte(normalSuite), "distributions", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("len(specs) = %d, want 3", len(specs))
	}

	wantOrder := []string{"alpha_uniform", "no_distribution", "normal_basic"}
	for i, want := range wantOrder {
		if specs[i].Name != want {
			t.Errorf("specs[%d].Name = %q, want %q", i, specs[i].Name, want)
		}
		if specs[i].Index != i {
			t.Errorf("specs[%d].Index = %d, want %d", i, specs[i].Index, i)
		}
		if specs[i].Suite != "distributions" {
			t.Errorf("specs[%d].Suite = %q", i, specs[i].Suite)
		}
	}

	uniform := specs[0]
	if uniform.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want default %d", uniform.Seed, DefaultSeed)
	}
	if uniform.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want default %d", uniform.Iterations, DefaultIterations)
	}

	normal := specs[2]
	if normal.Seed != 7 || normal.Iterations != 5000 {
		t.Errorf("normal seed/iterations = %d/%d, want 7/5000", normal.Seed, normal.Iterations)
	}
	if normal.Params["sd"] != 15 {
		t.Errorf("Params[sd] = %v, want 15", normal.Params["sd"])
	}

	if specs[1].HasDistribution() {
		t.Error("no_distribution.HasDistribution() = true")
	}
}

func TestParseSuite_ExplicitZeroSeedKept(t *testing.T) {
	t.Parallel()

	doc := "tests:\n  z:\n    distribution: normal\n    seed: 0\n"
	specs, err := ParseSuite([]byte(doc), "s", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	if specs[0].Seed != 0 {
		t.Errorf("Seed = %d, want 0", specs[0].Seed)
	}
}

func TestParseSuite_ValidatorInheritance(t *testing.T) {
	t.Parallel()

	opts := DefaultLoadOptions()
	opts.Validator = "config_default.R"

	doc := `
_r_validator: suite.R
tests:
  inherits: {distribution: normal}
  own: {distribution: normal, r_validator: gonum}
`
	specs, err := ParseSuite([]byte(doc), "s", opts)
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	if specs[0].Validator != "suite.R" {
		t.Errorf("inherits.Validator = %q, want suite.R", specs[0].Validator)
	}
	if specs[1].Validator != "gonum" {
		t.Errorf("own.Validator = %q, want gonum", specs[1].Validator)
	}

	specs, err = ParseSuite([]byte("tests:\n  bare: {distribution: normal}\n"), "s", opts)
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	if specs[0].Validator != "config_default.R" {
		t.Errorf("bare.Validator = %q, want config_default.R", specs[0].Validator)
	}
}

func TestParseSuite_EffectiveTolerance(t *testing.T) {
	t.Parallel()

	specs, err := ParseSuite([]byte(normalSuite), "s", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}

	want := stats.DefaultTolerance()
	want.Mean = 0.05
	if specs[0].Effective != want {
		t.Errorf("alpha_uniform.Effective = %+v, want %+v", specs[0].Effective, want)
	}
	if specs[2].Effective != stats.DefaultTolerance() {
		t.Errorf("normal_basic.Effective = %+v, want default", specs[2].Effective)
	}
}

func TestParseSuite_Expected(t *testing.T) {
	t.Parallel()

	doc := `
tests:
  hinted:
    distribution: normal
    params: {mean: 0, sd: 1}
    r_expected:
      mean: 0
      percentiles: {5: -1.645, "95": 1.645}
`
	specs, err := ParseSuite([]byte(doc), "s", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	exp := specs[0].Expected
	if exp == nil || exp.Mean == nil || *exp.Mean != 0 {
		t.Fatalf("Expected = %+v", exp)
	}
	if exp.Percentiles["5"] != -1.645 || exp.Percentiles["95"] != 1.645 {
		t.Errorf("Expected.Percentiles = %v", exp.Percentiles)
	}
}

func TestParseSuite_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "tests: [unclosed", "invalid YAML"},
		{"missing tests", "_r_validator: x.R\n", "suite validation failed"},
		{"zero iterations", "tests:\n  a: {distribution: normal, iterations: 0}\n", "suite validation failed"},
		{"negative tolerance", "tests:\n  a: {tolerance: {mean: -1}}\n", "suite validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSuite([]byte(tt.doc), "s", DefaultLoadOptions())
			if err == nil {
				t.Fatal("ParseSuite() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseSuite_Empty(t *testing.T) {
	t.Parallel()

	specs, err := ParseSuite([]byte(""), "s", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("ParseSuite() error = %v", err)
	}
	if len(specs) != 0 {
		t.Errorf("len(specs) = %d, want 0", len(specs))
	}
}

func TestLoadSuiteFile_NameFromStem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeSuite(t, dir, "distributions.yaml", normalSuite)

	specs, err := LoadSuiteFile(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadSuiteFile() error = %v", err)
	}
	if specs[0].Suite != "distributions" {
		t.Errorf("Suite = %q, want distributions", specs[0].Suite)
	}
}

func TestLoadSuiteDir_OrdersAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSuite(t, dir, "b.yaml", "tests:\n  a_second: {distribution: normal}\n")
	writeSuite(t, dir, "a.yaml", "tests:\n  z_first: {distribution: normal}\n  y_first: {distribution: normal}\n")
	writeSuite(t, dir, "notes.txt", "not a suite")

	specs, warnings, err := LoadSuiteDir(dir, "*.yaml", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadSuiteDir() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	want := []string{"y_first", "z_first", "a_second"}
	if len(specs) != len(want) {
		t.Fatalf("len(specs) = %d, want %d", len(specs), len(want))
	}
	for i, name := range want {
		if specs[i].Name != name || specs[i].Index != i {
			t.Errorf("specs[%d] = %s/%d, want %s/%d", i, specs[i].Name, specs[i].Index, name, i)
		}
	}
}

func TestLoadSuiteDir_DuplicateNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSuite(t, dir, "a.yaml", "tests:\n  same: {distribution: normal}\n")
	writeSuite(t, dir, "b.yaml", "tests:\n  same: {distribution: uniform}\n")

	_, _, err := LoadSuiteDir(dir, "*.yaml", DefaultLoadOptions())
	if err == nil || !strings.Contains(err.Error(), "duplicate test name") {
		t.Errorf("LoadSuiteDir() error = %v, want duplicate test name", err)
	}
}

func TestLoadSuiteDir_UnparseableWarnsUnlessStrict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSuite(t, dir, "good.yaml", "tests:\n  ok: {distribution: normal}\n")
	writeSuite(t, dir, "broken.yaml", "tests: [unclosed")

	specs, warnings, err := LoadSuiteDir(dir, "*.yaml", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadSuiteDir() error = %v", err)
	}
	if len(specs) != 1 {
		t.Errorf("len(specs) = %d, want 1", len(specs))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "broken.yaml") {
		t.Errorf("warnings = %v, want one about broken.yaml", warnings)
	}

	strict := DefaultLoadOptions()
	strict.Strict = true
	if _, _, err := LoadSuiteDir(dir, "*.yaml", strict); err == nil {
		t.Error("LoadSuiteDir(strict) expected error")
	}
}

func TestLoadSuiteDir_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, _, err := LoadSuiteDir(filepath.Join(t.TempDir(), "absent"), "*.yaml", DefaultLoadOptions())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("LoadSuiteDir() error = %v, want not found", err)
	}
}

func TestLoadSuiteDir_EmptyPatternMatchesYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSuite(t, dir, "a.yml", "tests:\n  one: {distribution: normal}\n")
	writeSuite(t, dir, "b.yaml", "tests:\n  two: {distribution: normal}\n")
	writeSuite(t, dir, "c.json", "{}")

	specs, _, err := LoadSuiteDir(dir, "", DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadSuiteDir() error = %v", err)
	}
	if len(specs) != 2 {
		t.Errorf("len(specs) = %d, want 2", len(specs))
	}
}

func TestEffectiveTolerance_NilOverride(t *testing.T) {
	t.Parallel()

	base := stats.DeterministicTolerance()
	if got := EffectiveTolerance(base, nil); got != base {
		t.Errorf("EffectiveTolerance(nil) = %+v, want %+v", got, base)
	}
}

func TestEffectiveTolerance_AllFields(t *testing.T) {
	t.Parallel()

	v := func(f float64) *float64 { return &f }
	got := EffectiveTolerance(stats.DefaultTolerance(), &ToleranceOverride{
		Mean: v(0.1), Std: v(0.2), Percentiles: v(0.3), KSPValue: v(0.4), CIBounds: v(0.5),
	})
	want := stats.Tolerance{Mean: 0.1, Std: 0.2, Percentiles: 0.3, KSPValue: 0.4, CIBounds: 0.5}
	if got != want {
		t.Errorf("EffectiveTolerance() = %+v, want %+v", got, want)
	}
}
