package testhelper

import (
	"context"
	"math"
	"strings"
	"testing"
)

func normalCase(seed uint64) Case {
	return Case{
		Name:         "normal_basic",
		Distribution: "normal",
		Params:       map[string]float64{"mean": 100, "sd": 15},
		Seed:         seed,
		Iterations:   20000,
	}
}

func mustSamples(t *testing.T, c Case) []float64 {
	t.Helper()
	s, err := ReferenceSamples(context.Background(), c)
	if err != nil {
		t.Fatalf("ReferenceSamples() error = %v", err)
	}
	if len(s) != c.Iterations {
		t.Fatalf("len(samples) = %d, want %d", len(s), c.Iterations)
	}
	return s
}

func TestReferenceSamples_Reproducible(t *testing.T) {
	t.Parallel()
	a := mustSamples(t, normalCase(7))
	b := mustSamples(t, normalCase(7))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between runs with the same seed", i)
		}
	}
}

func TestCompare_IndependentStreamsAgree(t *testing.T) {
	t.Parallel()
	a := mustSamples(t, normalCase(1))
	b := mustSamples(t, normalCase(2))

	tol := DefaultTolerance()
	tol.KSPValue = 0.001
	if ok, diff := Compare(a, b, tol); !ok {
		t.Errorf("Compare() = false: %s", diff)
	}
}

func TestCompare_ShiftedMeanDisagrees(t *testing.T) {
	t.Parallel()
	ref := mustSamples(t, normalCase(1))
	c := normalCase(2)
	c.Params = map[string]float64{"mean": 105, "sd": 15}
	shifted := mustSamples(t, c)

	ok, diff := Compare(shifted, ref, DefaultTolerance())
	if ok {
		t.Fatal("Compare() = true for a 5% mean shift")
	}
	if !strings.HasPrefix(diff, "Mean mismatch") {
		t.Errorf("diff = %q, want mean mismatch", diff)
	}
}

func TestCompare_Empty(t *testing.T) {
	t.Parallel()
	ok, diff := Compare(nil, []float64{1, 2}, DefaultTolerance())
	if ok || !strings.Contains(diff, "empty sample") {
		t.Errorf("Compare(nil) = %v, %q", ok, diff)
	}
}

func TestCompare_NonFiniteSample(t *testing.T) {
	t.Parallel()
	ok, diff := Compare([]float64{1, math.Inf(1)}, []float64{1, 2}, DefaultTolerance())
	if ok || !strings.Contains(diff, "non-finite") {
		t.Errorf("Compare() = %v, %q; want a non-finite rejection", ok, diff)
	}
}

func TestCompare_InvalidTolerancePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("Compare() with negative tolerance did not panic")
		}
	}()
	Compare([]float64{1}, []float64{1}, Tolerance{Mean: -1})
}

func TestValidateTolerance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		tol     Tolerance
		wantErr bool
	}{
		{"default", DefaultTolerance(), false},
		{"zero", Tolerance{}, false},
		{"negative std", Tolerance{Std: -0.1}, true},
		{"ks above one", Tolerance{KSPValue: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateTolerance(tt.tol); (err != nil) != tt.wantErr {
				t.Errorf("ValidateTolerance() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReferenceSamples_UnknownDistribution(t *testing.T) {
	t.Parallel()
	c := normalCase(1)
	c.Distribution = "cauchy"

	if _, err := ReferenceSamples(context.Background(), c); err == nil {
		t.Error("ReferenceSamples() expected error for unsupported distribution")
	}
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()
	got := FormatSummary([]float64{1, 2, 3, 4, 5})
	if !strings.HasPrefix(got, "n=5 mean=3.0000") || !strings.Contains(got, "p50=3.0000") {
		t.Errorf("FormatSummary() = %q", got)
	}
}

func BenchmarkCompare(b *testing.B) {
	ref, err := ReferenceSamples(context.Background(), normalCase(1))
	if err != nil {
		b.Fatal(err)
	}
	target, err := ReferenceSamples(context.Background(), normalCase(2))
	if err != nil {
		b.Fatal(err)
	}
	tol := DefaultTolerance()

	b.ResetTimer()
	for b.Loop() {
		Compare(target, ref, tol)
	}
}
