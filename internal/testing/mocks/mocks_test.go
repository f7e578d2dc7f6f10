package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/stochval/internal/engine"
	"github.com/AndreyAkinshin/stochval/internal/fixture"
	"github.com/AndreyAkinshin/stochval/internal/reference"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

var (
	_ engine.Engine       = (*Engine)(nil)
	_ reference.Validator = (*Validator)(nil)
)

func TestEngine_ReturnsSummary(t *testing.T) {
	t.Parallel()
	s := &stats.Summary{Mean: stats.Float(1)}
	m := NewEngine().WithSummary(s)

	got, err := m.Simulate(context.Background(), &fixture.Fixture{Name: "a"})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if got != s {
		t.Errorf("Simulate() = %v, want configured summary", got)
	}
	if m.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", m.Calls())
	}
}

func TestEngine_Error(t *testing.T) {
	t.Parallel()
	m := NewEngine().WithError(errors.New("boom"))

	if _, err := m.Simulate(context.Background(), &fixture.Fixture{Name: "a"}); err == nil {
		t.Error("Simulate() expected error")
	}
}

func TestEngine_ConcurrentCalls(t *testing.T) {
	t.Parallel()
	m := NewEngine()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Simulate(context.Background(), &fixture.Fixture{Name: "x"})
		}()
	}
	wg.Wait()

	if m.Calls() != 20 || len(m.Seen()) != 20 {
		t.Errorf("Calls() = %d, Seen() = %d, want 20", m.Calls(), len(m.Seen()))
	}
}

func TestValidator_WithStatsParses(t *testing.T) {
	t.Parallel()
	m := NewValidator().WithStats(&stats.Summary{
		Mean:        stats.Float(100),
		Std:         stats.Float(15),
		Percentiles: map[string]float64{"50": 100},
	})

	res, err := m.Validate(context.Background(), reference.Request{Distribution: "normal"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	s, err := reference.ParseStats(res.Results)
	if err != nil {
		t.Fatalf("ParseStats() error = %v", err)
	}
	if mean, _ := s.MeanValue(); mean != 100 {
		t.Errorf("mean = %v, want 100", mean)
	}
	if got := m.Requests(); len(got) != 1 || got[0].Distribution != "normal" {
		t.Errorf("Requests() = %+v", got)
	}
}

func TestValidator_Failure(t *testing.T) {
	t.Parallel()
	res, err := NewValidator().WithFailure("package not installed").Validate(context.Background(), reference.Request{})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Success || res.Failure() != "package not installed" {
		t.Errorf("result = %+v", res)
	}
}
