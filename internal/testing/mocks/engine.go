// Package mocks provides shared test doubles for stochval packages.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/stochval/internal/fixture"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// Engine implements engine.Engine for testing.
// Use NewEngine() to create instances with a fluent builder API.
type Engine struct {
	summary *stats.Summary
	err     error

	// SimulateFunc is called by Simulate when set, overriding summary and err.
	SimulateFunc func(ctx context.Context, f *fixture.Fixture) (*stats.Summary, error)

	calls int32
	mu    sync.Mutex
	seen  []string
}

// NewEngine creates a mock engine that returns an empty summary.
func NewEngine() *Engine {
	return &Engine{summary: &stats.Summary{}}
}

// WithSummary sets the summary returned by Simulate.
func (m *Engine) WithSummary(s *stats.Summary) *Engine {
	m.summary = s
	return m
}

// WithError makes Simulate fail with err.
func (m *Engine) WithError(err error) *Engine {
	m.err = err
	return m
}

// WithFunc sets the function called by Simulate.
func (m *Engine) WithFunc(fn func(ctx context.Context, f *fixture.Fixture) (*stats.Summary, error)) *Engine {
	m.SimulateFunc = fn
	return m
}

// Simulate records the call and returns the configured outcome.
func (m *Engine) Simulate(ctx context.Context, f *fixture.Fixture) (*stats.Summary, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.seen = append(m.seen, f.Name)
	m.mu.Unlock()

	if m.SimulateFunc != nil {
		return m.SimulateFunc(ctx, f)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

// Calls returns the number of times Simulate was called.
func (m *Engine) Calls() int32 {
	return atomic.LoadInt32(&m.calls)
}

// Seen returns fixture names in call order.
func (m *Engine) Seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}
