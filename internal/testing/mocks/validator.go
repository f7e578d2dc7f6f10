package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/stochval/internal/reference"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// Validator implements reference.Validator for testing.
type Validator struct {
	result *reference.Result
	err    error

	// ValidateFunc is called by Validate when set.
	ValidateFunc func(ctx context.Context, req reference.Request) (*reference.Result, error)

	calls    int32
	mu       sync.Mutex
	requests []reference.Request
}

// NewValidator creates a mock validator that reports success with no statistics.
func NewValidator() *Validator {
	return &Validator{result: &reference.Result{Validator: "mock", Success: true, Results: json.RawMessage(`{}`)}}
}

// WithStats makes Validate succeed with s encoded as the results payload.
func (m *Validator) WithStats(s *stats.Summary) *Validator {
	payload := map[string]any{"percentiles": s.Percentiles}
	if s.Mean != nil {
		payload["mean"] = *s.Mean
	}
	if s.Std != nil {
		payload["std"] = *s.Std
	}
	if s.CI != nil {
		payload["ci"] = s.CI
	}
	if len(s.Samples) > 0 {
		payload["samples"] = s.Samples
	}
	raw, _ := json.Marshal(payload)
	m.result = &reference.Result{Validator: "mock", Success: true, Results: raw}
	return m
}

// WithRawResults makes Validate succeed with raw as the results payload.
func (m *Validator) WithRawResults(raw string) *Validator {
	m.result = &reference.Result{Validator: "mock", Success: true, Results: json.RawMessage(raw)}
	return m
}

// WithFailure makes Validate return a structured failure.
func (m *Validator) WithFailure(msg string) *Validator {
	m.result = &reference.Result{Validator: "mock", Success: false, Error: msg}
	return m
}

// WithError makes Validate fail with err.
func (m *Validator) WithError(err error) *Validator {
	m.err = err
	return m
}

// WithFunc sets the function called by Validate.
func (m *Validator) WithFunc(fn func(ctx context.Context, req reference.Request) (*reference.Result, error)) *Validator {
	m.ValidateFunc = fn
	return m
}

// Validate records the request and returns the configured outcome.
func (m *Validator) Validate(ctx context.Context, req reference.Request) (*reference.Result, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, req)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// Calls returns the number of times Validate was called.
func (m *Validator) Calls() int32 {
	return atomic.LoadInt32(&m.calls)
}

// Requests returns the received requests in call order.
func (m *Validator) Requests() []reference.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reference.Request(nil), m.requests...)
}
