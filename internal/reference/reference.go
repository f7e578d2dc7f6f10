// Package reference runs independent statistical implementations that the
// target engine is compared against.
package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AndreyAkinshin/stochval/internal/stats"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Validator produces reference statistics for a request.
type Validator interface {
	Validate(ctx context.Context, req Request) (*Result, error)
}

// Request is the parameter document passed to a reference validator.
type Request struct {
	Validator    string             `json:"-"`
	Distribution string             `json:"distribution,omitempty"`
	Params       map[string]float64 `json:"params"`
	Seed         uint64             `json:"seed"`
	Iterations   int                `json:"iterations"`
	Samples      bool               `json:"samples,omitempty"` // ask for raw samples
}

// NewRequest builds the reference request for a spec.
func NewRequest(spec *tests.TestSpec) Request {
	params := spec.Params
	if params == nil {
		params = map[string]float64{}
	}
	return Request{
		Validator:    spec.Validator,
		Distribution: spec.Distribution,
		Params:       params,
		Seed:         spec.Seed,
		Iterations:   spec.Iterations,
	}
}

// Result is the envelope a validator prints on stdout.
type Result struct {
	Validator string          `json:"validator"`
	Version   string          `json:"version,omitempty"`
	Success   bool            `json:"success"`
	Results   json.RawMessage `json:"results,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Failure returns the validator's reported error, or a generic message.
func (r *Result) Failure() string {
	if r.Error != "" {
		return r.Error
	}
	return "unknown reference error"
}

type rawStats struct {
	Mean        *float64           `json:"mean"`
	Std         *float64           `json:"std"`
	SD          *float64           `json:"sd"`
	Percentiles map[string]float64 `json:"percentiles"`
	Samples     []float64          `json:"samples"`
	CI          *stats.Interval    `json:"ci"`
}

// ParseStats decodes the results object of a successful Result. Either
// "std" or "sd" is accepted for the standard deviation; mean and a standard
// deviation are required.
func ParseStats(raw json.RawMessage) (*stats.Summary, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("no results")
	}
	var rs rawStats
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("invalid results: %w", err)
	}
	if rs.Mean == nil {
		return nil, errors.New("results missing mean")
	}
	std := rs.Std
	if std == nil {
		std = rs.SD
	}
	if std == nil {
		return nil, errors.New("results missing std")
	}
	return &stats.Summary{
		Mean:        rs.Mean,
		Std:         std,
		Percentiles: rs.Percentiles,
		CI:          rs.CI,
		Samples:     rs.Samples,
	}, nil
}

// Router dispatches requests to the in-process gonum reference or to an
// external validator by validator id.
type Router struct {
	Gonum    Validator
	External Validator
}

// Validate routes req by its Validator id.
func (r *Router) Validate(ctx context.Context, req Request) (*Result, error) {
	if req.Validator == GonumID {
		if r.Gonum == nil {
			return nil, fmt.Errorf("no in-process reference configured for %q", req.Validator)
		}
		return r.Gonum.Validate(ctx, req)
	}
	if r.External == nil {
		return nil, fmt.Errorf("no external reference configured for %q", req.Validator)
	}
	return r.External.Validate(ctx, req)
}
