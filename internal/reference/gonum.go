package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AndreyAkinshin/stochval/internal/formula"
	"github.com/AndreyAkinshin/stochval/internal/stats"
)

// GonumID is the validator id that selects the in-process reference.
const GonumID = "gonum"

// gonumVersion identifies the sampling backend in results.
const gonumVersion = "gonum.org/v1/gonum v0.16"

// pertShape is the PERT concentration used by the target engine.
const pertShape = 4.0

// Gonum samples distributions in-process with gonum's distuv. It needs no R
// installation and is seeded per request so runs are reproducible.
type Gonum struct {
	// Percentiles to report; nil uses stats.DefaultPercentiles.
	Percentiles []int
}

// Validate draws req.Iterations samples and summarizes them. Unknown
// distributions and missing parameters yield an unsuccessful Result.
func (g *Gonum) Validate(ctx context.Context, req Request) (*Result, error) {
	src := rand.NewPCG(req.Seed, req.Seed^0x9e3779b97f4a7c15)

	sampler, err := newSampler(req.Distribution, req.Params, src)
	if err != nil {
		return &Result{Validator: GonumID, Version: gonumVersion, Success: false, Error: err.Error()}, nil
	}
	if req.Iterations <= 0 {
		return &Result{Validator: GonumID, Version: gonumVersion, Success: false, Error: "iterations must be positive"}, nil
	}

	samples := make([]float64, req.Iterations)
	for i := range samples {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		samples[i] = sampler()
	}

	pcts := g.Percentiles
	if pcts == nil {
		pcts = stats.DefaultPercentiles
	}
	summary, err := stats.Summarize(samples, pcts)
	if err != nil {
		return nil, err
	}

	payload := struct {
		Mean        float64            `json:"mean"`
		Std         float64            `json:"std"`
		Percentiles map[string]float64 `json:"percentiles"`
		Samples     []float64          `json:"samples,omitempty"`
	}{
		Mean:        *summary.Mean,
		Std:         *summary.Std,
		Percentiles: summary.Percentiles,
	}
	if req.Samples {
		payload.Samples = samples
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return &Result{Validator: GonumID, Version: gonumVersion, Success: true, Results: raw}, nil
}

func param(dist string, params map[string]float64, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, &formula.MissingParamError{Distribution: dist, Param: name}
	}
	return v, nil
}

func params(dist string, p map[string]float64, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := param(dist, p, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// newSampler maps a reference distribution to a seeded distuv sampler.
func newSampler(dist string, p map[string]float64, src rand.Source) (func() float64, error) {
	name := strings.ToLower(strings.TrimSpace(dist))
	switch name {
	case formula.Normal:
		v, err := params(name, p, "mean", "sd")
		if err != nil {
			return nil, err
		}
		return distuv.Normal{Mu: v[0], Sigma: v[1], Src: src}.Rand, nil

	case formula.Uniform:
		v, err := params(name, p, "min", "max")
		if err != nil {
			return nil, err
		}
		return distuv.Uniform{Min: v[0], Max: v[1], Src: src}.Rand, nil

	case formula.Lognormal:
		v, err := params(name, p, "meanlog", "sdlog")
		if err != nil {
			return nil, err
		}
		return distuv.LogNormal{Mu: v[0], Sigma: v[1], Src: src}.Rand, nil

	case formula.Triangular:
		v, err := params(name, p, "min", "mode", "max")
		if err != nil {
			return nil, err
		}
		if !(v[0] < v[2] && v[0] <= v[1] && v[1] <= v[2]) {
			return nil, fmt.Errorf("triangular requires min <= mode <= max and min < max")
		}
		return distuv.NewTriangle(v[0], v[2], v[1], src).Rand, nil

	case formula.PERT:
		v, err := params(name, p, "min", "mode", "max")
		if err != nil {
			return nil, err
		}
		lo, mode, hi := v[0], v[1], v[2]
		if !(lo < hi && lo <= mode && mode <= hi) {
			return nil, fmt.Errorf("pert requires min <= mode <= max and min < max")
		}
		width := hi - lo
		beta := distuv.Beta{
			Alpha: 1 + pertShape*(mode-lo)/width,
			Beta:  1 + pertShape*(hi-mode)/width,
			Src:   src,
		}
		return func() float64 { return lo + width*beta.Rand() }, nil

	case formula.Exponential:
		v, err := params(name, p, "rate")
		if err != nil {
			return nil, err
		}
		return distuv.Exponential{Rate: v[0], Src: src}.Rand, nil

	default:
		return nil, &formula.UnsupportedError{Distribution: dist}
	}
}
