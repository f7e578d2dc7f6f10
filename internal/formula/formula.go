// Package formula translates a reference-parameterized distribution into the
// target engine's Monte Carlo formula.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Distribution names understood by the reference validators.
const (
	Normal      = "normal"
	Uniform     = "uniform"
	Lognormal   = "lognormal"
	Triangular  = "triangular"
	PERT        = "pert"
	Exponential = "exponential"
)

// Formula is a target engine distribution call such as MC.Normal(100, 15).
type Formula struct {
	Function string    // engine function, e.g. "MC.Normal"
	Args     []float64 // arguments in engine order
}

// String renders the formula as the engine's scalar expression.
func (f Formula) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = strconv.FormatFloat(a, 'g', -1, 64)
	}
	return fmt.Sprintf("=%s(%s)", f.Function, strings.Join(args, ", "))
}

// UnsupportedError reports a distribution the target engine cannot express.
type UnsupportedError struct {
	Distribution string
	Reason       string
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("Unsupported distribution: %s", e.Distribution)
}

// MissingParamError reports a required parameter absent from the spec.
type MissingParamError struct {
	Distribution string
	Param        string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("Missing '%s' param for %s distribution", e.Param, e.Distribution)
}

// Supported returns the distributions Build can translate.
func Supported() []string {
	return []string{Normal, Uniform, Lognormal, Triangular, PERT}
}

// Build maps a distribution and its reference parameters to the engine formula.
// Names are matched case-insensitively.
func Build(distribution string, params map[string]float64) (Formula, error) {
	name := strings.ToLower(strings.TrimSpace(distribution))

	switch name {
	case Normal:
		args, err := require(name, params, "mean", "sd")
		if err != nil {
			return Formula{}, err
		}
		return Formula{Function: "MC.Normal", Args: args}, nil

	case Uniform:
		args, err := require(name, params, "min", "max")
		if err != nil {
			return Formula{}, err
		}
		return Formula{Function: "MC.Uniform", Args: args}, nil

	case Lognormal:
		args, err := require(name, params, "meanlog", "sdlog")
		if err != nil {
			return Formula{}, err
		}
		mean, stdev := LognormalMoments(args[0], args[1])
		return Formula{Function: "MC.Lognormal", Args: []float64{mean, stdev}}, nil

	case Triangular:
		args, err := require(name, params, "min", "mode", "max")
		if err != nil {
			return Formula{}, err
		}
		return Formula{Function: "MC.Triangular", Args: args}, nil

	case PERT:
		// MC.PERT has a fixed shape of 4 and takes no shape argument.
		args, err := require(name, params, "min", "mode", "max")
		if err != nil {
			return Formula{}, err
		}
		return Formula{Function: "MC.PERT", Args: args}, nil

	case Exponential:
		return Formula{}, &UnsupportedError{
			Distribution: name,
			Reason:       "Exponential distribution not supported by the target engine",
		}

	default:
		return Formula{}, &UnsupportedError{Distribution: distribution}
	}
}

// LognormalMoments converts log-space parameters to the linear-space mean and
// standard deviation of the lognormal distribution.
func LognormalMoments(meanlog, sdlog float64) (mean, stdev float64) {
	s2 := sdlog * sdlog
	mean = math.Exp(meanlog + s2/2)
	variance := math.Expm1(s2) * math.Exp(2*meanlog+s2)
	return mean, math.Sqrt(variance)
}

func require(distribution string, params map[string]float64, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, ok := params[n]
		if !ok {
			return nil, &MissingParamError{Distribution: distribution, Param: n}
		}
		out[i] = v
	}
	return out, nil
}
