// Package fixture renders target engine input documents and manages the
// on-disk workspace they are written to.
package fixture

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/stochval/internal/formula"
	"github.com/AndreyAkinshin/stochval/internal/stats"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// EngineVersion is the document version the target engine expects.
const EngineVersion = "5.0.0"

// OutputVariable names the scalar whose distribution is compared.
const OutputVariable = "test_output"

// Document is the target engine input model.
type Document struct {
	Version    string            `yaml:"_forge_version"`
	MonteCarlo MonteCarlo        `yaml:"monte_carlo"`
	Scalars    map[string]Scalar `yaml:"scalars"`
}

// MonteCarlo configures the engine's simulation block.
type MonteCarlo struct {
	Enabled    bool     `yaml:"enabled"`
	Iterations int      `yaml:"iterations"`
	Sampling   string   `yaml:"sampling"`
	Seed       uint64   `yaml:"seed"`
	Outputs    []Output `yaml:"outputs"`
}

// Output requests percentiles for one variable.
type Output struct {
	Variable    string `yaml:"variable"`
	Percentiles []int  `yaml:"percentiles"`
}

// Scalar is a named engine value driven by a formula.
type Scalar struct {
	Value   *float64 `yaml:"value"`
	Formula string   `yaml:"formula"`
}

// Build assembles the engine document for a spec and its translated formula.
func Build(spec *tests.TestSpec, f formula.Formula) Document {
	return Document{
		Version: EngineVersion,
		MonteCarlo: MonteCarlo{
			Enabled:    true,
			Iterations: spec.Iterations,
			Sampling:   "monte_carlo",
			Seed:       spec.Seed,
			Outputs: []Output{{
				Variable:    OutputVariable,
				Percentiles: append([]int(nil), stats.DefaultPercentiles...),
			}},
		},
		Scalars: map[string]Scalar{
			OutputVariable: {Formula: f.String()},
		},
	}
}

// Render serializes the engine document for a spec as YAML.
func Render(spec *tests.TestSpec, f formula.Formula) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Build(spec, f)); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return buf.Bytes(), nil
}
