package tests

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/stochval/internal/schema"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func specValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// suiteDocument is the on-disk shape of a suite file.
type suiteDocument struct {
	Validator string             `yaml:"_r_validator"`
	Tests     map[string]rawSpec `yaml:"tests"`
}

// rawSpec distinguishes unset fields from zero values.
type rawSpec struct {
	Distribution *string            `yaml:"distribution"`
	Params       map[string]float64 `yaml:"params"`
	Seed         *uint64            `yaml:"seed"`
	Iterations   *int               `yaml:"iterations"`
	Validator    *string            `yaml:"r_validator"`
	Expected     *Expected          `yaml:"r_expected"`
	Tolerance    *ToleranceOverride `yaml:"tolerance"`
}

// ParseSuite parses one suite document. The suite name is recorded on each
// spec; specs are returned sorted by name with Index set to that order.
func ParseSuite(data []byte, suite string, opts LoadOptions) ([]TestSpec, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if generic == nil {
		return nil, nil
	}
	if err := schema.ValidateSuite(generic); err != nil {
		return nil, err
	}

	var doc suiteDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid suite document: %w", err)
	}

	names := make([]string, 0, len(doc.Tests))
	for name := range doc.Tests {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]TestSpec, 0, len(names))
	for i, name := range names {
		spec, err := buildSpec(name, suite, doc.Tests[name], doc.Validator, opts)
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", name, err)
		}
		spec.Index = i
		specs = append(specs, spec)
	}

	return specs, nil
}

func buildSpec(name, suite string, raw rawSpec, suiteValidator string, opts LoadOptions) (TestSpec, error) {
	spec := TestSpec{
		Name:       name,
		Suite:      suite,
		Params:     raw.Params,
		Seed:       DefaultSeed,
		Iterations: DefaultIterations,
		Expected:   raw.Expected,
		Tolerance:  raw.Tolerance,
	}
	if raw.Distribution != nil {
		spec.Distribution = strings.TrimSpace(*raw.Distribution)
	}
	if raw.Seed != nil {
		spec.Seed = *raw.Seed
	}
	if raw.Iterations != nil {
		spec.Iterations = *raw.Iterations
	}

	switch {
	case raw.Validator != nil && *raw.Validator != "":
		spec.Validator = *raw.Validator
	case suiteValidator != "":
		spec.Validator = suiteValidator
	default:
		spec.Validator = opts.Validator
	}

	if err := specValidator().Struct(spec); err != nil {
		return TestSpec{}, describeValidation(err)
	}

	spec.Effective = EffectiveTolerance(opts.Tolerance, spec.Tolerance)
	return spec, nil
}

// describeValidation flattens validator errors into a single readable error.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// LoadSuiteFile loads one suite document; the suite name is the file stem.
func LoadSuiteFile(path string, opts LoadOptions) ([]TestSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	suite := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseSuite(data, suite, opts)
}

// LoadSuiteDir loads every suite file in dir matching pattern. Files are read
// in name order, and Index is renumbered across the whole result so that it
// reflects input order. Unparseable files become warnings unless opts.Strict.
// Test names must be unique across the loaded set.
func LoadSuiteDir(dir, pattern string, opts LoadOptions) ([]TestSpec, []string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("tests directory not found: %s", dir)
	}

	matches, err := findMatches(dir, pattern)
	if err != nil {
		return nil, nil, err
	}

	var all []TestSpec
	var warnings []string
	seen := make(map[string]string)

	for _, path := range matches {
		specs, err := LoadSuiteFile(path, opts)
		if err != nil {
			if opts.Strict {
				return nil, warnings, fmt.Errorf("suite %s: %w", path, err)
			}
			warnings = append(warnings, fmt.Sprintf("failed to parse %s: %v", path, err))
			continue
		}
		for _, spec := range specs {
			if prev, dup := seen[spec.Name]; dup {
				return nil, warnings, fmt.Errorf("duplicate test name %q in %s (first defined in suite %q)", spec.Name, path, prev)
			}
			seen[spec.Name] = spec.Suite
			spec.Index = len(all)
			all = append(all, spec)
		}
	}

	return all, warnings, nil
}

// findMatches returns files under dir whose base name matches pattern,
// sorted by path. An empty pattern matches YAML files.
func findMatches(dir, pattern string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if pattern == "" {
			if ext := filepath.Ext(base); ext == ".yaml" || ext == ".yml" {
				matches = append(matches, path)
			}
			return nil
		}

		matched, err := filepath.Match(pattern, base)
		if err != nil {
			return err
		}
		if matched {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}
