package cli

import (
	"regexp"

	"github.com/AndreyAkinshin/stochval/internal/config"
	"github.com/AndreyAkinshin/stochval/internal/errors"
	"github.com/AndreyAkinshin/stochval/internal/project"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// suiteFlags select and filter the suites a command works on.
type suiteFlags struct {
	testsDir string
	pattern  string
	preset   string
	strict   bool
	filter   string
}

// loadProject finds the project and applies command-line overrides.
func loadProject(sf *suiteFlags) (*project.Project, error) {
	proj, err := project.LoadProject()
	if err != nil {
		return nil, errors.Config(err.Error())
	}
	for _, w := range proj.Warnings {
		out.Warning("%s", w)
	}

	cfg := proj.Config
	if sf.testsDir != "" {
		cfg.Tests.Directory = sf.testsDir
	}
	if sf.pattern != "" {
		cfg.Tests.Pattern = sf.pattern
	}
	if sf.strict {
		cfg.Tests.Strict = true
	}
	if sf.preset != "" {
		if err := config.ValidatePreset(sf.preset); err != nil {
			return nil, errors.Config(err.Error())
		}
		cfg.Tolerance.Preset = sf.preset
	}
	return proj, nil
}

// loadSpecs reads every suite for the project and keeps those matching the name filter.
func loadSpecs(proj *project.Project, sf *suiteFlags) ([]tests.TestSpec, error) {
	cfg := proj.Config
	tol, err := cfg.ResolveTolerance()
	if err != nil {
		return nil, errors.Config(err.Error())
	}

	var filter *regexp.Regexp
	if sf.filter != "" {
		filter, err = regexp.Compile(sf.filter)
		if err != nil {
			return nil, errors.Configf("invalid --run pattern: %v", err)
		}
	}

	opts := tests.LoadOptions{
		Tolerance: tol,
		Validator: cfg.Reference.DefaultValidator,
		Strict:    cfg.Tests.Strict,
	}
	specs, warnings, err := tests.LoadSuiteDir(proj.TestsDir(), cfg.Tests.Pattern, opts)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		return nil, errors.Validation(err)
	}

	if filter == nil {
		return specs, nil
	}
	kept := specs[:0]
	for _, s := range specs {
		if filter.MatchString(s.Name) {
			s.Index = len(kept)
			kept = append(kept, s)
		}
	}
	return kept, nil
}
