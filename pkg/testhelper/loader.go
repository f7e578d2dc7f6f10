// Package testhelper provides reusable suite loading and sample agreement
// utilities for Go code that wants to run stochval suites in its own tests.
//
// Example usage in a Go test:
//
//	func TestSampler(t *testing.T) {
//	    root, err := testhelper.FindProjectRoot()
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    cases, err := testhelper.LoadSuite(root, "distributions")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    for _, tc := range cases {
//	        t.Run(tc.Name, func(t *testing.T) {
//	            want, err := testhelper.ReferenceSamples(context.Background(), tc)
//	            if err != nil {
//	                t.Fatal(err)
//	            }
//	            got := mySampler(tc.Distribution, tc.Params, tc.Seed, tc.Iterations)
//	            if ok, diff := testhelper.Compare(got, want, testhelper.DefaultTolerance()); !ok {
//	                t.Error(diff)
//	            }
//	        })
//	    }
//	}
package testhelper

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/stochval/internal/config"
	"github.com/AndreyAkinshin/stochval/internal/project"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Case is a single Monte Carlo test case loaded from a suite document.
type Case struct {
	// Name is the test case name (the key under tests:).
	Name string

	// Suite is the suite name (file name without extension).
	Suite string

	// Distribution is empty for cases that are not Monte Carlo tests.
	Distribution string

	// Params is the reference parameterization, e.g. mean and sd.
	Params map[string]float64

	Seed       uint64
	Iterations int
}

func fromSpec(s tests.TestSpec) Case {
	return Case{
		Name:         s.Name,
		Suite:        s.Suite,
		Distribution: s.Distribution,
		Params:       s.Params,
		Seed:         s.Seed,
		Iterations:   s.Iterations,
	}
}

// SuitesDir returns the suite directory of a project: tests.directory from
// .stochval/config.json, or tests/analytics when the config is absent or
// unreadable.
func SuitesDir(projectRoot string) string {
	path := filepath.Join(projectRoot, project.ConfigDirName, project.ConfigFileName)
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return filepath.Join(projectRoot, config.DefaultTestsDirectory)
	}
	if filepath.IsAbs(cfg.Tests.Directory) {
		return cfg.Tests.Directory
	}
	return filepath.Join(projectRoot, cfg.Tests.Directory)
}

// LoadSuite loads all cases of <suites dir>/<suite>.yaml.
func LoadSuite(projectRoot, suite string) ([]Case, error) {
	specs, err := tests.LoadSuiteFile(filepath.Join(SuitesDir(projectRoot), suite+".yaml"), tests.DefaultLoadOptions())
	if err != nil {
		return nil, err
	}
	cases := make([]Case, len(specs))
	for i, s := range specs {
		cases[i] = fromSpec(s)
	}
	return cases, nil
}

// LoadAllSuites loads cases from every suite in the project, keyed by suite name.
// Unparseable suite files are errors.
func LoadAllSuites(projectRoot string) (map[string][]Case, error) {
	opts := tests.DefaultLoadOptions()
	opts.Strict = true
	specs, _, err := tests.LoadSuiteDir(SuitesDir(projectRoot), "", opts)
	if err != nil {
		return nil, err
	}

	suites := make(map[string][]Case)
	for _, s := range specs {
		suites[s.Suite] = append(suites[s.Suite], fromSpec(s))
	}
	return suites, nil
}

// FindProjectRoot walks up the directory tree to find .stochval/config.json.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(cwd)
}

// FindProjectRootFrom finds the project root starting from a specific directory.
func FindProjectRootFrom(startDir string) (string, error) {
	root, err := project.FindRootFrom(startDir)
	if errors.Is(err, project.ErrNoProjectRoot) {
		return "", &ProjectNotFoundError{StartDir: startDir}
	}
	return root, err
}

// ProjectNotFoundError indicates .stochval/config.json was not found.
type ProjectNotFoundError struct {
	StartDir string
}

func (e *ProjectNotFoundError) Error() string {
	return ".stochval/config.json not found (searched from " + e.StartDir + ")"
}

// ListSuites returns the names of all suite files in the project.
func ListSuites(projectRoot string) ([]string, error) {
	entries, err := os.ReadDir(SuitesDir(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var suites []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
			suites = append(suites, strings.TrimSuffix(name, ext))
		}
	}
	return suites, nil
}

// SuiteExists checks if a suite file exists.
func SuiteExists(projectRoot, suite string) bool {
	_, err := os.Stat(filepath.Join(SuitesDir(projectRoot), suite+".yaml"))
	return err == nil
}
