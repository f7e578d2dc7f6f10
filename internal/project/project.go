package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/AndreyAkinshin/stochval/internal/config"
)

// Project represents a loaded stochval project.
type Project struct {
	Root      string
	Config    *config.Config
	Warnings  []string
	HasConfig bool // false when running on built-in defaults
}

// LoadProject finds and loads a project from the current directory. Outside
// a project the current directory becomes the root and defaults apply.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if errors.Is(err, ErrNoProjectRoot) {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return nil, cwdErr
		}
		return loadDefaults(cwd), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory.
func LoadProjectFrom(root string) (*Project, error) {
	if err := LoadEnv(root); err != nil {
		return nil, err
	}

	configPath := filepath.Join(root, ConfigDirName, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return loadDefaults(root), nil
	}

	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.ApplyEnv(cfg, os.LookupEnv)

	return &Project{
		Root:      root,
		Config:    cfg,
		Warnings:  warnings,
		HasConfig: true,
	}, nil
}

func loadDefaults(root string) *Project {
	cfg := config.Default()
	config.ApplyEnv(cfg, os.LookupEnv)
	return &Project{Root: root, Config: cfg}
}

// LoadEnv reads .stochval/.env into the process environment if it exists.
// Variables already set in the environment win.
func LoadEnv(root string) error {
	path := filepath.Join(root, ConfigDirName, EnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigDirName, ConfigFileName)
}

// TestsDir returns the absolute suite directory.
func (p *Project) TestsDir() string {
	return p.resolve(p.Config.Tests.Directory)
}

// ValidatorsDir returns the absolute directory holding reference validator scripts.
func (p *Project) ValidatorsDir() string {
	return p.resolve(p.Config.Reference.ValidatorsDir)
}

// FixtureDir returns the base directory for per-run fixture workspaces.
func (p *Project) FixtureDir() string {
	return filepath.Join(p.Root, ConfigDirName, "runs")
}

func (p *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}
