// Package project provides project discovery and loading functionality.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigDirName is the name of the stochval configuration directory.
const ConfigDirName = ".stochval"

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.json"

// EnvFileName is the optional dotenv file inside the configuration directory.
const EnvFileName = ".env"

// ErrNoProjectRoot is returned when .stochval/config.json is not found.
var ErrNoProjectRoot = errors.New(".stochval/config.json not found: not a stochval project (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds .stochval/config.json.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds .stochval/config.json.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}
