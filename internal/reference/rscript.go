package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/AndreyAkinshin/stochval/internal/procexec"
	"github.com/AndreyAkinshin/stochval/internal/schema"
)

// DefaultRscriptTimeout bounds a single validator script run.
const DefaultRscriptTimeout = 30 * time.Second

var packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.]*$`)

// Rscript runs R validator scripts: `Rscript <dir>/<id> --json <request>`.
type Rscript struct {
	Binary        string
	ValidatorsDir string
	Timeout       time.Duration
}

// NewRscript returns an Rscript validator with the default timeout.
func NewRscript(binary, validatorsDir string) *Rscript {
	return &Rscript{Binary: binary, ValidatorsDir: validatorsDir, Timeout: DefaultRscriptTimeout}
}

// Validate runs the script named by req.Validator. A script that exits
// non-zero yields an unsuccessful Result rather than an error; its stdout is
// never parsed.
func (r *Rscript) Validate(ctx context.Context, req Request) (*Result, error) {
	script := filepath.Join(r.ValidatorsDir, req.Validator)
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("R validator not found: %s", script)
	}

	params, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	out, err := procexec.Run(ctx, procexec.Command{
		Path:    r.Binary,
		Args:    []string{script, "--json", string(params)},
		Timeout: r.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if !out.Success() {
		return &Result{
			Validator: req.Validator,
			Success:   false,
			Error:     fmt.Sprintf("R script failed (exit %d): %s", out.ExitCode, strings.TrimSpace(string(out.Stderr))),
		}, nil
	}

	return decodeResult(out.Stdout)
}

func decodeResult(stdout []byte) (*Result, error) {
	stdout = bytes.TrimSpace(stdout)
	if err := schema.ValidateReferenceResult(stdout); err != nil {
		return nil, fmt.Errorf("failed to parse R validator JSON: %s: %w", preview(stdout), err)
	}
	var res Result
	if err := json.Unmarshal(stdout, &res); err != nil {
		return nil, fmt.Errorf("failed to parse R validator JSON: %s: %w", preview(stdout), err)
	}
	return &res, nil
}

func preview(b []byte) string {
	const limit = 200
	s := []rune(string(b))
	if len(s) > limit {
		return string(s[:limit]) + "..."
	}
	return string(s)
}

// CheckAvailable runs `Rscript --version` and returns the reported version.
// Rscript prints its version on stderr.
func (r *Rscript) CheckAvailable(ctx context.Context) (string, error) {
	out, err := procexec.Run(ctx, procexec.Command{Path: r.Binary, Args: []string{"--version"}, Timeout: r.Timeout})
	if err != nil {
		return "", fmt.Errorf("failed to run Rscript --version: %w", err)
	}
	version := strings.TrimSpace(string(out.Stderr))
	if version == "" {
		version = strings.TrimSpace(string(out.Stdout))
	}
	if out.Success() || strings.Contains(version, "version") {
		return version, nil
	}
	return "", fmt.Errorf("Rscript not available (exit %d)", out.ExitCode)
}

// CheckPackage reports whether an R package is installed.
func (r *Rscript) CheckPackage(ctx context.Context, pkg string) (bool, error) {
	if !packageNamePattern.MatchString(pkg) {
		return false, fmt.Errorf("invalid R package name %q", pkg)
	}
	script := fmt.Sprintf("cat(requireNamespace('%s', quietly=TRUE))", pkg)
	out, err := procexec.Run(ctx, procexec.Command{Path: r.Binary, Args: []string{"-e", script}, Timeout: r.Timeout})
	if err != nil {
		return false, fmt.Errorf("failed to check R package %s: %w", pkg, err)
	}
	return strings.TrimSpace(string(out.Stdout)) == "TRUE", nil
}
