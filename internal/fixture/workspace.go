package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/AndreyAkinshin/stochval/internal/formula"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Fixture is a rendered engine input written to a case directory.
type Fixture struct {
	Name       string
	Dir        string
	Path       string // engine input YAML
	OutputPath string // where the engine writes its JSON results
	Seed       uint64
	Iterations int
	Formula    formula.Formula
}

// Workspace owns a per-run directory; each case gets its own subdirectory so
// that concurrent cases never share files.
type Workspace struct {
	RunID string
	Root  string
	Keep  bool // leave files behind for inspection

	mu      sync.Mutex
	created bool
}

// NewWorkspace prepares a workspace under base (os.TempDir() when empty).
// The directory is created lazily on the first Prepare.
func NewWorkspace(base string, keep bool) *Workspace {
	if base == "" {
		base = os.TempDir()
	}
	id := uuid.NewString()
	return &Workspace{
		RunID: id,
		Root:  filepath.Join(base, "stochval-"+id),
		Keep:  keep,
	}
}

func (w *Workspace) ensureRoot() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.created {
		return nil
	}
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	w.created = true
	return nil
}

// Prepare renders and writes the fixture for spec into a fresh case directory.
func (w *Workspace) Prepare(spec *tests.TestSpec, f formula.Formula) (*Fixture, error) {
	data, err := Render(spec, f)
	if err != nil {
		return nil, err
	}
	if err := w.ensureRoot(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(w.Root, unsafeChars.ReplaceAllString(spec.Name, "_")+"-*")
	if err != nil {
		return nil, fmt.Errorf("create case directory: %w", err)
	}

	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write fixture: %w", err)
	}

	return &Fixture{
		Name:       spec.Name,
		Dir:        dir,
		Path:       path,
		OutputPath: filepath.Join(dir, "results.json"),
		Seed:       spec.Seed,
		Iterations: spec.Iterations,
		Formula:    f,
	}, nil
}

// Cleanup removes a case directory unless the workspace keeps fixtures.
func (w *Workspace) Cleanup(f *Fixture) error {
	if w.Keep || f == nil || f.Dir == "" {
		return nil
	}
	return os.RemoveAll(f.Dir)
}

// Close removes the run directory unless the workspace keeps fixtures.
func (w *Workspace) Close() error {
	if w.Keep {
		return nil
	}
	return os.RemoveAll(w.Root)
}
