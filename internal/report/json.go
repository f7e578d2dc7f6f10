package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AndreyAkinshin/stochval/internal/tests"
)

// Document is the JSON report layout.
type Document struct {
	RunID    string          `json:"run_id"`
	Verdicts []tests.Verdict `json:"verdicts"`
	Summary  Summary         `json:"summary"`
}

// JSON collects verdicts and writes them to a file on Finish.
type JSON struct {
	path     string
	mu       sync.Mutex
	verdicts []tests.Verdict
}

// NewJSON creates a sink writing to path.
func NewJSON(path string) *JSON {
	return &JSON{path: path}
}

// Case records v.
func (j *JSON) Case(v tests.Verdict) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.verdicts = append(j.verdicts, v)
}

// Finish writes the report file.
func (j *JSON) Finish(s Summary) error {
	j.mu.Lock()
	doc := Document{RunID: s.RunID, Verdicts: j.verdicts, Summary: s}
	j.mu.Unlock()
	if doc.Verdicts == nil {
		doc.Verdicts = []tests.Verdict{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(j.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
