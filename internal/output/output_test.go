package output

import (
	"bytes"
	"strings"
	"testing"
)

// newTestWriter creates a Writer with captured output for testing.
func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return NewWithWriters(stdout, stderr, false), stdout, stderr
}

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.out == nil || w.err == nil {
		t.Error("New() left a nil writer")
	}
}

func TestWriter_SetQuiet(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.SetQuiet(true)
	w.Info("hidden")
	w.Section("hidden")
	if stdout.Len() != 0 {
		t.Errorf("quiet writer produced %q", stdout.String())
	}

	w.SetQuiet(false)
	w.Info("shown %d", 1)
	if got := stdout.String(); got != "shown 1\n" {
		t.Errorf("Info() = %q", got)
	}
}

func TestWriter_Streams(t *testing.T) {
	t.Parallel()
	w, stdout, stderr := newTestWriter()

	w.Println("hello %s", "world")
	w.Errorln("error %d", 42)

	if got := stdout.String(); got != "hello world\n" {
		t.Errorf("Println() = %q", got)
	}
	if got := stderr.String(); got != "error 42\n" {
		t.Errorf("Errorln() = %q", got)
	}
}

func TestWriter_WarningAndErrorPrefix(t *testing.T) {
	t.Parallel()
	w, _, stderr := newTestWriter()

	w.Warning("unknown field %q", "foo")
	w.ErrorPrefix("tests directory not found: %s", "tests/analytics")

	want := "warning: unknown field \"foo\"\nstochval: tests directory not found: tests/analytics\n"
	if got := stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestWriter_CaseLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mark   int
		detail string
		want   string
	}{
		{MarkPass, "", "  + normal_basic (1.2s)\n"},
		{MarkFail, "Mean mismatch", "  x normal_basic (1.2s): Mean mismatch\n"},
		{MarkError, "Target engine failed: boom", "  ! normal_basic (1.2s): Target engine failed: boom\n"},
		{MarkSkip, "No distribution", "  - normal_basic (1.2s): No distribution\n"},
	}
	for _, tt := range tests {
		w, stdout, _ := newTestWriter()
		w.CaseLine(tt.mark, "normal_basic", "1.2s", tt.detail)
		if got := stdout.String(); got != tt.want {
			t.Errorf("CaseLine(%d) = %q, want %q", tt.mark, got, tt.want)
		}
	}
}

func TestWriter_CaseLineColor(t *testing.T) {
	t.Parallel()
	stdout := &bytes.Buffer{}
	w := NewWithWriters(stdout, &bytes.Buffer{}, true)

	w.CaseLine(MarkPass, "a", "0s", "")
	w.CaseLine(MarkSkip, "b", "0s", "")

	got := stdout.String()
	if !strings.Contains(got, "✓") || !strings.Contains(got, "○") {
		t.Errorf("colored output missing glyphs: %q", got)
	}
	if !strings.Contains(got, green) {
		t.Errorf("colored output missing ANSI codes: %q", got)
	}
}

func TestWriter_Table(t *testing.T) {
	t.Parallel()
	w, stdout, _ := newTestWriter()

	w.Table([]string{"Name", "Distribution"}, [][]string{
		{"normal_basic", "normal"},
		{"uniform_wide", "uniform"},
	})

	got := stdout.String()
	for _, want := range []string{"NAME", "DISTRIBUTION", "normal_basic", "uniform_wide"} {
		if !strings.Contains(got, want) {
			t.Errorf("Table() output missing %q:\n%s", want, got)
		}
	}
}

func TestWriter_Summary(t *testing.T) {
	t.Parallel()
	w, stdout, _ := newTestWriter()

	w.SummaryHeader("Summary")
	w.SummaryItem("Total", "3")
	w.SummaryPassed("Passed", "1")
	w.SummaryFailed("Failed", "1")
	w.SummarySkipped("Skipped", "1")
	w.FinalFailure("%d of %d cases failed", 1, 3)

	want := "\n=== Summary ===\n  Total: 3\n  Passed: 1\n  Failed: 1\n  Skipped: 1\n\n1 of 3 cases failed\n"
	if got := stdout.String(); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}
