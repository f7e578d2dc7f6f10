// Package procexec runs external collaborator processes with captured output
// and a per-invocation timeout.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one process invocation.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Env     map[string]string // added to the inherited environment
	Timeout time.Duration     // zero means no timeout
}

// Name returns the program name used in error messages.
func (c Command) Name() string {
	return filepath.Base(c.Path)
}

// Output is the captured result of a completed process.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (o *Output) Success() bool {
	return o.ExitCode == 0
}

// TimeoutError reports a process killed after exceeding its timeout.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %dms", e.Name, e.Timeout.Milliseconds())
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Run starts the command and waits for it. A non-zero exit is reported through
// Output.ExitCode, not as an error. Errors are returned when the process cannot
// be started, when it exceeds its timeout (*TimeoutError, no partial output),
// or when ctx is canceled.
func Run(ctx context.Context, c Command) (*Output, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", c.Name(), ctx.Err())
		}
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &TimeoutError{Name: c.Name(), Timeout: c.Timeout}
		}
	}

	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: elapsed,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", c.Name(), err)
	}

	return out, nil
}
