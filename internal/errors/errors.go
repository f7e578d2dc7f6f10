// Package errors provides structured error types and exit codes for stochval.
package errors

import (
	"errors"
	"fmt"

	"github.com/AndreyAkinshin/stochval/pkg/stochval"
)

// Exit codes, mirrored from the public package.
const (
	ExitSuccess          = stochval.ExitSuccess
	ExitRuntimeError     = stochval.ExitFailure
	ExitConfigError      = stochval.ExitConfigError
	ExitEnvironmentError = stochval.ExitEnvError
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	default:
		return "runtime"
	}
}

// StochvalError is the base error type for stochval.
type StochvalError struct {
	Kind    ErrorKind
	Message string
	Case    string // comparison case name if applicable
	Stage   string // pipeline stage if applicable
	Cause   error
}

func (e *StochvalError) Error() string {
	if e.Case != "" && e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Case, e.Stage, e.Message)
	}
	if e.Case != "" {
		return fmt.Sprintf("[%s] %s", e.Case, e.Message)
	}
	return e.Message
}

func (e *StochvalError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *StochvalError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *StochvalError {
	return &StochvalError{Kind: KindRuntime, Message: message}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...any) *StochvalError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *StochvalError {
	return &StochvalError{Kind: KindConfig, Message: message}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...any) *StochvalError {
	return Config(fmt.Sprintf(format, args...))
}

// Validation wraps a schema or semantic validation failure.
func Validation(err error) *StochvalError {
	return &StochvalError{Kind: KindValidation, Message: err.Error(), Cause: err}
}

// Environment creates a new environment error.
func Environment(message string) *StochvalError {
	return &StochvalError{Kind: KindEnvironment, Message: message}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...any) *StochvalError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *StochvalError {
	return &StochvalError{Kind: KindRuntime, Message: fmt.Sprintf("%s: %v", message, err), Cause: err}
}

// CaseError creates an error attributed to one comparison case and stage.
func CaseError(name, stage string, cause error) *StochvalError {
	return &StochvalError{Kind: KindRuntime, Case: name, Stage: stage, Message: cause.Error(), Cause: cause}
}

// NotFound creates a not found error.
func NotFound(what, name string) *StochvalError {
	return &StochvalError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", what, name)}
}

// GetExitCode returns the exit code for an error, looking through wrapping.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var se *StochvalError
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return ExitRuntimeError
}
