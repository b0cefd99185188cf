// Package errors provides structured error types and exit codes for moodlexml.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess      = 0 // Success, including runs that skipped tasks
	ExitRuntimeError = 1 // Runtime error (unreadable directory, output write failure)
	ExitConfigError  = 2 // Configuration or usage error
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindAsset
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindAsset:
		return "asset"
	default:
		return "runtime"
	}
}

// Error is the base error type for moodlexml.
type Error struct {
	Kind    ErrorKind
	Message string
	Path    string // File the error refers to, if any
	Task    int    // Task number, if any
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Task > 0 {
		msg = fmt.Sprintf("[task %d] %s", e.Task, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a not found error for a file.
func NotFound(what, path string, cause error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", what),
		Path:    path,
		Cause:   cause,
	}
}

// Asset creates an error for a task asset that could not be read.
func Asset(task int, path string, cause error) *Error {
	return &Error{
		Kind:    KindAsset,
		Message: "cannot read asset",
		Path:    path,
		Task:    task,
		Cause:   cause,
	}
}

// IsKind reports whether err, or any error it wraps, is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitRuntimeError
}
