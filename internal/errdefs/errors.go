// Package errdefs defines the error taxonomy shared across the release
// pipeline. Every task failure is reported as an *Error carrying the
// failing task's identity, a kind that callers can branch on, and the
// raw diagnostics captured from the toolchain or container runtime.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindToolchain is a compiler or linker error for a target. Never
	// retried automatically: it reflects a deterministic build error.
	KindToolchain Kind = "toolchain failure"

	// KindEnvironment is an infrastructure fault in the containerized
	// backend (image pull, mount, runtime unreachable). Bounded retry
	// is permitted for transient cases.
	KindEnvironment Kind = "environment failure"

	// KindArtifactMissing means a build reported success but its
	// declared output path does not exist.
	KindArtifactMissing Kind = "artifact missing"

	// KindStagingState means the staging directory is in a state the
	// collector or packager refuses to work with (stale contents, or
	// packaging before collection).
	KindStagingState Kind = "staging state error"

	// KindPackaging is a write or permission failure while producing
	// the archive.
	KindPackaging Kind = "packaging failure"
)

// Error is the pipeline error type.
type Error struct {
	Kind Kind
	Task string // failing task identity, e.g. "build-windows-x86_64"
	Msg  string
	Err  error // underlying cause, if any

	// Diagnostics holds captured toolchain/container output. Printed
	// by the CLI alongside the failure, not embedded in Error().
	Diagnostics string

	// Suggestion is an optional actionable hint derived from known
	// diagnostic patterns.
	Suggestion string

	// Retryable marks transient environment faults eligible for
	// bounded retry.
	Retryable bool
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Task != "" {
		return fmt.Sprintf("%s: %s: %s", e.Task, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an *Error of the given kind.
func New(kind Kind, task, msg string) *Error {
	return &Error{Kind: kind, Task: task, Msg: msg}
}

// Wrap creates an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, task string, err error, msg string) *Error {
	return &Error{Kind: kind, Task: task, Msg: msg, Err: err}
}

// WithDiagnostics attaches captured output and returns the error.
func (e *Error) WithDiagnostics(out string) *Error {
	e.Diagnostics = out
	return e
}

// WithSuggestion attaches a hint and returns the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// AsRetryable marks the error as transient and returns it.
func (e *Error) AsRetryable() *Error {
	e.Retryable = true
	return e
}

// KindOf returns the kind of err if it is (or wraps) an *Error, or ""
// otherwise.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err is a transient environment fault.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable
}
