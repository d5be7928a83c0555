package rdfgraph

import (
	"errors"
	"fmt"

	"github.com/c360studio/semkb/format"
)

// Sentinel errors matched by *ParseError via errors.Is.
var (
	// ErrConnectionRefused means the source could not be reached.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrMalformedSyntax means the content does not match the declared format.
	ErrMalformedSyntax = errors.New("malformed syntax")

	// ErrEngine covers every other engine failure.
	ErrEngine = errors.New("graph engine error")

	// ErrValidationInconclusive means the validator failed to reach a verdict.
	ErrValidationInconclusive = errors.New("validation inconclusive")
)

// ParseErrorKind subdivides load failures.
type ParseErrorKind int

// Parse error kinds.
const (
	ConnectionRefused ParseErrorKind = iota + 1
	MalformedSyntax
	EngineError
)

// String returns the kind name.
func (k ParseErrorKind) String() string {
	switch k {
	case ConnectionRefused:
		return "connection_refused"
	case MalformedSyntax:
		return "malformed_syntax"
	case EngineError:
		return "engine_error"
	default:
		return "unknown"
	}
}

// ParseError describes a failure to turn a source into a graph.
type ParseError struct {
	Kind   ParseErrorKind
	Format format.Format
	Source string
	Err    error
}

// NewParseError builds a ParseError.
func NewParseError(kind ParseErrorKind, f format.Format, source string, err error) *ParseError {
	return &ParseError{Kind: kind, Format: f, Source: source, Err: err}
}

// Error implements error.
func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case ConnectionRefused:
		msg = "connection refused to " + e.describeSource()
	case MalformedSyntax:
		msg = fmt.Sprintf("wrong file format for %s (expected %s)", e.describeSource(), e.Format)
	default:
		msg = "engine error reading " + e.describeSource()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) describeSource() string {
	if e.Source == "" {
		return "content"
	}
	return e.Source
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case ConnectionRefused:
		return target == ErrConnectionRefused
	case MalformedSyntax:
		return target == ErrMalformedSyntax
	case EngineError:
		return target == ErrEngine
	}
	return false
}

// Retryable reports whether the caller may retry the load with backoff.
func (e *ParseError) Retryable() bool {
	return e.Kind == ConnectionRefused
}

// KindOf returns the ParseErrorKind carried by err, or 0 when err is not a
// ParseError.
func KindOf(err error) ParseErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
