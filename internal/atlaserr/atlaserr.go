// Package atlaserr classifies pipeline failures into the small set of kinds
// the CLI and HTTP boundaries translate for users.
package atlaserr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind string

const (
	// KindIO covers file and subprocess I/O failures.
	KindIO Kind = "io"
	// KindParse covers malformed parser output.
	KindParse Kind = "parse"
	// KindStore covers graph store query and connectivity failures.
	KindStore Kind = "store"
	// KindProvider covers LLM and embedder call failures.
	KindProvider Kind = "provider"
	// KindConfig covers missing credentials and bad arguments.
	KindConfig Kind = "config"
	// KindNotFound covers lookups of absent nodes.
	KindNotFound Kind = "not_found"
)

// Error wraps an underlying failure with its kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and operation name.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
