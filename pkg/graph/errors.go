package graph

import (
	"errors"
	"fmt"
)

// ErrorKind classifies hard resolution errors so automated tooling can
// branch on them. Warnings are not errors; see manifest.Warning.
type ErrorKind string

const (
	// KindSchema indicates a required-once field that is missing or
	// repeated, or a fatal Type mismatch in a library file.
	KindSchema ErrorKind = "schema"

	// KindDuplicatePackage indicates a package name declared more than
	// once within one index.
	KindDuplicatePackage ErrorKind = "duplicate-package"

	// KindDuplicateLibrary indicates two loaded libraries sharing one
	// qualified identity.
	KindDuplicateLibrary ErrorKind = "duplicate-library"

	// KindUnknownPackage indicates a Requires target or requested root
	// absent from the index.
	KindUnknownPackage ErrorKind = "unknown-package"

	// KindCycle indicates a cycle in the package Requires graph.
	KindCycle ErrorKind = "requirement-cycle"

	// KindUnresolvedReference indicates a Uses or Links reference with no
	// matching loaded library identity.
	KindUnresolvedReference ErrorKind = "unresolved-reference"

	// KindBadReference indicates reference syntax that is not
	// "<namespace>/<library>".
	KindBadReference ErrorKind = "bad-reference"

	// KindSpecialUses indicates an unqualified Special-Uses name outside
	// the reserved vocabulary.
	KindSpecialUses ErrorKind = "special-uses"

	// KindIO indicates a manifest file that could not be read.
	KindIO ErrorKind = "io"
)

// Error is a classified hard error. It aborts the operation that triggered
// it, but never the whole host process, and carries enough context (file,
// field, referenced identity) to be actionable without verbose tracing.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// File is the offending manifest path, when known.
	File string `json:"file,omitempty"`

	// Field is the violated field name, when applicable.
	Field string `json:"field,omitempty"`

	// Ref is the referenced identity or package name, when applicable.
	Ref string `json:"ref,omitempty"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.File != "" {
		msg += fmt.Sprintf(" (file=%s)", e.File)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind, so callers can compare against a prototype.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithFile adds the offending manifest path.
func (e *Error) WithFile(path string) *Error {
	e.File = path
	return e
}

// WithField adds the violated field name.
func (e *Error) WithField(name string) *Error {
	e.Field = name
	return e
}

// WithRef adds the referenced identity.
func (e *Error) WithRef(ref string) *Error {
	e.Ref = ref
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of a classified error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsCycle reports whether err is a requirement-cycle error.
func IsCycle(err error) bool {
	return KindOf(err) == KindCycle
}

// IsUnknownPackage reports whether err is an unknown-package error.
func IsUnknownPackage(err error) bool {
	return KindOf(err) == KindUnknownPackage
}

// IsUnresolvedReference reports whether err is an unresolved-reference error.
func IsUnresolvedReference(err error) bool {
	return KindOf(err) == KindUnresolvedReference
}

// IsDuplicatePackage reports whether err is a duplicate-package error.
func IsDuplicatePackage(err error) bool {
	return KindOf(err) == KindDuplicatePackage
}
