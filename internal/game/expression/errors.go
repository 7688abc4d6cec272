package expression

import (
	"errors"
	"fmt"
)

// ErrorKind classifies formula errors.
type ErrorKind string

const (
	// KindParse covers malformed text: unbalanced parentheses, unknown dice
	// selectors, malformed function calls, dangling operators.
	KindParse ErrorKind = "parse"
	// KindMissingSubstitution is returned when an @reference names an entry
	// that is absent from the substitution table.
	KindMissingSubstitution ErrorKind = "missing_substitution"
	// KindEvaluation covers failures while resolving a parsed tree.
	KindEvaluation ErrorKind = "evaluation"
)

// Sentinels for errors.Is.
var (
	ErrParse               = errors.New("formula parse error")
	ErrMissingSubstitution = errors.New("missing substitution")
	ErrEvaluation          = errors.New("formula evaluation error")
)

// Error is a structured formula error.
type Error struct {
	Kind     ErrorKind
	Message  string
	Text     string // the formula text being processed
	Position int    // byte offset into Text, or -1 when unknown
	Err      error
}

func newError(kind ErrorKind, text string, pos int, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Text:     text,
		Position: pos,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("expression: %s in %q at position %d: %s", e.Kind, e.Text, e.Position, e.Message)
	}
	return fmt.Sprintf("expression: %s in %q: %s", e.Kind, e.Text, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrParse:
		return e.Kind == KindParse
	case ErrMissingSubstitution:
		return e.Kind == KindMissingSubstitution
	case ErrEvaluation:
		return e.Kind == KindEvaluation
	}
	return false
}
