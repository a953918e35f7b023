// Package errors defines the three fatal error kinds surfaced by the
// evoscript compilation pipeline: lexical, syntax, and semantic/codegen.
package errors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Kind distinguishes the stage that raised a CompilationError.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical error"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	default:
		return "error"
	}
}

// CompilationError is the single error type returned by the scanner, parser,
// and emitter. Compilation is all-or-nothing: the first CompilationError
// aborts the pass (§7 of the spec — no recovery, no warnings).
type CompilationError struct {
	Kind   Kind
	Offset int
	Reason string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

func NewLexical(offset int, reason string) *CompilationError {
	return &CompilationError{Kind: Lexical, Offset: offset, Reason: reason}
}

func NewSyntax(offset int, reason string) *CompilationError {
	return &CompilationError{Kind: Syntax, Offset: offset, Reason: reason}
}

func NewSemantic(offset int, reason string) *CompilationError {
	return &CompilationError{Kind: Semantic, Offset: offset, Reason: reason}
}

// Unreachable is returned from switch arms the type system cannot prove
// exhaustive but which a well-formed AST never reaches.
var Unreachable = errors.New("internal error: entered unreachable code")

// Aggregate wraps a single pipeline error in a *multierror.Error so the CLI
// has one rendering path regardless of whether the failure came from the
// scanner, parser, or emitter. This grammar aborts at the first error
// (§7), so the result always holds exactly one wrapped error, but callers
// that do accumulate more than one (e.g. a future batch-compile mode) can
// multierror.Append into the same value.
func Aggregate(err error) error {
	if err == nil {
		return nil
	}
	return multierror.Append(nil, err)
}
