// Package errlist provides the single accumulated error list shared by the
// lexer, parser, compiler and virtual machine. It is grounded on the
// teacher repo's reuse of the Go standard library's own scanner error
// type (see lang/scanner/scanner.go's `type Error = scanner.Error`)
// rather than a hand-rolled error type, extended with a Kind so that all
// four error categories can live in one sorted list.
package errlist

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"
	"sort"

	"github.com/kestrelscript/kestrel/token"
)

// Error and ErrorList are aliases for the stdlib scanner's own error
// types, exactly as the teacher's lang/scanner package does. scanner.Error
// already carries a go/token.Position (filename/line/column) and a
// message; we reuse its Msg/Pos fields and Error() formatting wholesale.
type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// Kind classifies which pipeline stage reported an error.
type Kind uint8

const (
	Lex Kind = iota
	Parse
	Compile
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Compile:
		return "compile"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// entry pairs a scanner.Error with the Kind of pipeline stage that raised
// it, so the combined list can still report per-kind counts while sorting
// uniformly by position.
type entry struct {
	kind Kind
	err  Error
}

// List accumulates lex, parse, compile and runtime errors in one
// position-sorted sequence, standing in for spec.md's four separate error
// kinds unified into a single reported list (see spec.md §7).
type List struct {
	filename string
	entries  []entry
}

// NewList creates an empty List. filename is used only for error message
// formatting (there is always exactly one source file per Context).
func NewList(filename string) *List {
	return &List{filename: filename}
}

// Report appends a single error at pos with the given kind.
func (l *List) Report(kind Kind, pos token.Pos, msg string) {
	line, col := pos.LineCol()
	l.entries = append(l.entries, entry{
		kind: kind,
		err: Error{
			Pos: gotoken.Position{Filename: l.filename, Line: line, Column: col},
			Msg: msg,
		},
	})
}

// Reportf is like Report but formats msg with args.
func (l *List) Reportf(kind Kind, pos token.Pos, format string, args ...interface{}) {
	l.Report(kind, pos, fmt.Sprintf(format, args...))
}

// Len reports the total number of accumulated errors.
func (l *List) Len() int { return len(l.entries) }

// HasErrors reports whether any error has been recorded.
func (l *List) HasErrors() bool { return len(l.entries) > 0 }

// Count returns the number of errors of a specific kind.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, e := range l.entries {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// Sorted returns the errors ordered by source position (the same
// ordering rule as scanner.ErrorList.Sort): errors at the same position
// are ordered by message text, and keep the order they were reported in
// only when their messages are equal too.
func (l *List) Sorted() ErrorList {
	out := make(ErrorList, len(l.entries))
	for i, e := range l.entries {
		err := e.err
		out[i] = &err
	}
	sort.Stable(out)
	return out
}

// Err returns the accumulated errors as a single error value (nil if
// there are none), suitable for returning from a pipeline stage.
func (l *List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l.Sorted().Err()
}

// String renders every error, one per line, in position order.
func (l *List) String() string {
	return l.Sorted().Error()
}
