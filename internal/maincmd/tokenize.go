package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/lexer"
	"github.com/kestrelscript/kestrel/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles scans each file independently and prints its tokens,
// grounded on the teacher's TokenizeFiles (internal/maincmd/tokenize.go),
// adapted for kestrel's single-file errlist.List rather than a shared
// go/token.FileSet across files.
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	srcs, err := readFiles(files)
	if err != nil {
		return printError(stdio, err)
	}

	var firstErrs *errlist.List
	for _, path := range files {
		errs := errlist.NewList(path)
		for _, lx := range lexer.ScanAll(srcs[path], errs) {
			line, col := lx.Pos.LineCol()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", path, line, col, lx.Tok)
			if lit := literalOf(lx); lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", lit)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if errs.HasErrors() && firstErrs == nil {
			firstErrs = errs
		}
	}
	if firstErrs != nil {
		fmt.Fprint(stdio.Stderr, firstErrs.String())
		return firstErrs.Err()
	}
	return nil
}

func literalOf(lx lexer.Lexeme) string {
	switch lx.Tok {
	case token.IDENT, token.STRING:
		return lx.Str
	case token.INT:
		return fmt.Sprintf("%d", lx.Int)
	case token.FLOAT:
		return fmt.Sprintf("%g", lx.Float)
	default:
		return ""
	}
}
