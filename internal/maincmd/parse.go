package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/kestrelscript/kestrel/ast"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, args...)
}

// ParseFiles mirrors the teacher's ParseFiles (internal/maincmd/parse.go):
// parse each file and print its AST, reporting the first file's errors.
func ParseFiles(stdio mainer.Stdio, files ...string) error {
	srcs, err := readFiles(files)
	if err != nil {
		return printError(stdio, err)
	}

	var firstErrs *errlist.List
	for _, path := range files {
		errs := errlist.NewList(path)
		chunk := parser.Parse(srcs[path], errs)
		fmt.Fprintf(stdio.Stdout, "-- %s --\n", path)
		ast.Fprint(stdio.Stdout, chunk)
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
