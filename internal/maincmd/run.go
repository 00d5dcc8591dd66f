package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/kestrelscript/kestrel/compiler"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
	"github.com/kestrelscript/kestrel/vm"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(ctx, stdio, args...)
}

// RunFiles compiles and executes each file in turn, printing the program's
// return value to stdout. Execution stops at the first file that fails to
// lex, parse, compile or run. ctx is the signal-cancellable context
// Cmd.Main sets up (see maincmd.go), threaded down to vm.VM.Run.
func RunFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	srcs, err := readFiles(files)
	if err != nil {
		return printError(stdio, err)
	}

	for _, path := range files {
		errs := errlist.NewList(path)
		chunk := parser.Parse(srcs[path], errs)
		if errs.HasErrors() {
			fmt.Fprint(stdio.Stderr, errs.String())
			return errs.Err()
		}

		cc := compiler.Compile(path, chunk, errs)
		if errs.HasErrors() {
			fmt.Fprint(stdio.Stderr, errs.String())
			return errs.Err()
		}

		m := vm.New(cc.Buffer(), cc.Registry(), cc.Constants(), errs)
		result, err := m.Run(ctx)
		if err != nil {
			fmt.Fprint(stdio.Stderr, errs.String())
			return err
		}
		fmt.Fprintf(stdio.Stdout, "%s => %s\n", path, result.String())
	}
	return nil
}
