package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/kestrelscript/kestrel/bytecode"
	"github.com/kestrelscript/kestrel/compiler"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/parser"
	"github.com/kestrelscript/kestrel/registry"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(stdio, args...)
}

// CompileFiles parses and compiles each file, printing its disassembled
// bytecode buffer. Unlike tokenize/parse, a compile error aborts printing
// for that file entirely: disassembling a partially-compiled buffer isn't
// useful.
func CompileFiles(stdio mainer.Stdio, files ...string) error {
	srcs, err := readFiles(files)
	if err != nil {
		return printError(stdio, err)
	}

	var firstErrs *errlist.List
	for _, path := range files {
		errs := errlist.NewList(path)
		chunk := parser.Parse(srcs[path], errs)
		if errs.HasErrors() {
			firstErrs = errs
			continue
		}

		ctx := compiler.Compile(path, chunk, errs)
		if errs.HasErrors() {
			firstErrs = errs
			continue
		}

		fmt.Fprintf(stdio.Stdout, "-- %s --\n", path)
		fmt.Fprint(stdio.Stdout, bytecode.Disassemble(ctx.Buffer(), chunkLabels(ctx.Registry())))
	}
	if firstErrs != nil {
		fmt.Fprint(stdio.Stderr, firstErrs.String())
		return firstErrs.Err()
	}
	return nil
}

// chunkLabels builds the chunk-id-keyed function label map Disassemble
// prints under each chunk's header, from the function name and captured
// local names of every registered Record (registry imports bytecode for
// *bytecode.Chunk, so bytecode itself cannot look the registry back up).
func chunkLabels(reg *registry.Registry) map[int]string {
	labels := make(map[int]string)
	reg.Each(func(name string, rec *registry.Record) {
		label := fmt.Sprintf("function %s", name)
		if len(rec.Locals) > 0 {
			label += fmt.Sprintf(" (locals: %s)", fmt.Sprint(rec.Locals))
		}
		labels[rec.Body.ID] = label
	})
	return labels
}
