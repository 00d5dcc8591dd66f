// Package parser implements a recursive-descent, precedence-climbing
// parser for kestrel, grounded on the teacher's lang/parser package and
// on original_source/parser.c's statement/expression grammar. It
// consumes the lexer's token stream and produces an *ast.Chunk.
package parser

import (
	"github.com/kestrelscript/kestrel/ast"
	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/lexer"
	"github.com/kestrelscript/kestrel/token"
)

// parser keeps a one-token lookahead buffer (peeked) so the grammar can
// disambiguate `IDENT '=' expr` (assignment) from a bare expression
// starting with an identifier without backtracking.
type parser struct {
	lex  *lexer.Lexer
	errs *errlist.List

	tok    lexer.Lexeme
	peeked *lexer.Lexeme
}

// Parse tokenizes and parses src, returning the root Chunk. Parse errors
// are reported to errs with errlist.Parse; the parser recovers to the
// next statement boundary and continues, so a single Parse call can
// surface more than one error.
func Parse(src string, errs *errlist.List) *ast.Chunk {
	p := &parser{lex: lexer.New(src, errs), errs: errs}
	p.advance()
	return p.parseChunk()
}

func (p *parser) advance() {
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
		return
	}
	p.tok = p.lex.Scan()
}

// peek returns the token following the current one without consuming it.
func (p *parser) peek() lexer.Lexeme {
	if p.peeked == nil {
		lx := p.lex.Scan()
		p.peeked = &lx
	}
	return *p.peeked
}

func (p *parser) at(tok token.Token) bool { return p.tok.Tok == tok }

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs.Reportf(errlist.Parse, p.tok.Pos, format, args...)
}

// expect consumes tok if present, else reports an error and does not
// advance (so recovery can find a synchronization point).
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.tok.Pos
	if p.tok.Tok != tok {
		p.errorf("expected %s, got %s", tok.GoString(), p.tok.Tok.GoString())
		return pos
	}
	p.advance()
	return pos
}

// sync skips tokens until a statement boundary (';', '}' or EOF) to
// resume parsing after an error, in the teacher's error-recovery style.
func (p *parser) sync() {
	for !p.at(token.EOF) {
		if p.at(token.SEMI) {
			p.advance()
			return
		}
		if p.at(token.RBRACE) {
			return
		}
		p.advance()
	}
}

func (p *parser) parseChunk() *ast.Chunk {
	c := &ast.Chunk{}
	for !p.at(token.EOF) {
		s := p.parseStmt()
		if s != nil {
			c.Stmts = append(c.Stmts, s)
		}
	}
	return c
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Tok {
	case token.LET:
		return p.parseVarDecl()
	case token.FN:
		return p.parseFnDecl()
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseVarDecl() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // let
	if !p.at(token.IDENT) {
		p.errorf("expected identifier after 'let'")
		p.sync()
		return nil
	}
	name := p.tok.Str
	p.advance()

	var init ast.Expr
	if p.at(token.EQ) {
		p.advance()
		init = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.VarDecl{PosVal: pos, Name: name, Init: init}
}

func (p *parser) parseFnDecl() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // fn
	if !p.at(token.IDENT) {
		p.errorf("expected function name after 'fn'")
		p.sync()
		return nil
	}
	name := p.tok.Str
	p.advance()

	p.expect(token.LPAREN)
	var params []string
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		if !p.at(token.IDENT) {
			p.errorf("expected parameter name")
			break
		}
		params = append(params, p.tok.Str)
		p.advance()
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)

	body := p.parseBlock().(*ast.BlockStmt)
	return &ast.FnDecl{PosVal: pos, Name: name, Params: params, Body: body}
}

func (p *parser) parseBlock() ast.Stmt {
	pos := p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(token.RBRACE)
	return &ast.BlockStmt{PosVal: pos, Stmts: stmts}
}

func (p *parser) parseIfStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // if
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock().(*ast.BlockStmt)

	var els *ast.BlockStmt
	if p.at(token.ELSE) {
		p.advance()
		if p.at(token.IF) {
			// `else if` desugars to a single-statement else block.
			inner := p.parseIfStmt()
			els = &ast.BlockStmt{PosVal: inner.Pos(), Stmts: []ast.Stmt{inner}}
		} else {
			els = p.parseBlock().(*ast.BlockStmt)
		}
	}
	return &ast.IfStmt{PosVal: pos, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseForStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // for
	if !p.at(token.IDENT) {
		p.errorf("expected loop variable name after 'for'")
		p.sync()
		return nil
	}
	ident := p.tok.Str
	p.advance()
	p.expect(token.IN)

	rangePos := p.tok.Pos
	start := p.parseAdditive()
	p.expect(token.DOTDOT)
	end := p.parseAdditive()

	body := p.parseBlock().(*ast.BlockStmt)
	return &ast.ForStmt{
		PosVal: pos,
		Ident:  ident,
		Range:  &ast.RangeExpr{PosVal: rangePos, Start: start, End: end},
		Body:   body,
	}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // return
	var val ast.Expr
	if !p.at(token.SEMI) {
		val = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.ReturnStmt{PosVal: pos, Value: val}
}

func (p *parser) parseBreakStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance() // break
	p.expect(token.SEMI)
	return &ast.BreakStmt{PosVal: pos}
}

func (p *parser) parseExprStmt() ast.Stmt {
	pos := p.tok.Pos
	if p.at(token.SEMI) {
		// Empty statement; skip.
		p.advance()
		return nil
	}
	if p.at(token.EOF) || p.at(token.RBRACE) {
		p.errorf("unexpected %s", p.tok.Tok.GoString())
		p.advance()
		return nil
	}
	x := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.ExprStmt{PosVal: pos, X: x}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr { return p.parseAssignOrTernary() }

func (p *parser) parseAssignOrTernary() ast.Expr {
	// Assignment requires an identifier target, so peek one token ahead:
	// IDENT '=' is unambiguous because '==' lexes as a single token.
	if p.at(token.IDENT) && p.peekIsAssign() {
		pos := p.tok.Pos
		name := p.tok.Str
		target := &ast.SymbolRef{PosVal: pos, Name: name}
		p.advance() // ident
		p.advance() // =
		val := p.parseAssignOrTernary()
		return &ast.AssignExpr{PosVal: pos, Target: target, Value: val}
	}
	return p.parseTernary()
}

// peekIsAssign reports whether the current token is IDENT immediately
// followed by '=' (and not '=='), the one point in the grammar where the
// parser needs two tokens of lookahead.
func (p *parser) peekIsAssign() bool {
	return p.peek().Tok == token.EQ
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseLogicOr()
	if p.at(token.QUESTION) {
		pos := p.tok.Pos
		p.advance()
		t := p.parseExpr()
		p.expect(token.COLON)
		f := p.parseExpr()
		return &ast.TernaryExpr{PosVal: pos, Cond: cond, True: t, False: f}
	}
	return cond
}

func (p *parser) parseLogicOr() ast.Expr {
	left := p.parseLogicAnd()
	for p.at(token.OROR) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseLogicAnd()
		left = &ast.BinaryExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseLogicAnd() ast.Expr {
	left := p.parseEquality()
	for p.at(token.ANDAND) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.at(token.EQEQ) || p.at(token.BANGEQ) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseComparison()
		left = &ast.CompareExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for p.at(token.LT) || p.at(token.GT) || p.at(token.LE) || p.at(token.GE) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseAdditive()
		left = &ast.CompareExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.at(token.STAR) || p.at(token.SLASH) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{PosVal: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.at(token.MINUS) || p.at(token.BANG) {
		pos := p.tok.Pos
		op := p.tok.Tok
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{PosVal: pos, Op: op, Operand: operand}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	pos := p.tok.Pos
	switch p.tok.Tok {
	case token.INT:
		v := p.tok.Int
		p.advance()
		return &ast.IntLit{PosVal: pos, Value: v}
	case token.FLOAT:
		v := p.tok.Float
		p.advance()
		return &ast.FloatLit{PosVal: pos, Value: v}
	case token.STRING:
		v := p.tok.Str
		p.advance()
		return &ast.StringLit{PosVal: pos, Value: v}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{PosVal: pos, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{PosVal: pos, Value: false}
	case token.IDENT:
		name := p.tok.Str
		p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallArgs(pos, name)
		}
		return &ast.SymbolRef{PosVal: pos, Name: name}
	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	default:
		p.errorf("unexpected token %s in expression", p.tok.Tok.GoString())
		p.advance()
		return &ast.IntLit{PosVal: pos, Value: 0}
	}
}

func (p *parser) parseCallArgs(pos token.Pos, callee string) ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return &ast.CallExpr{PosVal: pos, Callee: callee, Args: args}
}
