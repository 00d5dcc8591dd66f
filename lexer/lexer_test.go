package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscript/kestrel/errlist"
	"github.com/kestrelscript/kestrel/lexer"
	"github.com/kestrelscript/kestrel/token"
)

func toks(lexemes []lexer.Lexeme) []token.Token {
	out := make([]token.Token, len(lexemes))
	for i, lx := range lexemes {
		out[i] = lx.Tok
	}
	return out
}

func TestScanAllBasic(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll(`let a = 2 + 3 * 4; return a;`, errs)
	require.False(t, errs.HasErrors())

	want := []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT,
		token.STAR, token.INT, token.SEMI, token.RETURN, token.IDENT,
		token.SEMI, token.EOF,
	}
	assert.Equal(t, want, toks(lexemes))
	assert.Equal(t, "a", lexemes[1].Str)
	assert.Equal(t, int64(2), lexemes[3].Int)
}

func TestScanFloatScientific(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll(`1.5e10 0.25`, errs)
	require.False(t, errs.HasErrors())
	require.Len(t, lexemes, 3) // 2 numbers + EOF

	assert.Equal(t, token.FLOAT, lexemes[0].Tok)
	assert.InDelta(t, 1.5e10, lexemes[0].Float, 1)
	assert.Equal(t, token.FLOAT, lexemes[1].Tok)
	assert.InDelta(t, 0.25, lexemes[1].Float, 1e-9)
}

func TestScanStringEscapes(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll(`"hello\nworld"`, errs)
	require.False(t, errs.HasErrors())
	require.Len(t, lexemes, 2)
	assert.Equal(t, "hello\nworld", lexemes[0].Str)
}

func TestScanUnterminatedString(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexer.ScanAll("\"unterminated", errs)
	assert.True(t, errs.HasErrors())
	assert.Equal(t, 1, errs.Count(errlist.Lex))
}

func TestScanOperators(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll(`== != <= >= && || ? : ..`, errs)
	require.False(t, errs.HasErrors())
	want := []token.Token{
		token.EQEQ, token.BANGEQ, token.LE, token.GE, token.ANDAND,
		token.OROR, token.QUESTION, token.COLON, token.DOTDOT, token.EOF,
	}
	assert.Equal(t, want, toks(lexemes))
}

func TestScanKeywordsAndBooleans(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll(`fn for in if else true false`, errs)
	require.False(t, errs.HasErrors())
	want := []token.Token{
		token.FN, token.FOR, token.IN, token.IF, token.ELSE, token.TRUE,
		token.FALSE, token.EOF,
	}
	assert.Equal(t, want, toks(lexemes))
}

func TestScanLineComment(t *testing.T) {
	errs := errlist.NewList("test.kes")
	lexemes := lexer.ScanAll("let a = 1; // trailing comment\nreturn a;", errs)
	require.False(t, errs.HasErrors())
	assert.Equal(t, token.LET, lexemes[0].Tok)
}
