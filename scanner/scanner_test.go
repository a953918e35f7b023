package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoscript-lang/evoscript/scanner"
	"github.com/evoscript-lang/evoscript/token"
)

func TestScanNumbersThenLexicalError(t *testing.T) {
	sc := scanner.New("1 42 .3 0.42 42.69 .3.4")

	want := []float64{1, 42, 0.3, 0.42, 42.69}
	for i, w := range want {
		tok := sc.Next()
		require.Equalf(t, token.Number, tok.Type, "token %d", i)
		assert.InDeltaf(t, w, tok.Num, 1e-9, "token %d", i)
	}

	errTok := sc.Next()
	assert.Equal(t, token.Err, errTok.Type)
}

func TestScanHexLiteral(t *testing.T) {
	sc := scanner.New("0x2A")
	tok := sc.Next()
	require.Equal(t, token.Number, tok.Type)
	assert.Equal(t, float64(42), tok.Num)
}

func TestScanKeywordsAndIdent(t *testing.T) {
	sc := scanner.New("let mod my_var")
	assert.Equal(t, token.Let, sc.Next().Type)
	assert.Equal(t, token.Mod, sc.Next().Type)
	ident := sc.Next()
	assert.Equal(t, token.Ident, ident.Type)
	assert.Equal(t, "my_var", ident.Str)
}

func TestDigitLeadingIdentifierIsNotAnIdent(t *testing.T) {
	sc := scanner.New("3abc")
	tok := sc.Next()
	require.Equal(t, token.Number, tok.Type)
	assert.Equal(t, float64(3), tok.Num)
	next := sc.Next()
	assert.Equal(t, token.Ident, next.Type)
	assert.Equal(t, "abc", next.Str)
}

func TestPeekDoesNotAdvance(t *testing.T) {
	sc := scanner.New("let a")
	first := sc.Peek()
	second := sc.Next()
	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, token.Ident, sc.Next().Type)
}
