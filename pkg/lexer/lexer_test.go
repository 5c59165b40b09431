package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/pkg/lexer"
)

func tokenTypes(src string) []lexer.TokenType {
	l := lexer.New(src)
	var types []lexer.TokenType
	for {
		tok := l.Next()
		types = append(types, tok.Type)
		if tok.Type == lexer.EOF {
			return types
		}
	}
}

func TestLexKeywordsAndIdents(t *testing.T) {
	types := tokenTypes("var _0x1a2b = function() { return true; };")
	require.Equal(t, []lexer.TokenType{
		lexer.VAR, lexer.IDENT, lexer.ASSIGN, lexer.FUNCTION,
		lexer.LPAREN, lexer.RPAREN, lexer.LBRACE,
		lexer.RETURN, lexer.TRUE, lexer.SEMICOLON,
		lexer.RBRACE, lexer.SEMICOLON, lexer.EOF,
	}, types)
}

func TestLexHexNumber(t *testing.T) {
	l := lexer.New("0x1A")
	tok := l.Next()
	require.Equal(t, lexer.NUMBER, tok.Type)
	require.Equal(t, "0x1A", tok.Literal)
}

func TestLexStringEscapes(t *testing.T) {
	l := lexer.New(`"a\nb"`)
	tok := l.Next()
	require.Equal(t, lexer.STRING, tok.Type)
	require.Equal(t, "a\nb", tok.Literal)
}

func TestLexOperators(t *testing.T) {
	types := tokenTypes("a !== b && c << 2 => 1")
	require.Equal(t, []lexer.TokenType{
		lexer.IDENT, lexer.STRICT_NOT_EQ, lexer.IDENT, lexer.AND_AND, lexer.IDENT,
		lexer.SHL, lexer.NUMBER, lexer.ARROW, lexer.NUMBER, lexer.EOF,
	}, types)
}

func TestLexComments(t *testing.T) {
	types := tokenTypes("a // comment\n/* block */ b")
	require.Equal(t, []lexer.TokenType{lexer.IDENT, lexer.IDENT, lexer.EOF}, types)
}

func TestLexTracksLineAndColumn(t *testing.T) {
	l := lexer.New("a\nbb")
	l.Next() // a
	tok := l.Next()
	require.Equal(t, 2, tok.Pos.Line)
	require.Equal(t, 1, tok.Pos.Column)
}
