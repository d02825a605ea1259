package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTypes(t *testing.T, input string) []TokenType {
	t.Helper()
	l := New(input)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}
	return types
}

func TestPunctuationAndOperators(t *testing.T) {
	l := New("x += 1; y == 2 && z != 3")
	var lits []string
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		lits = append(lits, tok.Literal)
	}
	assert.Equal(t, []string{"x", "+=", "1", ";", "y", "==", "2", "&&", "z", "!=", "3"}, lits)
}

func TestKeywordsResolveToDedicatedTokenTypes(t *testing.T) {
	types := collectTypes(t, "function class if unless while foreach return")
	require.Equal(t, []TokenType{
		TokenFunction, TokenClass, TokenIf, TokenUnless, TokenWhile, TokenForeach, TokenReturn, TokenEOF,
	}, types)
}

func TestStringLiteralWithEscapes(t *testing.T) {
	l := New(`"line one\nline two"`)
	tok := l.NextToken()
	require.Equal(t, TokenString, tok.Type)
	assert.Equal(t, "line one\nline two", tok.Literal)
}

func TestCharLiteral(t *testing.T) {
	l := New(`'a' '\n'`)
	tok := l.NextToken()
	require.Equal(t, TokenChar, tok.Type)
	assert.Equal(t, "a", tok.Literal)

	tok = l.NextToken()
	require.Equal(t, TokenChar, tok.Type)
	assert.Equal(t, "\n", tok.Literal)
}

func TestNumberLiterals(t *testing.T) {
	l := New("42 3.14 0")
	tok := l.NextToken()
	require.Equal(t, TokenInteger, tok.Type)
	assert.Equal(t, "42", tok.Literal)

	tok = l.NextToken()
	require.Equal(t, TokenFloat, tok.Type)
	assert.Equal(t, "3.14", tok.Literal)

	tok = l.NextToken()
	require.Equal(t, TokenInteger, tok.Type)
	assert.Equal(t, "0", tok.Literal)
}

func TestCommentsAreSkipped(t *testing.T) {
	types := collectTypes(t, "1 // trailing comment\n+ /* block\ncomment */ 2")
	require.Equal(t, []TokenType{TokenInteger, TokenPlus, TokenInteger, TokenEOF}, types)
}

func TestIllegalCharacter(t *testing.T) {
	l := New("`")
	tok := l.NextToken()
	assert.Equal(t, TokenIllegal, tok.Type)
}
