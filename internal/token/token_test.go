package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Kind_stringIsHumanReadableForEveryDefinedKind(t *testing.T) {
	for k, name := range kindNames {
		assert.Equal(t, name, k.String())
	}
}

func Test_Kind_stringFallsBackForOutOfRangeValues(t *testing.T) {
	assert.Equal(t, "Kind(9999)", Kind(9999).String())
}

func Test_Token_triviaClassifiesWhitespaceCommentsAndUnknownOnly(t *testing.T) {
	trivia := []Kind{Whitespace, NewLine, CommentSingle, CommentMultiLine, Unknown}
	for _, k := range trivia {
		tok := Token{Kind: k}
		assert.True(t, tok.Trivia(), "%s should be trivia", k)
	}

	significant := []Kind{Identifier, Keyword, Integer, Float, String, Boolean, Plus, EndOfFile}
	for _, k := range significant {
		tok := Token{Kind: k}
		assert.False(t, tok.Trivia(), "%s should not be trivia", k)
	}
}

func Test_Token_stringIncludesLexemeAndPosition(t *testing.T) {
	tok := Token{Kind: Identifier, Lexeme: "foo", Line: 3, Column: 7}
	assert.Equal(t, `Identifier("foo")@3:7`, tok.String())
}
