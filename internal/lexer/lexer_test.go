package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamlang/dreamc/internal/token"
)

func Test_Scan_tokenKindSequence(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    []token.Kind
		expectErr bool
	}{
		{
			name:   "empty source is just EOF",
			input:  "",
			expect: []token.Kind{token.EndOfFile},
		},
		{
			name:  "identifier then EOF",
			input: "total",
			expect: []token.Kind{
				token.Identifier, token.EndOfFile,
			},
		},
		{
			name:  "keyword is distinguished from identifier",
			input: "fn let const return",
			expect: []token.Kind{
				token.Keyword, token.Whitespace,
				token.Keyword, token.Whitespace,
				token.Keyword, token.Whitespace,
				token.Keyword, token.EndOfFile,
			},
		},
		{
			name:  "true and false lex as Boolean, not Keyword",
			input: "true false",
			expect: []token.Kind{
				token.Boolean, token.Whitespace, token.Boolean, token.EndOfFile,
			},
		},
		{
			name:  "integer and float literals",
			input: "42 3.14",
			expect: []token.Kind{
				token.Integer, token.Whitespace, token.Float, token.EndOfFile,
			},
		},
		{
			name:  "a trailing dot with no following digit is not a float",
			input: "42.",
			expect: []token.Kind{
				token.Integer, token.Dot, token.EndOfFile,
			},
		},
		{
			name:  "double-char operators take priority over their single-char prefix",
			input: "== != && || ++ -- <= >= <> <=> |> ...+",
			expect: []token.Kind{
				token.DoubleEqual, token.Whitespace,
				token.NotEqual, token.Whitespace,
				token.DoubleAmpersand, token.Whitespace,
				token.DoubleBar, token.Whitespace,
				token.Increment, token.Whitespace,
				token.Decrement, token.Whitespace,
				token.LessEqual, token.Whitespace,
				token.GreaterEqual, token.Whitespace,
				token.NotEqual, token.Whitespace,
				token.Swap, token.Whitespace,
				token.Pipe, token.Whitespace,
				token.Spread, token.EndOfFile,
			},
		},
		{
			name:  "single-char operators and punctuation",
			input: "(){}[],;:.+-*/=><!&|",
			expect: []token.Kind{
				token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
				token.LeftBracket, token.RightBracket, token.Comma, token.Semicolon,
				token.Colon, token.Dot, token.Plus, token.Minus, token.Asterisk,
				token.Slash, token.Equal, token.Greater, token.Less, token.Exclamation,
				token.Ampersand, token.Bar, token.EndOfFile,
			},
		},
		{
			name:  "single line comment runs to end of line",
			input: "// a comment\nx",
			expect: []token.Kind{
				token.CommentSingle, token.NewLine, token.Identifier, token.EndOfFile,
			},
		},
		{
			name:  "multi line comment spans newlines",
			input: "/* spans\nlines */x",
			expect: []token.Kind{
				token.CommentMultiLine, token.Identifier, token.EndOfFile,
			},
		},
		{
			name:  "unterminated multi line comment becomes Unknown",
			input: "/* never closed",
			expect: []token.Kind{
				token.Unknown, token.EndOfFile,
			},
		},
		{
			name:  "double and single quoted strings both lex as String",
			input: `"hello" 'world'`,
			expect: []token.Kind{
				token.String, token.Whitespace, token.String, token.EndOfFile,
			},
		},
		{
			name:  "unterminated string becomes Unknown rather than halting the scan",
			input: `"unterminated`,
			expect: []token.Kind{
				token.Unknown, token.EndOfFile,
			},
		},
		{
			name:  "a string may not span a raw newline",
			input: "\"abc\ndef\"",
			expect: []token.Kind{
				token.Unknown, token.NewLine, token.Identifier, token.Unknown, token.EndOfFile,
			},
		},
		{
			name:  "unrecognized characters become Unknown but lexing continues",
			input: "x # y",
			expect: []token.Kind{
				token.Identifier, token.Whitespace, token.Unknown, token.Whitespace,
				token.Identifier, token.EndOfFile,
			},
		},
		{
			name:  "whitespace runs collapse to a single Whitespace token",
			input: "a   \t  b",
			expect: []token.Kind{
				token.Identifier, token.Whitespace, token.Identifier, token.EndOfFile,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := Scan(tc.input)

			kinds := make([]token.Kind, len(tokens))
			for i, tok := range tokens {
				kinds[i] = tok.Kind
			}

			assert.Equal(t, tc.expect, kinds)
		})
	}
}

func Test_Scan_lexemeConcatenationReproducesSource(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"plain statement", "let x = 42;\n"},
		{"expression with operators", "a + b * (c - d) / e;"},
		{"mixed comments and code", "// header\nfn f() {}\n/* body */\n"},
		{"multi-character whitespace runs", "a   \t  b\t\tc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := Scan(tc.input)

			var rebuilt string
			for _, tok := range tokens {
				if tok.Kind == token.EndOfFile {
					continue
				}
				if tok.Kind == token.String {
					// string lexemes hold the decoded value, not the raw
					// quoted-and-escaped source text, so they are excluded
					// from this reconstruction check.
					continue
				}
				rebuilt += tok.Lexeme
			}

			assert.Equal(t, tc.input, rebuilt)
		})
	}
}

func Test_Scan_everyTokenHasPositiveLineAndColumn(t *testing.T) {
	tokens := Scan("fn main() -> i64 {\n  return 42;\n}\n")

	for _, tok := range tokens {
		assert.GreaterOrEqual(t, tok.Line, 1, "token %q has non-positive line", tok.Lexeme)
		assert.GreaterOrEqual(t, tok.Column, 1, "token %q has non-positive column", tok.Lexeme)
	}
}

func Test_Scan_alwaysEndsInExactlyOneEndOfFile(t *testing.T) {
	testCases := []string{
		"",
		"x",
		"fn main() {}",
		"\"unterminated",
		"/* unterminated",
	}

	for _, input := range testCases {
		tokens := Scan(input)
		assert := assert.New(t)
		if assert.NotEmpty(tokens) {
			assert.Equal(token.EndOfFile, tokens[len(tokens)-1].Kind)
		}

		count := 0
		for _, tok := range tokens {
			if tok.Kind == token.EndOfFile {
				count++
			}
		}
		assert.Equal(1, count, "expected exactly one EndOfFile token for input %q", input)
	}
}

func Test_Scan_stringEscapeSequences(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{"newline escape", `"a\nb"`, "a\nb"},
		{"tab escape", `"a\tb"`, "a\tb"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := Scan(tc.input)
			if assert.Len(t, tokens, 2) {
				assert.Equal(t, token.String, tokens[0].Kind)
				assert.Equal(t, tc.expect, tokens[0].Lexeme)
			}
		})
	}
}

func Test_FilterSignificant_removesTrivia(t *testing.T) {
	tokens := Scan("x // comment\n + 1")
	significant := FilterSignificant(tokens)

	var kinds []token.Kind
	for _, tok := range significant {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []token.Kind{
		token.Identifier, token.Plus, token.Integer, token.EndOfFile,
	}, kinds)
}
