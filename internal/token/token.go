// Package token defines the lexical token model shared by the lexer and
// parser.
package token

import "fmt"

// Kind classifies a lexeme. The set is closed; the lexer never produces a
// Kind outside this list.
type Kind int

const (
	CommentSingle Kind = iota
	CommentMultiLine
	Keyword
	Identifier
	Integer
	Float
	String
	Boolean
	Plus
	Minus
	Asterisk
	Slash
	Equal
	Greater
	Less
	Exclamation
	Ampersand
	Bar
	DoubleEqual
	GreaterEqual
	LessEqual
	NotEqual
	DoubleAmpersand
	DoubleBar
	Increment
	Decrement
	Splat
	Spread
	Pipe
	Swap
	ArrowRight
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Comma
	Semicolon
	Colon
	Dot
	Whitespace
	NewLine
	EndOfFile
	Unknown
)

var kindNames = map[Kind]string{
	CommentSingle:    "CommentSingle",
	CommentMultiLine: "CommentMultiLine",
	Keyword:          "Keyword",
	Identifier:       "Identifier",
	Integer:          "Integer",
	Float:            "Float",
	String:           "String",
	Boolean:          "Boolean",
	Plus:             "Plus",
	Minus:            "Minus",
	Asterisk:         "Asterisk",
	Slash:            "Slash",
	Equal:            "Equal",
	Greater:          "Greater",
	Less:             "Less",
	Exclamation:      "Exclamation",
	Ampersand:        "Ampersand",
	Bar:              "Bar",
	DoubleEqual:      "DoubleEqual",
	GreaterEqual:     "GreaterEqual",
	LessEqual:        "LessEqual",
	NotEqual:         "NotEqual",
	DoubleAmpersand:  "DoubleAmpersand",
	DoubleBar:        "DoubleBar",
	Increment:        "Increment",
	Decrement:        "Decrement",
	Splat:            "Splat",
	Spread:           "Spread",
	Pipe:             "Pipe",
	Swap:             "Swap",
	ArrowRight:       "ArrowRight",
	LeftParen:        "LeftParen",
	RightParen:       "RightParen",
	LeftBrace:        "LeftBrace",
	RightBrace:       "RightBrace",
	LeftBracket:      "LeftBracket",
	RightBracket:     "RightBracket",
	Comma:            "Comma",
	Semicolon:        "Semicolon",
	Colon:            "Colon",
	Dot:              "Dot",
	Whitespace:       "Whitespace",
	NewLine:          "NewLine",
	EndOfFile:        "EndOfFile",
	Unknown:          "Unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords is the closed set of reserved words in Dream source.
var Keywords = map[string]bool{
	"let": true, "const": true, "fn": true, "if": true, "else": true,
	"while": true, "do": true, "until": true, "struct": true,
	"return": true, "for": true, "in": true, "true": true, "false": true,
}

// Token is an immutable lexeme with its classification and source position.
// Tokens are produced once by the lexer and never mutated afterward.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}

// Trivia reports whether a token kind is filtered out before parsing:
// whitespace, newlines, comments, and unrecognized input never reach the
// parser's significant-token stream.
func (t Token) Trivia() bool {
	switch t.Kind {
	case Whitespace, NewLine, CommentSingle, CommentMultiLine, Unknown:
		return true
	default:
		return false
	}
}
