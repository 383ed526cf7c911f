// Package lexer scans Dream source text into a token stream. Grounded on
// the maximal-munch scanning algorithm of the original dreamcc lexer, ported
// from a Rust Peekable-char-iterator design to a Go rune-slice cursor.
package lexer

import (
	"strings"

	"github.com/dreamlang/dreamc/internal/token"
)

// Lexer converts a rune stream into Tokens. It never fails: unrecognized
// input is reported as a token.Unknown and scanning continues.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

// New constructs a Lexer over source text.
func New(source string) *Lexer {
	return &Lexer{src: []rune(source), pos: 0, line: 1, column: 1}
}

// Scan runs the full lexer to completion, returning every token including
// trivia, terminated by a single EndOfFile token.
func Scan(source string) []token.Token {
	return New(source).ScanAll()
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.atEnd() || l.src[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

// ScanAll scans every token in the source, always ending in EndOfFile.
func (l *Lexer) ScanAll() []token.Token {
	var tokens []token.Token
	lastWasNewline := len(l.src) == 0

	for !l.atEnd() {
		startLine, startCol := l.line, l.column
		tok, ok := l.scanToken(startLine, startCol)
		if ok {
			tokens = append(tokens, tok)
			lastWasNewline = tok.Kind == token.NewLine
		}
	}

	eofCol := 1
	if !lastWasNewline && len(l.src) > 0 {
		eofCol = l.column
	}
	tokens = append(tokens, token.Token{Kind: token.EndOfFile, Lexeme: "", Line: l.line, Column: eofCol})
	return tokens
}

func (l *Lexer) scanToken(line, col int) (token.Token, bool) {
	c := l.advance()

	mk := func(k token.Kind, lexeme string) (token.Token, bool) {
		return token.Token{Kind: k, Lexeme: lexeme, Line: line, Column: col}, true
	}

	switch c {
	case ' ', '\t', '\r':
		var sb strings.Builder
		sb.WriteRune(c)
		for !l.atEnd() {
			switch l.peek() {
			case ' ', '\t', '\r':
				sb.WriteRune(l.advance())
				continue
			}
			break
		}
		return mk(token.Whitespace, sb.String())
	case '\n':
		return mk(token.NewLine, "\n")
	case '(':
		return mk(token.LeftParen, "(")
	case ')':
		return mk(token.RightParen, ")")
	case '{':
		return mk(token.LeftBrace, "{")
	case '}':
		return mk(token.RightBrace, "}")
	case '[':
		return mk(token.LeftBracket, "[")
	case ']':
		return mk(token.RightBracket, "]")
	case ',':
		return mk(token.Comma, ",")
	case ';':
		return mk(token.Semicolon, ";")
	case ':':
		return mk(token.Colon, ":")
	case '.':
		if l.peek() == '.' && l.peekAt(1) == '.' {
			l.advance()
			l.advance()
			if l.match('+') {
				return mk(token.Spread, "...+")
			}
			return mk(token.Unknown, "...")
		}
		return mk(token.Dot, ".")
	case '/':
		if l.match('/') {
			var sb strings.Builder
			sb.WriteString("//")
			for !l.atEnd() && l.peek() != '\n' {
				sb.WriteRune(l.advance())
			}
			return mk(token.CommentSingle, sb.String())
		}
		if l.match('*') {
			var sb strings.Builder
			sb.WriteString("/*")
			terminated := false
			for !l.atEnd() {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					sb.WriteRune(l.advance())
					sb.WriteRune(l.advance())
					terminated = true
					break
				}
				sb.WriteRune(l.advance())
			}
			if !terminated {
				return mk(token.Unknown, sb.String())
			}
			return mk(token.CommentMultiLine, sb.String())
		}
		return mk(token.Slash, "/")
	case '+':
		if l.match('+') {
			return mk(token.Increment, "++")
		}
		return mk(token.Plus, "+")
	case '-':
		if l.match('-') {
			return mk(token.Decrement, "--")
		}
		if l.match('>') {
			return mk(token.ArrowRight, "->")
		}
		return mk(token.Minus, "-")
	case '*':
		return mk(token.Asterisk, "*")
	case '=':
		if l.match('=') {
			return mk(token.DoubleEqual, "==")
		}
		return mk(token.Equal, "=")
	case '>':
		if l.match('=') {
			return mk(token.GreaterEqual, ">=")
		}
		return mk(token.Greater, ">")
	case '<':
		if l.match('=') {
			if l.match('>') {
				return mk(token.Swap, "<=>")
			}
			return mk(token.LessEqual, "<=")
		}
		if l.match('>') {
			return mk(token.NotEqual, "<>")
		}
		return mk(token.Less, "<")
	case '!':
		if l.match('=') {
			return mk(token.NotEqual, "!=")
		}
		return mk(token.Exclamation, "!")
	case '&':
		if l.match('&') {
			return mk(token.DoubleAmpersand, "&&")
		}
		return mk(token.Ampersand, "&")
	case '|':
		if l.match('|') {
			return mk(token.DoubleBar, "||")
		}
		if l.match('>') {
			return mk(token.Pipe, "|>")
		}
		return mk(token.Bar, "|")
	case '@':
		if l.match('*') {
			return mk(token.Splat, "@*")
		}
		return mk(token.Unknown, "@")
	case '\'', '"':
		return l.scanString(c, line, col)
	default:
		if isDigit(c) {
			return l.scanNumber(c, line, col)
		}
		if isAlpha(c) {
			return l.scanIdentifier(c, line, col)
		}
		return mk(token.Unknown, string(c))
	}
}

func (l *Lexer) scanString(quote rune, line, col int) (token.Token, bool) {
	var sb strings.Builder
	for {
		if l.atEnd() {
			return token.Token{Kind: token.Unknown, Lexeme: sb.String(), Line: line, Column: col}, true
		}
		c := l.peek()
		if c == '\n' {
			return token.Token{Kind: token.Unknown, Lexeme: sb.String(), Line: line, Column: col}, true
		}
		if c == quote {
			l.advance()
			return token.Token{Kind: token.String, Lexeme: sb.String(), Line: line, Column: col}, true
		}
		if c == '\\' {
			l.advance()
			if l.atEnd() {
				return token.Token{Kind: token.Unknown, Lexeme: sb.String(), Line: line, Column: col}, true
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '\\':
				sb.WriteRune('\\')
			case '\'':
				sb.WriteRune('\'')
			case '"':
				sb.WriteRune('"')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(l.advance())
	}
}

func (l *Lexer) scanNumber(first rune, line, col int) (token.Token, bool) {
	var sb strings.Builder
	sb.WriteRune(first)
	for isDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		sb.WriteRune(l.advance()) // consume '.'
		for isDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
		return token.Token{Kind: token.Float, Lexeme: sb.String(), Line: line, Column: col}, true
	}

	return token.Token{Kind: token.Integer, Lexeme: sb.String(), Line: line, Column: col}, true
}

func (l *Lexer) scanIdentifier(first rune, line, col int) (token.Token, bool) {
	var sb strings.Builder
	sb.WriteRune(first)
	for isAlphaNumeric(l.peek()) {
		sb.WriteRune(l.advance())
	}
	lexeme := sb.String()

	if token.Keywords[lexeme] {
		if lexeme == "true" || lexeme == "false" {
			return token.Token{Kind: token.Boolean, Lexeme: lexeme, Line: line, Column: col}, true
		}
		return token.Token{Kind: token.Keyword, Lexeme: lexeme, Line: line, Column: col}, true
	}
	return token.Token{Kind: token.Identifier, Lexeme: lexeme, Line: line, Column: col}, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isAlpha(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isAlphaNumeric(r rune) bool { return isAlpha(r) || isDigit(r) }

// FilterSignificant removes trivia tokens (whitespace, newlines, comments,
// and unrecognized input), leaving the stream the parser operates on.
func FilterSignificant(tokens []token.Token) []token.Token {
	out := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if !t.Trivia() {
			out = append(out, t)
		}
	}
	return out
}
