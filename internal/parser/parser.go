// Package parser implements the recursive-descent, panic-mode-recovering
// parser for Dream. Grounded architecturally on the original dreamcc
// parser (Parser{tokens,current,errors}, peek/previous/advance/check/
// match/consume/synchronize), extended with every construct spec.md adds
// beyond that draft: const declarations, do-until, the full eleven-level
// expression grammar including pipe/spread/swap, postfix ++/-- rewritten
// to assignment, and array/object/struct-instantiation primaries.
package parser

import (
	"fmt"
	"strings"

	"github.com/dreamlang/dreamc/internal/ast"
	"github.com/dreamlang/dreamc/internal/token"
)

// resumeKeywords is the synchronizer's set of statement/declaration
// introducer keywords.
var resumeKeywords = map[string]bool{
	"fn": true, "let": true, "const": true, "return": true, "if": true,
	"while": true, "for": true, "struct": true, "do": true, "until": true,
}

// Parser holds a token cursor and an append-only error list, plus a small
// per-instance parsing-context flag; nothing is shared across instances, so
// multiple Parsers may still run independently (per spec.md §9).
type Parser struct {
	tokens  []token.Token
	current int
	errors  []SyntaxError

	// noBraceLiteral suppresses object/struct-instantiation literals at the
	// top of primary(), the way Go disallows a bare composite literal in an
	// if/for/switch header: without it, `for i in range { ... }` would have
	// its iterable's trailing '{' greedily consumed as a literal body
	// instead of the loop's block. Set while parsing a bare if/while
	// condition or a for-loop's iterable; cleared again inside any
	// parenthesized, bracketed, or argument-list subexpression, where a
	// literal can't be confused with a statement body.
	noBraceLiteral bool
}

// Parse parses a filtered (trivia-free) token stream into a Program plus
// any recovered syntax errors.
func Parse(tokens []token.Token) (ast.Program, []SyntaxError) {
	p := &Parser{tokens: tokens}
	var prog ast.Program
	for !p.atEnd() {
		if decl, ok := p.declaration(); ok {
			prog.Declarations = append(prog.Declarations, decl)
		}
	}
	return prog, p.errors
}

// ---- token cursor ----

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) previous() token.Token { return p.tokens[p.current-1] }

func (p *Parser) atEnd() bool { return p.peek().Kind == token.EndOfFile }

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(k token.Kind) bool {
	if p.atEnd() {
		return k == token.EndOfFile
	}
	return p.peek().Kind == k
}

func (p *Parser) checkKeyword(lexeme string) bool {
	return p.peek().Kind == token.Keyword && p.peek().Lexeme == lexeme
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) matchKeyword(lexeme string) bool {
	if p.checkKeyword(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errAt(kind SyntaxErrorKind, msg string, line, col int) {
	p.errors = append(p.errors, SyntaxError{Kind: kind, Msg: msg, Line: line, Col: col})
}

func (p *Parser) errHere(kind SyntaxErrorKind, msg string) {
	t := p.peek()
	p.errAt(kind, msg, t.Line, t.Column)
}

// consume advances past the expected kind, or records a SyntaxError of the
// given kind (UnexpectedEndOfFile when at the end of input) and returns
// ok=false without advancing.
func (p *Parser) consume(k token.Kind, errKind SyntaxErrorKind, msg string) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	if p.atEnd() {
		p.errHere(UnexpectedEndOfFile, msg)
	} else {
		p.errHere(errKind, msg)
	}
	return token.Token{}, false
}

func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == token.Semicolon {
			return
		}
		if p.peek().Kind == token.Keyword && resumeKeywords[p.peek().Lexeme] {
			return
		}
		if p.peek().Kind == token.RightBrace {
			return
		}
		p.advance()
	}
}

// ---- declarations ----

func (p *Parser) declaration() (ast.Declaration, bool) {
	switch {
	case p.checkKeyword("fn"):
		return p.functionDeclaration()
	case p.checkKeyword("let"):
		return p.variableDeclaration()
	case p.checkKeyword("const"):
		return p.constantDeclaration()
	case p.checkKeyword("struct"):
		return p.structDeclaration()
	default:
		return p.statementDeclaration()
	}
}

func (p *Parser) statementDeclaration() (ast.Declaration, bool) {
	pos := p.peek()
	stmt, ok := p.statement()
	if !ok {
		p.synchronize()
		return nil, false
	}
	return ast.StatementDecl{Position: posOf(pos), Stmt: stmt}, true
}

func (p *Parser) functionDeclaration() (ast.Declaration, bool) {
	fnTok := p.advance() // 'fn'
	nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected function name")
	if !ok {
		p.synchronize()
		return nil, false
	}
	if _, ok := p.consume(token.LeftParen, UnexpectedToken, "expected '(' after function name"); !ok {
		p.synchronize()
		return nil, false
	}
	params, ok := p.parameters()
	if !ok {
		p.synchronize()
		return nil, false
	}
	if _, ok := p.consume(token.RightParen, UnexpectedToken, "expected ')' after parameters"); !ok {
		p.synchronize()
		return nil, false
	}
	if _, ok := p.consume(token.ArrowRight, UnexpectedToken, "expected '->' before return type"); !ok {
		p.synchronize()
		return nil, false
	}
	retType, ok := p.typeAnnotation()
	if !ok {
		p.synchronize()
		return nil, false
	}
	body, ok := p.blockStatement()
	if !ok {
		p.synchronize()
		return nil, false
	}
	return ast.Function{Position: posOf(fnTok), Name: nameTok.Lexeme, Params: params, ReturnType: retType, Body: body}, true
}

func (p *Parser) parameters() ([]ast.Parameter, bool) {
	var params []ast.Parameter
	if p.check(token.RightParen) {
		return params, true
	}
	for {
		nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected parameter name")
		if !ok {
			return nil, false
		}
		if _, ok := p.consume(token.Colon, MissingColon, "expected ':' after parameter name"); !ok {
			return nil, false
		}
		typ, ok := p.typeAnnotation()
		if !ok {
			return nil, false
		}
		params = append(params, ast.Parameter{Name: nameTok.Lexeme, Type: typ})
		if !p.match(token.Comma) {
			break
		}
	}
	return params, true
}

// typeAnnotation matches a type keyword case-insensitively, correcting the
// original dreamcc draft's case-sensitive comparison.
func (p *Parser) typeAnnotation() (ast.Type, bool) {
	if !p.check(token.Identifier) {
		p.errHere(MissingType, "expected a type name")
		return ast.Void, false
	}
	tok := p.advance()
	t, ok := ast.TypeFromName(strings.ToLower(tok.Lexeme))
	if !ok {
		// spec.md calls this "UnknownType"; the closed SyntaxError set has
		// no such variant, so it is reported as MissingType.
		p.errAt(MissingType, fmt.Sprintf("unknown type %q", tok.Lexeme), tok.Line, tok.Column)
		return ast.Void, false
	}
	return t, true
}

func (p *Parser) variableDeclaration() (ast.Declaration, bool) {
	letTok := p.advance() // 'let'
	nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected variable name")
	if !ok {
		p.synchronize()
		return nil, false
	}
	declaredType := ast.Void
	hasType := false
	if p.match(token.Colon) {
		hasType = true
		declaredType, ok = p.typeAnnotation()
		if !ok {
			p.synchronize()
			return nil, false
		}
	}
	if _, ok := p.consume(token.Equal, UnexpectedToken, "expected '=' in variable declaration"); !ok {
		p.synchronize()
		return nil, false
	}
	init := p.expression()
	if _, ok := p.consume(token.Semicolon, MissingSemicolon, "expected ';' after variable declaration"); !ok {
		p.synchronize()
	}
	return ast.Variable{Position: posOf(letTok), Name: nameTok.Lexeme, DeclaredType: declaredType, HasType: hasType, Initializer: init}, true
}

func (p *Parser) constantDeclaration() (ast.Declaration, bool) {
	constTok := p.advance() // 'const'
	nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected constant name")
	if !ok {
		p.synchronize()
		return nil, false
	}
	declaredType := ast.Void
	hasType := false
	if p.match(token.Colon) {
		hasType = true
		declaredType, ok = p.typeAnnotation()
		if !ok {
			p.synchronize()
			return nil, false
		}
	}
	if _, ok := p.consume(token.Equal, UnexpectedToken, "expected '=' in constant declaration"); !ok {
		p.synchronize()
		return nil, false
	}
	init := p.expression()
	if _, ok := p.consume(token.Semicolon, MissingSemicolon, "expected ';' after constant declaration"); !ok {
		p.synchronize()
	}
	return ast.Constant{Position: posOf(constTok), Name: nameTok.Lexeme, DeclaredType: declaredType, HasType: hasType, Initializer: init}, true
}

func (p *Parser) structDeclaration() (ast.Declaration, bool) {
	structTok := p.advance() // 'struct'
	nameTok, ok := p.consume(token.Identifier, MissingStructName, "expected struct name")
	if !ok {
		p.synchronize()
		return nil, false
	}
	if _, ok := p.consume(token.LeftBrace, UnexpectedToken, "expected '{' after struct name"); !ok {
		p.synchronize()
		return nil, false
	}
	var fields []ast.FieldDeclaration
	for !p.check(token.RightBrace) && !p.atEnd() {
		fieldTok, ok := p.consume(token.Identifier, MissingFieldName, "expected field name")
		if !ok {
			p.synchronize()
			return nil, false
		}
		if _, ok := p.consume(token.Colon, MissingColon, "expected ':' after field name"); !ok {
			p.synchronize()
			return nil, false
		}
		typ, ok := p.typeAnnotation()
		if !ok {
			p.synchronize()
			return nil, false
		}
		fields = append(fields, ast.FieldDeclaration{Name: fieldTok.Lexeme, Type: typ})
		if p.check(token.RightBrace) {
			break
		}
		if _, ok := p.consume(token.Comma, UnexpectedToken, "expected ',' between struct fields"); !ok {
			p.synchronize()
			return nil, false
		}
	}
	if _, ok := p.consume(token.RightBrace, UnexpectedToken, "expected '}' after struct fields"); !ok {
		p.synchronize()
		return nil, false
	}
	return ast.Struct{Position: posOf(structTok), Name: nameTok.Lexeme, Fields: fields}, true
}

// ---- statements ----

func (p *Parser) statement() (ast.Statement, bool) {
	switch {
	case p.checkKeyword("if"):
		return p.ifStatement()
	case p.checkKeyword("while"):
		return p.whileStatement()
	case p.checkKeyword("for"):
		return p.forStatement()
	case p.checkKeyword("return"):
		return p.returnStatement()
	case p.checkKeyword("do"):
		return p.doUntilStatement()
	case p.check(token.LeftBrace):
		return p.blockStatement()
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) expressionStatement() (ast.Statement, bool) {
	tok := p.peek()
	expr := p.expression()
	if _, ok := p.consume(token.Semicolon, MissingSemicolon, "expected ';' after expression"); !ok {
		return ast.ExpressionStmt{Position: posOf(tok), Expr: expr}, false
	}
	return ast.ExpressionStmt{Position: posOf(tok), Expr: expr}, true
}

func (p *Parser) blockStatement() (ast.Block, bool) {
	lb, ok := p.consume(token.LeftBrace, UnexpectedToken, "expected '{'")
	if !ok {
		return ast.Block{}, false
	}
	var items []ast.Declaration
	for !p.check(token.RightBrace) && !p.atEnd() {
		if decl, ok := p.declaration(); ok {
			items = append(items, decl)
		}
	}
	if _, ok := p.consume(token.RightBrace, UnexpectedToken, "expected '}'"); !ok {
		return ast.Block{Position: posOf(lb), Items: items}, false
	}
	return ast.Block{Position: posOf(lb), Items: items}, true
}

func (p *Parser) ifStatement() (ast.Statement, bool) {
	ifTok := p.advance() // 'if'
	cond := p.headerExpression()
	thenBlock, ok := p.blockStatement()
	if !ok {
		return ast.If{Position: posOf(ifTok), Cond: cond, Then: thenBlock}, false
	}
	node := ast.If{Position: posOf(ifTok), Cond: cond, Then: thenBlock}
	if p.matchKeyword("else") {
		if p.checkKeyword("if") {
			elseIf, ok := p.ifStatement()
			if !ok {
				return node, false
			}
			elseIfNode := elseIf.(ast.If)
			node.Else = elseIfNode
		} else {
			elseBlock, ok := p.blockStatement()
			if !ok {
				return node, false
			}
			node.Else = elseBlock
		}
	}
	return node, true
}

func (p *Parser) whileStatement() (ast.Statement, bool) {
	whileTok := p.advance() // 'while'
	cond := p.headerExpression()
	body, ok := p.blockStatement()
	return ast.While{Position: posOf(whileTok), Cond: cond, Body: body}, ok
}

func (p *Parser) forStatement() (ast.Statement, bool) {
	forTok := p.advance() // 'for'
	varTok, ok := p.consume(token.Identifier, MissingLoopVariable, "expected loop variable")
	if !ok {
		return ast.For{Position: posOf(forTok)}, false
	}
	if !p.checkKeyword("in") {
		p.errHere(MissingInKeyword, "expected 'in' after loop variable")
		return ast.For{Position: posOf(forTok), Var: varTok.Lexeme}, false
	}
	p.advance() // 'in'
	iterable := p.headerExpression()
	body, ok := p.blockStatement()
	return ast.For{Position: posOf(forTok), Var: varTok.Lexeme, Iterable: iterable, Body: body}, ok
}

func (p *Parser) returnStatement() (ast.Statement, bool) {
	retTok := p.advance() // 'return'
	value := p.expression()
	if _, ok := p.consume(token.Semicolon, MissingSemicolon, "expected ';' after return value"); !ok {
		return ast.Return{Position: posOf(retTok), Value: value}, false
	}
	return ast.Return{Position: posOf(retTok), Value: value}, true
}

func (p *Parser) doUntilStatement() (ast.Statement, bool) {
	doTok := p.advance() // 'do'
	body, ok := p.blockStatement()
	if !ok {
		return ast.DoUntil{Position: posOf(doTok), Body: body}, false
	}
	if !p.checkKeyword("until") {
		p.errHere(UnexpectedToken, "expected 'until' after do block")
		return ast.DoUntil{Position: posOf(doTok), Body: body}, false
	}
	p.advance() // 'until'
	cond := p.expression()
	if _, ok := p.consume(token.Semicolon, MissingSemicolon, "expected ';' after do-until condition"); !ok {
		return ast.DoUntil{Position: posOf(doTok), Body: body, Cond: cond}, false
	}
	return ast.DoUntil{Position: posOf(doTok), Body: body, Cond: cond}, true
}

// ---- expressions: precedence climbing, low to high ----

func (p *Parser) expression() ast.Expression { return p.assignmentExpr() }

// headerExpression parses an expression with brace literals suppressed, for
// use in positions immediately followed by a statement's own '{' body (an
// if/while condition, a for-loop's iterable).
func (p *Parser) headerExpression() ast.Expression {
	saved := p.noBraceLiteral
	p.noBraceLiteral = true
	e := p.expression()
	p.noBraceLiteral = saved
	return e
}

// nestedExpression parses an expression with brace literals re-enabled,
// for use inside parens, brackets, or argument lists where a trailing '{'
// can never be mistaken for an enclosing statement's body.
func (p *Parser) nestedExpression() ast.Expression {
	saved := p.noBraceLiteral
	p.noBraceLiteral = false
	e := p.expression()
	p.noBraceLiteral = saved
	return e
}

func isLValue(e ast.Expression) bool {
	switch e.(type) {
	case ast.Identifier, ast.MemberAccess:
		return true
	default:
		return false
	}
}

func (p *Parser) assignmentExpr() ast.Expression {
	left := p.pipeExpr()

	if p.check(token.Equal) {
		eqTok := p.advance()
		value := p.assignmentExpr() // right-associative
		if !isLValue(left) {
			p.errAt(InvalidAssignmentTarget, "assignment target must be an identifier or member access", eqTok.Line, eqTok.Column)
			return left
		}
		return ast.Assignment{Position: left.Pos(), Target: left, Value: value}
	}
	if p.check(token.Swap) {
		p.advance()
		right := p.assignmentExpr()
		return ast.Binary{Position: left.Pos(), Left: left, Op: ast.OpSwap, Right: right}
	}
	return left
}

func (p *Parser) pipeExpr() ast.Expression {
	left := p.spreadExpr()
	for p.check(token.Pipe) {
		p.advance()
		right := p.spreadExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: ast.OpPipe, Right: right}
	}
	return left
}

func (p *Parser) spreadExpr() ast.Expression {
	left := p.orExpr()
	for p.check(token.Spread) {
		p.advance()
		right := p.orExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: ast.OpSpread, Right: right}
	}
	return left
}

func (p *Parser) orExpr() ast.Expression {
	left := p.andExpr()
	for p.check(token.DoubleBar) {
		p.advance()
		right := p.andExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: ast.OpOr, Right: right}
	}
	return left
}

func (p *Parser) andExpr() ast.Expression {
	left := p.equalityExpr()
	for p.check(token.DoubleAmpersand) {
		p.advance()
		right := p.equalityExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: ast.OpAnd, Right: right}
	}
	return left
}

func (p *Parser) equalityExpr() ast.Expression {
	left := p.relationalExpr()
	for p.check(token.DoubleEqual) || p.check(token.NotEqual) {
		opTok := p.advance()
		op := ast.OpEqual
		if opTok.Kind == token.NotEqual {
			op = ast.OpNotEqual
		}
		right := p.relationalExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) relationalExpr() ast.Expression {
	left := p.additiveExpr()
	for p.check(token.Less) || p.check(token.LessEqual) || p.check(token.Greater) || p.check(token.GreaterEqual) {
		opTok := p.advance()
		var op ast.BinaryOp
		switch opTok.Kind {
		case token.Less:
			op = ast.OpLess
		case token.LessEqual:
			op = ast.OpLessEq
		case token.Greater:
			op = ast.OpGreater
		default:
			op = ast.OpGreaterEq
		}
		right := p.additiveExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) additiveExpr() ast.Expression {
	left := p.multiplicativeExpr()
	for p.check(token.Plus) || p.check(token.Minus) {
		opTok := p.advance()
		op := ast.OpPlus
		if opTok.Kind == token.Minus {
			op = ast.OpMinus
		}
		right := p.multiplicativeExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) multiplicativeExpr() ast.Expression {
	left := p.unaryExpr()
	for p.check(token.Asterisk) || p.check(token.Slash) {
		opTok := p.advance()
		op := ast.OpAsterisk
		if opTok.Kind == token.Slash {
			op = ast.OpSlash
		}
		right := p.unaryExpr()
		left = ast.Binary{Position: left.Pos(), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) unaryExpr() ast.Expression {
	if p.check(token.Minus) {
		opTok := p.advance()
		operand := p.unaryExpr()
		return ast.Unary{Position: posOf(opTok), Op: ast.OpNeg, Operand: operand}
	}
	if p.check(token.Exclamation) {
		opTok := p.advance()
		operand := p.unaryExpr()
		return ast.Unary{Position: posOf(opTok), Op: ast.OpNot, Operand: operand}
	}
	if p.check(token.Splat) {
		opTok := p.advance()
		operand := p.unaryExpr()
		return ast.Splat{Position: posOf(opTok), Operand: operand}
	}
	return p.postfixExpr()
}

func (p *Parser) postfixExpr() ast.Expression {
	expr := p.primary()
	for {
		switch {
		case p.check(token.LeftParen):
			p.advance()
			args := p.arguments()
			p.consume(token.RightParen, UnexpectedToken, "expected ')' after arguments")
			expr = ast.Call{Position: expr.Pos(), Callee: expr, Args: args}
		case p.check(token.Dot):
			p.advance()
			nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected property name after '.'")
			if !ok {
				return expr
			}
			expr = ast.MemberAccess{Position: expr.Pos(), Object: expr, Property: nameTok.Lexeme}
		case p.check(token.Increment) || p.check(token.Decrement):
			opTok := p.advance()
			if !isLValue(expr) {
				p.errAt(InvalidAssignmentTarget, "postfix target must be an identifier or member access", opTok.Line, opTok.Column)
				return expr
			}
			delta := ast.OpPlus
			if opTok.Kind == token.Decrement {
				delta = ast.OpMinus
			}
			one := ast.Literal{Position: posOf(opTok), Kind: ast.Int, Int: 1}
			value := ast.Binary{Position: expr.Pos(), Left: expr, Op: delta, Right: one}
			expr = ast.Assignment{Position: expr.Pos(), Target: expr, Value: value}
			return expr
		default:
			return expr
		}
	}
}

func (p *Parser) arguments() []ast.Expression {
	var args []ast.Expression
	if p.check(token.RightParen) {
		return args
	}
	for {
		args = append(args, p.nestedExpression())
		if !p.match(token.Comma) {
			break
		}
	}
	return args
}

func (p *Parser) primary() ast.Expression {
	tok := p.peek()

	switch {
	case p.check(token.Integer):
		p.advance()
		var v int64
		fmt.Sscanf(tok.Lexeme, "%d", &v)
		return ast.Literal{Position: posOf(tok), Kind: ast.Int, Int: v}
	case p.check(token.Float):
		p.advance()
		var v float64
		fmt.Sscanf(tok.Lexeme, "%g", &v)
		return ast.Literal{Position: posOf(tok), Kind: ast.Float, Float: v}
	case p.check(token.String):
		p.advance()
		return ast.Literal{Position: posOf(tok), Kind: ast.String, Str: tok.Lexeme}
	case p.check(token.Boolean):
		p.advance()
		return ast.Literal{Position: posOf(tok), Kind: ast.Bool, Bool: tok.Lexeme == "true"}
	case p.check(token.LeftParen):
		p.advance()
		inner := p.nestedExpression()
		p.consume(token.RightParen, UnexpectedToken, "expected ')' after expression")
		return ast.Grouped{Position: posOf(tok), Inner: inner}
	case p.check(token.LeftBracket):
		p.advance()
		var elems []ast.Expression
		if !p.check(token.RightBracket) {
			for {
				elems = append(elems, p.nestedExpression())
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.consume(token.RightBracket, UnexpectedToken, "expected ']' after array elements")
		return ast.Array{Position: posOf(tok), Elements: elems}
	case p.check(token.LeftBrace) && !p.noBraceLiteral:
		p.advance()
		var fields []ast.ObjectField
		if !p.check(token.RightBrace) {
			for {
				nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected field name")
				if !ok {
					break
				}
				p.consume(token.Colon, MissingColon, "expected ':' after field name")
				val := p.nestedExpression()
				fields = append(fields, ast.ObjectField{Name: nameTok.Lexeme, Value: val})
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.consume(token.RightBrace, UnexpectedToken, "expected '}' after object fields")
		return ast.Object{Position: posOf(tok), Fields: fields}
	case p.check(token.Identifier):
		p.advance()
		if p.check(token.LeftBrace) && !p.noBraceLiteral {
			p.advance()
			var fields []ast.ObjectField
			if !p.check(token.RightBrace) {
				for {
					nameTok, ok := p.consume(token.Identifier, UnexpectedToken, "expected field name")
					if !ok {
						break
					}
					p.consume(token.Equal, UnexpectedToken, "expected '=' after field name")
					val := p.nestedExpression()
					fields = append(fields, ast.ObjectField{Name: nameTok.Lexeme, Value: val})
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.consume(token.RightBrace, UnexpectedToken, "expected '}' after struct fields")
			return ast.StructInstantiation{Position: posOf(tok), Name: tok.Lexeme, Fields: fields}
		}
		return ast.Identifier{Position: posOf(tok), Name: tok.Lexeme}
	default:
		p.advance()
		p.errAt(UnexpectedToken, fmt.Sprintf("unexpected token %q", tok.Lexeme), tok.Line, tok.Column)
		return ast.Identifier{Position: posOf(tok), Name: ""}
	}
}

func posOf(t token.Token) ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column}
}
