// Package semantic implements scoping and type checking over the parsed
// AST, producing an annotated AST and a symbol table. Grounded on the
// original dreamcc semantic analyzer's structure (SemanticAnalyzer{
// symbol_table, errors, current_function}, analyze_declaration/
// analyze_statement/analyze_expression dispatch), with several corrections
// against it: the structural return-path check for If now ANDs two
// independently computed branch results instead of threading one shared
// mutable flag (the draft's version made a return inside either branch
// satisfy both), DoUntil participates in that check like any other
// statement instead of silently falling through a catch-all, unresolved
// call targets raise UndefinedFunction, call arity/argument types are
// checked, and every reported position is a real source location rather
// than a (0,0) placeholder.
package semantic

import (
	"fmt"

	"github.com/dreamlang/dreamc/internal/ast"
	"github.com/dreamlang/dreamc/internal/symtab"
	"github.com/dreamlang/dreamc/internal/util"
)

// AnnotatedNode is the parallel output tree described in spec.md §3: a
// node type tag, optional value, ordered children, position, and inferred
// type.
type AnnotatedNode struct {
	NodeType     string
	Value        string
	Children     []AnnotatedNode
	Line         int
	Col          int
	InferredType string
}

type functionCtx struct {
	name       string
	returnType ast.Type
}

// Analyzer walks a Program and accumulates semantic diagnostics against a
// freshly built symbol table. It never aborts on error.
type Analyzer struct {
	table   *symtab.Table
	errors  []Error
	current *functionCtx
}

// Result bundles the three analyzer output artifacts.
type Result struct {
	Annotated AnnotatedNode
	Table     *symtab.Table
	Errors    []Error
}

// Analyze runs the full semantic pass over a program.
func Analyze(prog ast.Program) Result {
	a := &Analyzer{table: symtab.NewTable()}

	var children []AnnotatedNode
	for _, decl := range prog.Declarations {
		children = append(children, a.analyzeDeclaration(decl))
	}
	a.checkMainFunction()

	root := AnnotatedNode{NodeType: "Program", Children: children, Line: 1, Col: 1}
	return Result{Annotated: root, Table: a.table, Errors: a.errors}
}

func (a *Analyzer) error(kind SemanticErrorKind, msg string, line, col int) {
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	a.errors = append(a.errors, Error{Kind: kind, Msg: msg, Line: line, Col: col})
}

// ---- declarations ----

func (a *Analyzer) analyzeDeclaration(decl ast.Declaration) AnnotatedNode {
	switch d := decl.(type) {
	case ast.Function:
		return a.analyzeFunction(d)
	case ast.Variable:
		return a.analyzeVariable(d)
	case ast.Constant:
		return a.analyzeConstant(d)
	case ast.Struct:
		return a.analyzeStruct(d)
	case ast.StatementDecl:
		node, _ := a.analyzeStatementWithReturnCheck(d.Stmt)
		return node
	default:
		return AnnotatedNode{NodeType: "Unknown"}
	}
}

func (a *Analyzer) analyzeVariable(v ast.Variable) AnnotatedNode {
	initNode, initType := a.analyzeExpression(v.Initializer)

	finalType := initType
	if v.HasType {
		if v.DeclaredType != initType {
			a.error(TypeMismatch, fmt.Sprintf("declared %s but found %s", v.DeclaredType, initType), v.Line, v.Column)
		}
		finalType = v.DeclaredType
	}

	sym := symtab.Symbol{Kind: symtab.SymVariable, Name: v.Name, Type: finalType, Line: v.Line, Col: v.Column}
	if lit, ok := v.Initializer.(ast.Literal); ok {
		sym.LiteralValue = &lit
	}
	if !a.table.Insert(sym) {
		a.error(RedeclaredVariable, v.Name, v.Line, v.Column)
	}

	return AnnotatedNode{NodeType: "Variable", Value: v.Name, Children: []AnnotatedNode{initNode}, Line: v.Line, Col: v.Column, InferredType: finalType.String()}
}

func (a *Analyzer) analyzeConstant(c ast.Constant) AnnotatedNode {
	initNode, initType := a.analyzeExpression(c.Initializer)

	finalType := initType
	if c.HasType {
		if c.DeclaredType != initType {
			a.error(TypeMismatch, fmt.Sprintf("declared %s but found %s", c.DeclaredType, initType), c.Line, c.Column)
		}
		finalType = c.DeclaredType
	}

	sym := symtab.Symbol{Kind: symtab.SymConstant, Name: c.Name, Type: finalType, Line: c.Line, Col: c.Column}
	if lit, ok := c.Initializer.(ast.Literal); ok {
		sym.LiteralValue = &lit
	}
	if !a.table.Insert(sym) {
		a.error(RedeclaredVariable, c.Name, c.Line, c.Column)
	}

	return AnnotatedNode{NodeType: "Constant", Value: c.Name, Children: []AnnotatedNode{initNode}, Line: c.Line, Col: c.Column, InferredType: finalType.String()}
}

func (a *Analyzer) analyzeFunction(f ast.Function) AnnotatedNode {
	paramTypes := make([]ast.Type, len(f.Params))
	for i, p := range f.Params {
		paramTypes[i] = p.Type
	}
	sym := symtab.Symbol{Kind: symtab.SymFunction, Name: f.Name, ParamTypes: paramTypes, ReturnType: f.ReturnType, Line: f.Line, Col: f.Column}
	if !a.table.Insert(sym) {
		a.error(RedeclaredVariable, f.Name, f.Line, f.Column)
	}

	prevFn := a.current
	a.current = &functionCtx{name: f.Name, returnType: f.ReturnType}

	a.table.EnterScope("function: " + f.Name)
	for _, p := range f.Params {
		if !a.table.Insert(symtab.Symbol{Kind: symtab.SymVariable, Name: p.Name, Type: p.Type, Line: f.Line, Col: f.Column}) {
			a.error(RedeclaredVariable, p.Name, f.Line, f.Column)
		}
	}
	bodyChildren, hasReturn := a.analyzeBlockWithReturnCheck(f.Body, "block")
	a.table.LeaveScope()

	if f.ReturnType != ast.Void && !hasReturn {
		a.error(MissingReturnStatement, f.Name, f.Line, f.Column)
	}

	a.current = prevFn

	bodyNode := AnnotatedNode{NodeType: "Block", Children: bodyChildren, Line: f.Body.Line, Col: f.Body.Column}
	return AnnotatedNode{NodeType: "Function", Value: f.Name, Children: []AnnotatedNode{bodyNode}, Line: f.Line, Col: f.Column, InferredType: f.ReturnType.String()}
}

func (a *Analyzer) analyzeStruct(s ast.Struct) AnnotatedNode {
	fields := make(map[string]ast.Type)
	for _, fd := range s.Fields {
		if _, exists := fields[fd.Name]; exists {
			a.error(RedeclaredField, fmt.Sprintf("%s.%s", s.Name, fd.Name), s.Line, s.Column)
			continue
		}
		fields[fd.Name] = fd.Type
	}
	sym := symtab.Symbol{Kind: symtab.SymStruct, Name: s.Name, Fields: fields, Line: s.Line, Col: s.Column}
	if !a.table.Insert(sym) {
		a.error(RedeclaredStruct, s.Name, s.Line, s.Column)
	}
	return AnnotatedNode{NodeType: "Struct", Value: s.Name, Line: s.Line, Col: s.Column}
}

// ---- statements, with structural return-path tracking ----

// analyzeBlockWithReturnCheck enters a scope, analyzes every item, and
// reports whether any top-level statement in the block structurally
// guarantees a return.
func (a *Analyzer) analyzeBlockWithReturnCheck(block ast.Block, scopeName string) ([]AnnotatedNode, bool) {
	a.table.EnterScope(scopeName)
	defer a.table.LeaveScope()

	var children []AnnotatedNode
	hasReturn := false
	for _, decl := range block.Items {
		if sd, ok := decl.(ast.StatementDecl); ok {
			node, sHasReturn := a.analyzeStatementWithReturnCheck(sd.Stmt)
			children = append(children, node)
			if sHasReturn {
				hasReturn = true
			}
		} else {
			children = append(children, a.analyzeDeclaration(decl))
		}
	}
	return children, hasReturn
}

// analyzeStatementWithReturnCheck is the single source of truth for
// statement analysis; non-tracking callers simply discard the bool.
func (a *Analyzer) analyzeStatementWithReturnCheck(stmt ast.Statement) (AnnotatedNode, bool) {
	switch s := stmt.(type) {
	case ast.Return:
		return a.analyzeReturn(s), true

	case ast.Block:
		children, hasReturn := a.analyzeBlockWithReturnCheck(s, "block")
		return AnnotatedNode{NodeType: "Block", Children: children, Line: s.Line, Col: s.Column}, hasReturn

	case ast.If:
		condNode, _ := a.analyzeExpression(s.Cond)
		thenChildren, thenHasReturn := a.analyzeBlockWithReturnCheck(s.Then, "block")
		thenNode := AnnotatedNode{NodeType: "Block", Children: thenChildren, Line: s.Then.Line, Col: s.Then.Column}
		node := AnnotatedNode{NodeType: "If", Children: []AnnotatedNode{condNode, thenNode}, Line: s.Line, Col: s.Column}

		elseHasReturn := false
		if s.Else != nil {
			switch e := s.Else.(type) {
			case ast.If:
				elseNode, eHasReturn := a.analyzeStatementWithReturnCheck(e)
				node.Children = append(node.Children, elseNode)
				elseHasReturn = eHasReturn
			case ast.Block:
				elseChildren, eHasReturn := a.analyzeBlockWithReturnCheck(e, "block")
				node.Children = append(node.Children, AnnotatedNode{NodeType: "Block", Children: elseChildren, Line: e.Line, Col: e.Column})
				elseHasReturn = eHasReturn
			}
		}
		// An If structurally guarantees a return only when BOTH branches do.
		return node, thenHasReturn && elseHasReturn

	case ast.While:
		condNode, _ := a.analyzeExpression(s.Cond)
		bodyChildren, _ := a.analyzeBlockWithReturnCheck(s.Body, "block")
		bodyNode := AnnotatedNode{NodeType: "Block", Children: bodyChildren, Line: s.Body.Line, Col: s.Body.Column}
		node := AnnotatedNode{NodeType: "While", Children: []AnnotatedNode{condNode, bodyNode}, Line: s.Line, Col: s.Column}
		return node, false // loops never guarantee a return

	case ast.DoUntil:
		bodyChildren, _ := a.analyzeBlockWithReturnCheck(s.Body, "block")
		bodyNode := AnnotatedNode{NodeType: "Block", Children: bodyChildren, Line: s.Body.Line, Col: s.Body.Column}
		condNode, _ := a.analyzeExpression(s.Cond)
		node := AnnotatedNode{NodeType: "DoUntil", Children: []AnnotatedNode{bodyNode, condNode}, Line: s.Line, Col: s.Column}
		return node, false

	case ast.For:
		a.table.EnterScope("for_loop")
		a.table.Insert(symtab.Symbol{Kind: symtab.SymVariable, Name: s.Var, Type: ast.Int, Line: s.Line, Col: s.Column})
		iterNode, _ := a.analyzeExpression(s.Iterable)
		bodyChildren, _ := a.analyzeBlockWithReturnCheck(s.Body, "block")
		a.table.LeaveScope()
		bodyNode := AnnotatedNode{NodeType: "Block", Children: bodyChildren, Line: s.Body.Line, Col: s.Body.Column}
		node := AnnotatedNode{NodeType: "For", Value: s.Var, Children: []AnnotatedNode{iterNode, bodyNode}, Line: s.Line, Col: s.Column}
		return node, false

	case ast.ExpressionStmt:
		exprNode, _ := a.analyzeExpression(s.Expr)
		return AnnotatedNode{NodeType: "ExpressionStmt", Children: []AnnotatedNode{exprNode}, Line: s.Line, Col: s.Column}, false

	default:
		return AnnotatedNode{NodeType: "Unknown"}, false
	}
}

func (a *Analyzer) analyzeReturn(r ast.Return) AnnotatedNode {
	valNode, valType := a.analyzeExpression(r.Value)

	if a.current == nil {
		a.error(ReturnOutsideFunction, "", r.Line, r.Column)
	} else if valType != a.current.returnType {
		a.error(ReturnTypeMismatch, fmt.Sprintf("expected %s but found %s", a.current.returnType, valType), valNode.Line, valNode.Col)
	}

	return AnnotatedNode{NodeType: "Return", Children: []AnnotatedNode{valNode}, Line: r.Line, Col: r.Column, InferredType: valType.String()}
}

// ---- expressions ----

func (a *Analyzer) analyzeExpression(expr ast.Expression) (AnnotatedNode, ast.Type) {
	switch e := expr.(type) {
	case ast.Identifier:
		sym, ok := a.table.Lookup(e.Name)
		if !ok {
			a.error(UndeclaredVariable, e.Name, e.Line, e.Column)
			return AnnotatedNode{NodeType: "Identifier", Value: e.Name, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void
		}
		t := sym.GetType()
		return AnnotatedNode{NodeType: "Identifier", Value: e.Name, Line: e.Line, Col: e.Column, InferredType: t.String()}, t

	case ast.Literal:
		nodeType, value := literalTag(e)
		return AnnotatedNode{NodeType: nodeType, Value: value, Line: e.Line, Col: e.Column, InferredType: e.Kind.String()}, e.Kind

	case ast.Binary:
		leftNode, leftType := a.analyzeExpression(e.Left)
		rightNode, rightType := a.analyzeExpression(e.Right)
		if leftType != rightType {
			a.error(TypeMismatch, fmt.Sprintf("left is %s but right is %s", leftType, rightType), e.Line, e.Column)
		}
		// Result type is the left operand's type (documented limitation,
		// not a proper join — see §9).
		return AnnotatedNode{NodeType: "Binary", Children: []AnnotatedNode{leftNode, rightNode}, Line: e.Line, Col: e.Column, InferredType: leftType.String()}, leftType

	case ast.Unary:
		operandNode, operandType := a.analyzeExpression(e.Operand)
		return AnnotatedNode{NodeType: "Unary", Children: []AnnotatedNode{operandNode}, Line: e.Line, Col: e.Column, InferredType: operandType.String()}, operandType

	case ast.Grouped:
		innerNode, innerType := a.analyzeExpression(e.Inner)
		return AnnotatedNode{NodeType: "Grouped", Children: []AnnotatedNode{innerNode}, Line: e.Line, Col: e.Column, InferredType: innerType.String()}, innerType

	case ast.Assignment:
		return a.analyzeAssignment(e)

	case ast.Call:
		return a.analyzeCall(e)

	case ast.MemberAccess:
		objNode, _ := a.analyzeExpression(e.Object)
		return AnnotatedNode{NodeType: "MemberAccess", Value: e.Property, Children: []AnnotatedNode{objNode}, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	case ast.Array:
		var children []AnnotatedNode
		for _, el := range e.Elements {
			n, _ := a.analyzeExpression(el)
			children = append(children, n)
		}
		return AnnotatedNode{NodeType: "Array", Children: children, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	case ast.Object:
		var children []AnnotatedNode
		for _, f := range e.Fields {
			n, _ := a.analyzeExpression(f.Value)
			children = append(children, AnnotatedNode{NodeType: "Field", Value: f.Name, Children: []AnnotatedNode{n}})
		}
		return AnnotatedNode{NodeType: "Object", Children: children, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	case ast.Splat:
		innerNode, _ := a.analyzeExpression(e.Operand)
		return AnnotatedNode{NodeType: "Splat", Children: []AnnotatedNode{innerNode}, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	case ast.StructInstantiation:
		var children []AnnotatedNode
		for _, f := range e.Fields {
			n, _ := a.analyzeExpression(f.Value)
			children = append(children, AnnotatedNode{NodeType: "Field", Value: f.Name, Children: []AnnotatedNode{n}})
		}
		return AnnotatedNode{NodeType: "StructInstantiation", Value: e.Name, Children: children, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	default:
		return AnnotatedNode{NodeType: "Unknown"}, ast.Void
	}
}

func (a *Analyzer) analyzeAssignment(e ast.Assignment) (AnnotatedNode, ast.Type) {
	switch target := e.Target.(type) {
	case ast.Identifier:
		sym, ok := a.table.Lookup(target.Name)
		valNode, valType := a.analyzeExpression(e.Value)
		if !ok {
			a.error(UndeclaredVariable, target.Name, target.Line, target.Column)
		} else if sym.IsConstant() {
			a.error(InvalidAssignment, fmt.Sprintf("cannot assign to constant '%s'", target.Name), e.Line, e.Column)
		} else if sym.GetType() != valType {
			a.error(TypeMismatch, fmt.Sprintf("cannot assign %s to %s", valType, sym.GetType()), e.Line, e.Column)
		}
		targetNode := AnnotatedNode{NodeType: "Identifier", Value: target.Name, Line: target.Line, Col: target.Column, InferredType: sym.GetType().String()}
		return AnnotatedNode{NodeType: "Assignment", Children: []AnnotatedNode{targetNode, valNode}, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	case ast.MemberAccess:
		// MemberAccess targets are not required to type-check beyond
		// recursive analysis of children (documented limitation, §4.3).
		targetNode, _ := a.analyzeExpression(target)
		valNode, _ := a.analyzeExpression(e.Value)
		return AnnotatedNode{NodeType: "Assignment", Children: []AnnotatedNode{targetNode, valNode}, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void

	default:
		valNode, _ := a.analyzeExpression(e.Value)
		return AnnotatedNode{NodeType: "Assignment", Children: []AnnotatedNode{valNode}, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void
	}
}

func (a *Analyzer) analyzeCall(e ast.Call) (AnnotatedNode, ast.Type) {
	calleeIdent, ok := e.Callee.(ast.Identifier)
	if !ok {
		a.error(InvalidFunctionCallTarget, "", e.Line, e.Column)
		for _, arg := range e.Args {
			a.analyzeExpression(arg)
		}
		return AnnotatedNode{NodeType: "Call", Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void
	}

	var argNodes []AnnotatedNode
	var argTypes []ast.Type
	for _, arg := range e.Args {
		n, t := a.analyzeExpression(arg)
		argNodes = append(argNodes, n)
		argTypes = append(argTypes, t)
	}

	sym, ok := a.table.Lookup(calleeIdent.Name)
	if !ok || sym.Kind != symtab.SymFunction {
		a.error(UndefinedFunction, calleeIdent.Name, e.Line, e.Column)
		return AnnotatedNode{NodeType: "Call", Value: calleeIdent.Name, Children: argNodes, Line: e.Line, Col: e.Column, InferredType: ast.Void.String()}, ast.Void
	}

	if len(argTypes) != len(sym.ParamTypes) {
		a.error(ArgumentCountMismatch, fmt.Sprintf("expected %d arguments but found %d", len(sym.ParamTypes), len(argTypes)), e.Line, e.Column)
	} else {
		for i, t := range argTypes {
			if t != sym.ParamTypes[i] {
				a.error(ArgumentTypeMismatch, fmt.Sprintf("argument %d: expected %s but found %s", i+1, sym.ParamTypes[i], t), e.Line, e.Column)
			}
		}
	}

	return AnnotatedNode{NodeType: "Call", Value: calleeIdent.Name, Children: argNodes, Line: e.Line, Col: e.Column, InferredType: sym.ReturnType.String()}, sym.ReturnType
}

func literalTag(l ast.Literal) (nodeType, value string) {
	switch l.Kind {
	case ast.Int:
		return "IntLiteral", fmt.Sprintf("%d", l.Int)
	case ast.Float:
		return "FloatLiteral", fmt.Sprintf("%g", l.Float)
	case ast.String:
		return "StringLiteral", l.Str
	case ast.Bool:
		return "BoolLiteral", fmt.Sprintf("%t", l.Bool)
	default:
		return "Literal", ""
	}
}

// checkMainFunction enforces spec.md §4.3's main-function contract after
// the whole program has been analyzed.
func (a *Analyzer) checkMainFunction() {
	sym, ok := a.table.Lookup("main")
	if !ok || sym.Kind != symtab.SymFunction {
		a.error(MissingMainFunction, "", 1, 1)
		return
	}

	var reasons []string
	if len(sym.ParamTypes) != 0 {
		reasons = append(reasons, fmt.Sprintf("expected 0 parameters but found %d", len(sym.ParamTypes)))
	}
	if sym.ReturnType != ast.Int {
		reasons = append(reasons, fmt.Sprintf("expected a 'Int' return type but found '%s'", sym.ReturnType))
	}
	if len(reasons) > 0 {
		reason := util.MakeTextList(reasons)
		a.error(InvalidMainFunctionSignature, fmt.Sprintf("Invalid 'main' function signature: %s", reason), sym.Line, sym.Col)
	}
}
