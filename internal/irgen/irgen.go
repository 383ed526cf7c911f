// Package irgen lowers a Dream AST to textual LLVM IR. Grounded on the
// original dreamcc LLVM compiler's algorithm (entry-block alloca pattern,
// per-function verification with delete-and-report on failure, the
// then/else/ifcont and whilecond/whilebody/afterwhile and doBody/doCond/
// afterDo block-naming and termination-tracking rules, and the inverted
// exit polarity of do-until), reimplemented as direct text assembly since
// no Go LLVM binding is available in the example corpus — the original
// used Rust's inkwell, which has no Go equivalent here.
package irgen

import (
	"fmt"
	"strings"

	"github.com/dreamlang/dreamc/internal/ast"
)

// ModuleName is the fixed LLVM module identifier spec.md requires.
const ModuleName = "dream_compiler"

type funcSig struct {
	paramTypes []ast.Type
	returnType ast.Type
}

type localVar struct {
	ptr string
	typ ast.Type
}

type block struct {
	label      string
	lines      []string
	terminated bool
}

type funcState struct {
	name         string
	returnType   ast.Type
	vars         map[string]*localVar
	entryAllocas []string
	blocks       []*block
	cur          *block
	regCounter   int
	labelCounter int
}

// Emitter accumulates module-level output across declarations.
type Emitter struct {
	functions map[string]funcSig
	globals   map[string]ast.Type
	strs      map[string]string // literal -> global name
	strOrder  []string
	removed   []string // functions removed after verification failure
}

// Emit lowers a full program to LLVM IR text. It returns the best-effort
// module text even when individual functions fail verification; the
// returned error is the first failure encountered, naming the removed
// function where one was removed.
func Emit(prog ast.Program) (string, error) {
	e := &Emitter{
		functions: make(map[string]funcSig),
		globals:   make(map[string]ast.Type),
		strs:      make(map[string]string),
	}

	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case ast.Function:
			paramTypes := make([]ast.Type, len(d.Params))
			for i, p := range d.Params {
				paramTypes[i] = p.Type
			}
			e.functions[d.Name] = funcSig{paramTypes: paramTypes, returnType: d.ReturnType}
		case ast.Variable:
			e.globals[d.Name] = d.EffectiveType()
		case ast.Constant:
			e.globals[d.Name] = d.EffectiveType()
		}
	}

	var globalsText, funcsText strings.Builder
	var firstErr error

	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case ast.Variable:
			line, err := e.emitGlobal(d.Name, d.EffectiveType(), d.Initializer, false)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			globalsText.WriteString(line)
		case ast.Constant:
			line, err := e.emitGlobal(d.Name, d.EffectiveType(), d.Initializer, true)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			globalsText.WriteString(line)
		case ast.Struct:
			// Structs have no IR lowering; top-level struct declarations
			// are a no-op at emission time.
		case ast.Function:
			text, err := e.emitFunction(d)
			if err != nil {
				e.removed = append(e.removed, d.Name)
				if firstErr == nil {
					firstErr = fmt.Errorf("function %q removed: %w", d.Name, err)
				}
				continue
			}
			funcsText.WriteString(text)
		case ast.StatementDecl:
			if firstErr == nil {
				firstErr = fmt.Errorf("top-level statements not supported (at %d:%d)", d.Line, d.Column)
			}
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "; ModuleID = '%s'\n", ModuleName)
	out.WriteString("source_filename = \"" + ModuleName + "\"\n\n")
	out.WriteString("declare i32 @printf(ptr, ...)\n")
	out.WriteString("declare i32 @puts(ptr)\n\n")

	for _, lit := range e.strOrder {
		name := e.strs[lit]
		fmt.Fprintf(&out, "@%s = private unnamed_addr constant [%d x i8] c%q\n", name, len(lit)+1, lit+"\x00")
	}
	if len(e.strOrder) > 0 {
		out.WriteString("\n")
	}

	out.WriteString(globalsText.String())
	if globalsText.Len() > 0 {
		out.WriteString("\n")
	}
	out.WriteString(funcsText.String())

	return out.String(), firstErr
}

func llvmType(t ast.Type) string {
	switch t {
	case ast.Int:
		return "i64"
	case ast.Float:
		return "double"
	case ast.Bool:
		return "i1"
	case ast.String:
		return "ptr"
	default:
		return "void"
	}
}

func intFamily(t ast.Type) bool { return t == ast.Int || t == ast.Bool }

// ---- globals ----

func (e *Emitter) emitGlobal(name string, typ ast.Type, init ast.Expression, constant bool) (string, error) {
	lit, ok := init.(ast.Literal)
	if !ok {
		return "", fmt.Errorf("global %q: initializer must be a constant literal", name)
	}
	qualifier := "global"
	if constant {
		qualifier = "constant"
	}
	value, _, err := e.literalValue(lit)
	if err != nil {
		return "", fmt.Errorf("global %q: %w", name, err)
	}
	return fmt.Sprintf("@%s = %s %s %s\n", name, qualifier, llvmType(typ), value), nil
}

func (e *Emitter) literalValue(lit ast.Literal) (string, ast.Type, error) {
	switch lit.Kind {
	case ast.Int:
		return fmt.Sprintf("%d", lit.Int), ast.Int, nil
	case ast.Float:
		return fmt.Sprintf("%g", lit.Float), ast.Float, nil
	case ast.Bool:
		if lit.Bool {
			return "1", ast.Bool, nil
		}
		return "0", ast.Bool, nil
	case ast.String:
		return "@" + e.stringConstant(lit.Str), ast.String, nil
	default:
		return "", ast.Void, fmt.Errorf("unsupported literal kind")
	}
}

func (e *Emitter) stringConstant(s string) string {
	if name, ok := e.strs[s]; ok {
		return name
	}
	name := fmt.Sprintf(".str.%d", len(e.strOrder))
	e.strs[s] = name
	e.strOrder = append(e.strOrder, s)
	return name
}

// ---- functions ----

func (e *Emitter) emitFunction(f ast.Function) (string, error) {
	fs := &funcState{name: f.Name, returnType: f.ReturnType, vars: make(map[string]*localVar)}

	entry := &block{label: "entry"}
	fs.blocks = append(fs.blocks, entry)
	fs.cur = entry

	paramDefs := make([]string, len(f.Params))
	for i, p := range f.Params {
		argReg := fmt.Sprintf("%%arg.%s", p.Name)
		paramDefs[i] = fmt.Sprintf("%s %s", llvmType(p.Type), argReg)
		ptr := fs.declareLocal(p.Name, p.Type)
		fs.emit(fmt.Sprintf("  store %s %s, ptr %s", llvmType(p.Type), argReg, ptr))
	}

	if err := e.emitBlockBody(fs, f.Body); err != nil {
		return "", err
	}

	if err := e.finalizeFunction(fs); err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "define %s @%s(%s) {\n", llvmType(f.ReturnType), f.Name, strings.Join(paramDefs, ", "))
	out.WriteString("entry:\n")
	for _, line := range fs.entryAllocas {
		out.WriteString(line + "\n")
	}
	for _, line := range fs.blocks[0].lines {
		out.WriteString(line + "\n")
	}
	for _, b := range fs.blocks[1:] {
		fmt.Fprintf(&out, "%s:\n", b.label)
		for _, line := range b.lines {
			out.WriteString(line + "\n")
		}
	}
	out.WriteString("}\n\n")
	return out.String(), nil
}

// finalizeFunction implements the verification-and-repair pass: a Void
// function whose last block lacks a terminator gets an implicit ret void;
// any other function still missing a terminator fails "verification".
func (e *Emitter) finalizeFunction(fs *funcState) error {
	last := fs.blocks[len(fs.blocks)-1]
	if last.terminated {
		return nil
	}
	if fs.returnType == ast.Void {
		fs.cur = last
		fs.terminate("  ret void")
		return nil
	}
	return fmt.Errorf("function %q: missing terminator in block %q", fs.name, last.label)
}

func (fs *funcState) nextReg(prefix string) string {
	fs.regCounter++
	return fmt.Sprintf("%%%s%d", prefix, fs.regCounter)
}

func (fs *funcState) freshLabel(prefix string) string {
	fs.labelCounter++
	return fmt.Sprintf("%s%d", prefix, fs.labelCounter)
}

func (fs *funcState) declareLocal(name string, typ ast.Type) string {
	ptr := fmt.Sprintf("%%%s.addr.%d", name, len(fs.entryAllocas))
	fs.entryAllocas = append(fs.entryAllocas, fmt.Sprintf("  %s = alloca %s", ptr, llvmType(typ)))
	fs.vars[name] = &localVar{ptr: ptr, typ: typ}
	return ptr
}

func (fs *funcState) newBlock(label string) *block {
	b := &block{label: label}
	fs.blocks = append(fs.blocks, b)
	return b
}

func (fs *funcState) emit(line string) {
	if !fs.cur.terminated {
		fs.cur.lines = append(fs.cur.lines, line)
	}
}

func (fs *funcState) terminate(line string) {
	if fs.cur.terminated {
		return
	}
	fs.cur.lines = append(fs.cur.lines, line)
	fs.cur.terminated = true
}

func (fs *funcState) branchIfUnterminated(label string) {
	if !fs.cur.terminated {
		fs.terminate(fmt.Sprintf("  br label %%%s", label))
	}
}

// ---- statement lowering ----

func (e *Emitter) emitBlockBody(fs *funcState, b ast.Block) error {
	for _, decl := range b.Items {
		switch d := decl.(type) {
		case ast.Variable:
			if err := e.emitLocalDecl(fs, d.Name, d.EffectiveType(), d.Initializer); err != nil {
				return err
			}
		case ast.Constant:
			if err := e.emitLocalDecl(fs, d.Name, d.EffectiveType(), d.Initializer); err != nil {
				return err
			}
		case ast.Function:
			return fmt.Errorf("nested functions not supported (at %d:%d)", d.Line, d.Column)
		case ast.Struct:
			// no-op
		case ast.StatementDecl:
			if err := e.emitStatement(fs, d.Stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) emitLocalDecl(fs *funcState, name string, typ ast.Type, init ast.Expression) error {
	val, valType, err := e.emitExpression(fs, init)
	if err != nil {
		return err
	}
	if typ == ast.Void {
		// No annotation and a non-literal initializer: store the
		// initializer's own lowered type.
		typ = valType
	}
	ptr := fs.declareLocal(name, typ)
	fs.emit(fmt.Sprintf("  store %s %s, ptr %s", llvmType(valType), val, ptr))
	return nil
}

func (e *Emitter) emitStatement(fs *funcState, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.ExpressionStmt:
		_, _, err := e.emitExpression(fs, s.Expr)
		return err

	case ast.Return:
		val, typ, err := e.emitExpression(fs, s.Value)
		if err != nil {
			return err
		}
		if typ == ast.Void {
			fs.terminate("  ret void")
		} else {
			fs.terminate(fmt.Sprintf("  ret %s %s", llvmType(typ), val))
		}
		return nil

	case ast.Block:
		return e.emitBlockBody(fs, s)

	case ast.If:
		return e.emitIf(fs, s)

	case ast.While:
		return e.emitWhile(fs, s)

	case ast.DoUntil:
		return e.emitDoUntil(fs, s)

	case ast.For:
		return fmt.Errorf("for loops not yet implemented (at %d:%d)", s.Line, s.Column)

	default:
		return fmt.Errorf("unsupported statement type")
	}
}

func elseBranchAsBlock(e ast.ElseBranch) ast.Block {
	switch v := e.(type) {
	case ast.Block:
		return v
	case ast.If:
		return ast.Block{Position: v.Position, Items: []ast.Declaration{ast.StatementDecl{Position: v.Position, Stmt: v}}}
	default:
		return ast.Block{}
	}
}

func (e *Emitter) emitIf(fs *funcState, s ast.If) error {
	condVal, condType, err := e.emitExpression(fs, s.Cond)
	if err != nil {
		return err
	}
	if condType != ast.Bool {
		return fmt.Errorf("if condition must be Bool (at %d:%d)", s.Line, s.Column)
	}

	thenLabel := fs.freshLabel("then")
	elseLabel := fs.freshLabel("else")
	mergeLabel := fs.freshLabel("ifcont")

	fs.terminate(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", condVal, thenLabel, elseLabel))

	thenBlk := fs.newBlock(thenLabel)
	fs.cur = thenBlk
	if err := e.emitBlockBody(fs, s.Then); err != nil {
		return err
	}
	thenTerminated := fs.cur.terminated
	fs.branchIfUnterminated(mergeLabel)

	elseBlk := fs.newBlock(elseLabel)
	fs.cur = elseBlk
	if s.Else != nil {
		if err := e.emitBlockBody(fs, elseBranchAsBlock(s.Else)); err != nil {
			return err
		}
	}
	elseTerminated := fs.cur.terminated
	fs.branchIfUnterminated(mergeLabel)

	if thenTerminated && elseTerminated {
		// Both paths terminated: no fall-through code can reach a merge
		// point, so none is created.
		fs.cur = elseBlk
		return nil
	}
	mergeBlk := fs.newBlock(mergeLabel)
	fs.cur = mergeBlk
	return nil
}

func (e *Emitter) emitWhile(fs *funcState, s ast.While) error {
	condLabel := fs.freshLabel("whilecond")
	bodyLabel := fs.freshLabel("whilebody")
	afterLabel := fs.freshLabel("afterwhile")

	fs.branchIfUnterminated(condLabel)

	condBlk := fs.newBlock(condLabel)
	fs.cur = condBlk
	condVal, condType, err := e.emitExpression(fs, s.Cond)
	if err != nil {
		return err
	}
	if condType != ast.Bool {
		return fmt.Errorf("while condition must be Bool (at %d:%d)", s.Line, s.Column)
	}
	fs.terminate(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", condVal, bodyLabel, afterLabel))

	bodyBlk := fs.newBlock(bodyLabel)
	fs.cur = bodyBlk
	if err := e.emitBlockBody(fs, s.Body); err != nil {
		return err
	}
	fs.branchIfUnterminated(condLabel)

	afterBlk := fs.newBlock(afterLabel)
	fs.cur = afterBlk
	return nil
}

// emitDoUntil uses inverted exit polarity, matching the language's "run
// body, exit when condition becomes true" semantics: condition true
// branches to the after-block, condition false loops back to the body.
func (e *Emitter) emitDoUntil(fs *funcState, s ast.DoUntil) error {
	bodyLabel := fs.freshLabel("doBody")
	condLabel := fs.freshLabel("doCond")
	afterLabel := fs.freshLabel("afterDo")

	fs.branchIfUnterminated(bodyLabel)

	bodyBlk := fs.newBlock(bodyLabel)
	fs.cur = bodyBlk
	if err := e.emitBlockBody(fs, s.Body); err != nil {
		return err
	}
	fs.branchIfUnterminated(condLabel)

	condBlk := fs.newBlock(condLabel)
	fs.cur = condBlk
	condVal, condType, err := e.emitExpression(fs, s.Cond)
	if err != nil {
		return err
	}
	if condType != ast.Bool {
		return fmt.Errorf("do-until condition must be Bool (at %d:%d)", s.Line, s.Column)
	}
	fs.terminate(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", condVal, afterLabel, bodyLabel))

	afterBlk := fs.newBlock(afterLabel)
	fs.cur = afterBlk
	return nil
}

// ---- expression lowering ----

func (e *Emitter) emitExpression(fs *funcState, expr ast.Expression) (string, ast.Type, error) {
	switch ex := expr.(type) {
	case ast.Literal:
		return e.literalValue(ex)

	case ast.Identifier:
		if v, ok := fs.vars[ex.Name]; ok {
			reg := fs.nextReg("t")
			fs.emit(fmt.Sprintf("  %s = load %s, ptr %s", reg, llvmType(v.typ), v.ptr))
			return reg, v.typ, nil
		}
		if typ, ok := e.globals[ex.Name]; ok {
			reg := fs.nextReg("t")
			fs.emit(fmt.Sprintf("  %s = load %s, ptr @%s", reg, llvmType(typ), ex.Name))
			return reg, typ, nil
		}
		return "", ast.Void, fmt.Errorf("undeclared identifier %q (at %d:%d)", ex.Name, ex.Line, ex.Column)

	case ast.Grouped:
		return e.emitExpression(fs, ex.Inner)

	case ast.Unary:
		return e.emitUnary(fs, ex)

	case ast.Binary:
		return e.emitBinary(fs, ex)

	case ast.Assignment:
		return e.emitAssignment(fs, ex)

	case ast.Call:
		return e.emitCall(fs, ex)

	default:
		return "", ast.Void, fmt.Errorf("unsupported expression for IR generation (at %d:%d)", expr.Pos().Line, expr.Pos().Column)
	}
}

func (e *Emitter) emitUnary(fs *funcState, ex ast.Unary) (string, ast.Type, error) {
	val, typ, err := e.emitExpression(fs, ex.Operand)
	if err != nil {
		return "", ast.Void, err
	}
	switch ex.Op {
	case ast.OpNeg:
		switch typ {
		case ast.Int:
			reg := fs.nextReg("t")
			fs.emit(fmt.Sprintf("  %s = sub i64 0, %s", reg, val))
			return reg, ast.Int, nil
		case ast.Float:
			reg := fs.nextReg("t")
			fs.emit(fmt.Sprintf("  %s = fneg double %s", reg, val))
			return reg, ast.Float, nil
		default:
			return "", ast.Void, fmt.Errorf("cannot negate a non-numeric value (at %d:%d)", ex.Line, ex.Column)
		}
	case ast.OpNot:
		if !intFamily(typ) {
			return "", ast.Void, fmt.Errorf("cannot apply '!' to a non-integer value (at %d:%d)", ex.Line, ex.Column)
		}
		reg := fs.nextReg("t")
		fs.emit(fmt.Sprintf("  %s = xor %s %s, -1", reg, llvmType(typ), val))
		return reg, typ, nil
	default:
		return "", ast.Void, fmt.Errorf("unsupported unary operator")
	}
}

func (e *Emitter) emitBinary(fs *funcState, ex ast.Binary) (string, ast.Type, error) {
	switch ex.Op {
	case ast.OpPipe, ast.OpSpread, ast.OpSwap:
		return "", ast.Void, fmt.Errorf("unsupported binary operation (at %d:%d)", ex.Line, ex.Column)
	}

	left, leftType, err := e.emitExpression(fs, ex.Left)
	if err != nil {
		return "", ast.Void, err
	}
	right, rightType, err := e.emitExpression(fs, ex.Right)
	if err != nil {
		return "", ast.Void, err
	}
	if leftType != rightType {
		return "", ast.Void, fmt.Errorf("mismatched operand types %s and %s (at %d:%d)", leftType, rightType, ex.Line, ex.Column)
	}

	lt := llvmType(leftType)
	reg := fs.nextReg("t")

	if intFamily(leftType) {
		switch ex.Op {
		case ast.OpPlus:
			fs.emit(fmt.Sprintf("  %s = add %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpMinus:
			fs.emit(fmt.Sprintf("  %s = sub %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpAsterisk:
			fs.emit(fmt.Sprintf("  %s = mul %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpSlash:
			fs.emit(fmt.Sprintf("  %s = sdiv %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpAnd:
			fs.emit(fmt.Sprintf("  %s = and %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpOr:
			fs.emit(fmt.Sprintf("  %s = or %s %s, %s", reg, lt, left, right))
			return reg, leftType, nil
		case ast.OpLess, ast.OpLessEq, ast.OpGreater, ast.OpGreaterEq, ast.OpEqual, ast.OpNotEqual:
			fs.emit(fmt.Sprintf("  %s = icmp %s %s %s, %s", reg, icmpCond(ex.Op), lt, left, right))
			return reg, ast.Bool, nil
		}
	}

	if leftType == ast.Float {
		switch ex.Op {
		case ast.OpPlus:
			fs.emit(fmt.Sprintf("  %s = fadd double %s, %s", reg, left, right))
			return reg, ast.Float, nil
		case ast.OpMinus:
			fs.emit(fmt.Sprintf("  %s = fsub double %s, %s", reg, left, right))
			return reg, ast.Float, nil
		case ast.OpAsterisk:
			fs.emit(fmt.Sprintf("  %s = fmul double %s, %s", reg, left, right))
			return reg, ast.Float, nil
		case ast.OpSlash:
			fs.emit(fmt.Sprintf("  %s = fdiv double %s, %s", reg, left, right))
			return reg, ast.Float, nil
		case ast.OpLess, ast.OpLessEq, ast.OpGreater, ast.OpGreaterEq, ast.OpEqual, ast.OpNotEqual:
			fs.emit(fmt.Sprintf("  %s = fcmp %s double %s, %s", reg, fcmpCond(ex.Op), left, right))
			return reg, ast.Bool, nil
		}
	}

	return "", ast.Void, fmt.Errorf("unsupported binary operation for type %s (at %d:%d)", leftType, ex.Line, ex.Column)
}

func icmpCond(op ast.BinaryOp) string {
	switch op {
	case ast.OpLess:
		return "slt"
	case ast.OpLessEq:
		return "sle"
	case ast.OpGreater:
		return "sgt"
	case ast.OpGreaterEq:
		return "sge"
	case ast.OpEqual:
		return "eq"
	default:
		return "ne"
	}
}

func fcmpCond(op ast.BinaryOp) string {
	switch op {
	case ast.OpLess:
		return "olt"
	case ast.OpLessEq:
		return "ole"
	case ast.OpGreater:
		return "ogt"
	case ast.OpGreaterEq:
		return "oge"
	case ast.OpEqual:
		return "oeq"
	default:
		return "one"
	}
}

func (e *Emitter) emitAssignment(fs *funcState, ex ast.Assignment) (string, ast.Type, error) {
	ident, ok := ex.Target.(ast.Identifier)
	if !ok {
		return "", ast.Void, fmt.Errorf("unsupported assignment target for IR generation (at %d:%d)", ex.Line, ex.Column)
	}
	val, valType, err := e.emitExpression(fs, ex.Value)
	if err != nil {
		return "", ast.Void, err
	}
	if v, ok := fs.vars[ident.Name]; ok {
		fs.emit(fmt.Sprintf("  store %s %s, ptr %s", llvmType(valType), val, v.ptr))
		return val, valType, nil
	}
	if typ, ok := e.globals[ident.Name]; ok {
		fs.emit(fmt.Sprintf("  store %s %s, ptr @%s", llvmType(typ), val, ident.Name))
		return val, valType, nil
	}
	return "", ast.Void, fmt.Errorf("undeclared identifier %q (at %d:%d)", ident.Name, ex.Line, ex.Column)
}

func (e *Emitter) emitCall(fs *funcState, ex ast.Call) (string, ast.Type, error) {
	ident, ok := ex.Callee.(ast.Identifier)
	if !ok {
		return "", ast.Void, fmt.Errorf("call target must be a plain identifier (at %d:%d)", ex.Line, ex.Column)
	}
	sig, ok := e.functions[ident.Name]
	if !ok {
		return "", ast.Void, fmt.Errorf("call to undeclared function %q (at %d:%d)", ident.Name, ex.Line, ex.Column)
	}

	argStrs := make([]string, len(ex.Args))
	for i, arg := range ex.Args {
		val, typ, err := e.emitExpression(fs, arg)
		if err != nil {
			return "", ast.Void, err
		}
		argStrs[i] = fmt.Sprintf("%s %s", llvmType(typ), val)
	}

	callText := fmt.Sprintf("call %s @%s(%s)", llvmType(sig.returnType), ident.Name, strings.Join(argStrs, ", "))
	if sig.returnType == ast.Void {
		fs.emit("  " + callText)
		return "", ast.Void, nil
	}
	reg := fs.nextReg("t")
	fs.emit(fmt.Sprintf("  %s = %s", reg, callText))
	return reg, sig.returnType, nil
}
