package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamlang/dreamc/internal/ast"
)

func Test_Table_insertRejectsRedeclarationInSameScope(t *testing.T) {
	table := NewTable()

	ok := table.Insert(Symbol{Kind: SymVariable, Name: "x", Type: ast.Int})
	require.True(t, ok)

	ok = table.Insert(Symbol{Kind: SymVariable, Name: "x", Type: ast.Float})
	assert.False(t, ok, "inserting a duplicate name into the same scope must fail")
}

func Test_Table_lookupWalksOutToParentScopes(t *testing.T) {
	table := NewTable()
	require.True(t, table.Insert(Symbol{Kind: SymVariable, Name: "outer", Type: ast.Int}))

	table.EnterScope("inner")
	sym, ok := table.Lookup("outer")
	require.True(t, ok, "lookup from a child scope should find a parent-scope symbol")
	assert.Equal(t, ast.Int, sym.Type)
}

func Test_Table_innerScopeCanShadowOuterName(t *testing.T) {
	table := NewTable()
	require.True(t, table.Insert(Symbol{Kind: SymVariable, Name: "x", Type: ast.Int}))

	table.EnterScope("inner")
	require.True(t, table.Insert(Symbol{Kind: SymVariable, Name: "x", Type: ast.String}))

	sym, ok := table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, ast.String, sym.Type, "the innermost declaration should win")

	table.LeaveScope()
	sym, ok = table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, ast.Int, sym.Type, "leaving the scope should restore visibility of the outer declaration")
}

func Test_Table_lookupFailsForUndeclaredName(t *testing.T) {
	table := NewTable()
	_, ok := table.Lookup("nope")
	assert.False(t, ok)
}

func Test_Table_leaveScopeKeepsThePoppedScopeReachableAsAChild(t *testing.T) {
	table := NewTable()
	table.EnterScope("block")
	require.True(t, table.Insert(Symbol{Kind: SymVariable, Name: "local", Type: ast.Bool}))
	table.LeaveScope()

	require.Len(t, table.Root.Children, 1)
	child := table.Root.Children[0]
	assert.Equal(t, "block", child.Name)

	sym, ok := child.Lookup("local")
	require.True(t, ok, "a leaked scope should still be walkable directly for reporting")
	assert.Equal(t, ast.Bool, sym.Type)
}

func Test_Table_leavingGlobalScopeIsANoOp(t *testing.T) {
	table := NewTable()
	table.LeaveScope()
	assert.Same(t, table.Root, table.Current(), "leaving the root scope must not corrupt the table")
}

func Test_Symbol_getTypeReportsVoidForFunctionsAndStructs(t *testing.T) {
	fn := Symbol{Kind: SymFunction, ReturnType: ast.Int}
	assert.Equal(t, ast.Void, fn.GetType())

	st := Symbol{Kind: SymStruct}
	assert.Equal(t, ast.Void, st.GetType())

	v := Symbol{Kind: SymVariable, Type: ast.Float}
	assert.Equal(t, ast.Float, v.GetType())
}

func Test_Symbol_isConstant(t *testing.T) {
	assert.True(t, Symbol{Kind: SymConstant}.IsConstant())
	assert.False(t, Symbol{Kind: SymVariable}.IsConstant())
}
