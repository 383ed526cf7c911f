package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamlang/dreamc/internal/lexer"
	"github.com/dreamlang/dreamc/internal/parser"
)

func analyzeSource(t *testing.T, src string) Result {
	t.Helper()
	tokens := lexer.FilterSignificant(lexer.Scan(src))
	prog, synErrs := parser.Parse(tokens)
	require.Empty(t, synErrs, "fixture must parse cleanly")
	return Analyze(prog)
}

func Test_Analyze_wellFormedProgramsHaveNoErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name: "a minimal valid main function",
			input: `fn main() -> int {
				return 42;
			}`,
		},
		{
			name: "a helper function called from main",
			input: `fn add(a: int, b: int) -> int {
				return a + b;
			}
			fn main() -> int {
				return add(1, 2);
			}`,
		},
		{
			name: "typed and inferred let/const declarations",
			input: `let x: int = 1;
			const name = "dream";
			fn main() -> int {
				return x;
			}`,
		},
		{
			name: "shadowing across nested block scopes is allowed",
			input: `fn main() -> int {
				let x = 1;
				if true {
					let x = 2;
					return x;
				}
				return x;
			}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := analyzeSource(t, tc.input)
			assert.Empty(t, result.Errors)
		})
	}
}

func Test_Analyze_redeclaredVariableInSameScope(t *testing.T) {
	result := analyzeSource(t, `fn main() -> int {
		let x = 1;
		let x = 2;
		return x;
	}`)

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, RedeclaredVariable, result.Errors[0].Kind)
}

func Test_Analyze_typeMismatchInDeclaredLetType(t *testing.T) {
	result := analyzeSource(t, `fn main() -> int {
		let x: int = "not a number";
		return x;
	}`)

	require.NotEmpty(t, result.Errors)
	found := false
	for _, e := range result.Errors {
		if e.Kind == TypeMismatch {
			found = true
		}
	}
	assert.True(t, found, "expected a TypeMismatch error, got %v", result.Errors)
}

func Test_Analyze_missingReturnStatementInNonVoidFunction(t *testing.T) {
	result := analyzeSource(t, `fn f() -> int {
		let x = 1;
	}
	fn main() -> int {
		return 0;
	}`)

	require.NotEmpty(t, result.Errors)
	found := false
	for _, e := range result.Errors {
		if e.Kind == MissingReturnStatement {
			found = true
		}
	}
	assert.True(t, found, "expected a MissingReturnStatement error, got %v", result.Errors)
}

func Test_Analyze_ifStructurallyGuaranteesReturnOnlyWhenBothBranchesDo(t *testing.T) {
	testCases := []struct {
		name              string
		input             string
		expectMissingStmt bool
	}{
		{
			name: "both branches return satisfies the function",
			input: `fn f(n: int) -> int {
				if n > 0 {
					return 1;
				} else {
					return 0;
				}
			}
			fn main() -> int { return 0; }`,
			expectMissingStmt: false,
		},
		{
			name: "a missing else leaves the function without a guaranteed return",
			input: `fn f(n: int) -> int {
				if n > 0 {
					return 1;
				}
			}
			fn main() -> int { return 0; }`,
			expectMissingStmt: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := analyzeSource(t, tc.input)
			foundMissing := false
			for _, e := range result.Errors {
				if e.Kind == MissingReturnStatement {
					foundMissing = true
				}
			}
			assert.Equal(t, tc.expectMissingStmt, foundMissing)
		})
	}
}

func Test_Analyze_invalidMainFunctionSignature(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "main takes a parameter",
			input: `fn main(n: int) -> int { return n; }`,
		},
		{
			name:  "main returns the wrong type",
			input: `fn main() -> float { return 1.0; }`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := analyzeSource(t, tc.input)
			require.NotEmpty(t, result.Errors)
			found := false
			for _, e := range result.Errors {
				if e.Kind == InvalidMainFunctionSignature {
					found = true
				}
			}
			assert.True(t, found, "expected InvalidMainFunctionSignature, got %v", result.Errors)
		})
	}
}

func Test_Analyze_missingMainFunctionOnEmptySource(t *testing.T) {
	result := analyzeSource(t, "")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, MissingMainFunction, result.Errors[0].Kind)
}

func Test_Analyze_undeclaredVariableReference(t *testing.T) {
	result := analyzeSource(t, `fn main() -> int {
		return y;
	}`)

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, UndeclaredVariable, result.Errors[0].Kind)
}

func Test_Analyze_assignmentToConstantIsRejected(t *testing.T) {
	result := analyzeSource(t, `fn main() -> int {
		const x = 1;
		x = 2;
		return x;
	}`)

	found := false
	for _, e := range result.Errors {
		if e.Kind == InvalidAssignment {
			found = true
		}
	}
	assert.True(t, found, "expected InvalidAssignment, got %v", result.Errors)
}

func Test_Analyze_callArgumentCountAndTypeMismatch(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		expectKind SemanticErrorKind
	}{
		{
			name: "too few arguments",
			input: `fn add(a: int, b: int) -> int { return a + b; }
			fn main() -> int { return add(1); }`,
			expectKind: ArgumentCountMismatch,
		},
		{
			name: "wrong argument type",
			input: `fn add(a: int, b: int) -> int { return a + b; }
			fn main() -> int { return add(1, "two"); }`,
			expectKind: ArgumentTypeMismatch,
		},
		{
			name: "call to an undefined function",
			input: `fn main() -> int { return missing(); }`,
			expectKind: UndefinedFunction,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := analyzeSource(t, tc.input)
			require.NotEmpty(t, result.Errors)
			found := false
			for _, e := range result.Errors {
				if e.Kind == tc.expectKind {
					found = true
				}
			}
			assert.True(t, found, "expected %s, got %v", tc.expectKind, result.Errors)
		})
	}
}

func Test_Analyze_everyErrorHasAPositiveLineAndColumn(t *testing.T) {
	result := analyzeSource(t, "")
	for _, e := range result.Errors {
		assert.GreaterOrEqual(t, e.Line, 1)
		assert.GreaterOrEqual(t, e.Col, 1)
	}
}
