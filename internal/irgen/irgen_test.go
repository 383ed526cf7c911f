package irgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamlang/dreamc/internal/lexer"
	"github.com/dreamlang/dreamc/internal/parser"
	"github.com/dreamlang/dreamc/internal/semantic"
)

func emitSource(t *testing.T, src string) (string, error) {
	t.Helper()
	tokens := lexer.FilterSignificant(lexer.Scan(src))
	prog, synErrs := parser.Parse(tokens)
	require.Empty(t, synErrs, "fixture must parse cleanly")
	result := semantic.Analyze(prog)
	require.Empty(t, result.Errors, "fixture must pass semantic analysis")
	return Emit(prog)
}

func Test_Emit_minimalMainFunctionReturnsConstant(t *testing.T) {
	ir, err := emitSource(t, `fn main() -> int {
		return 42;
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "define i64 @main() {")
	assert.Contains(t, ir, "ret i64 42")
	assert.Contains(t, ir, "; ModuleID = '"+ModuleName+"'")
}

func Test_Emit_callToHelperFunctionLowersAsACall(t *testing.T) {
	ir, err := emitSource(t, `fn add(a: int, b: int) -> int {
		return a + b;
	}
	fn main() -> int {
		return add(1, 2);
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "define i64 @add(i64 %arg.a, i64 %arg.b) {")
	assert.Contains(t, ir, "call i64 @add(i64 1, i64 2)")
}

func Test_Emit_voidFunctionGetsImplicitRetVoid(t *testing.T) {
	ir, err := emitSource(t, `fn log(x: int) -> void {
		let y = x;
	}
	fn main() -> int {
		log(1);
		return 0;
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "define void @log(i64 %arg.x) {")
	assert.Contains(t, ir, "ret void")
}

func Test_Emit_nonVoidFunctionMissingTerminatorIsRemovedWithError(t *testing.T) {
	// This case is also flagged as MissingReturnStatement at the semantic
	// stage; irgen applies the same rule independently at its own
	// verification step, so Emit is exercised directly here rather than
	// through a fixture required to pass semantic analysis first.
	tokens := lexer.FilterSignificant(lexer.Scan(`fn broken() -> int {
		let x = 1;
	}
	fn main() -> int {
		return 0;
	}`))
	prog, synErrs := parser.Parse(tokens)
	require.Empty(t, synErrs)

	ir, err := Emit(prog)
	require.Error(t, err)
	assert.NotContains(t, ir, "@broken")
	assert.Contains(t, ir, "@main")
}

func Test_Emit_doUntilUsesInvertedExitPolarity(t *testing.T) {
	ir, err := emitSource(t, `fn main() -> int {
		let x = 0;
		do {
			x = x + 1;
		} until x == 3;
		return x;
	}`)
	require.NoError(t, err)

	assert.Contains(t, ir, "doCond")
	assert.Contains(t, ir, "afterDo")
	assert.Contains(t, ir, "doBody")

	// The branch out of doCond sends the true case to afterDo and the
	// false case back to the body, the inverse of a while loop's polarity.
	assert.Regexp(t, `br i1 %\w+, label %afterDo\d+, label %doBody\d+`, ir)
}

func Test_Emit_whileLoopBlockNaming(t *testing.T) {
	ir, err := emitSource(t, `fn main() -> int {
		let x = 0;
		while x < 3 {
			x = x + 1;
		}
		return x;
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "whilecond")
	assert.Contains(t, ir, "whilebody")
	assert.Contains(t, ir, "afterwhile")
	assert.Regexp(t, `br i1 %\w+, label %whilebody\d+, label %afterwhile\d+`, ir)
}

func Test_Emit_ifElseBlockNaming(t *testing.T) {
	ir, err := emitSource(t, `fn main() -> int {
		if true {
			return 1;
		} else {
			return 0;
		}
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "then")
	assert.Contains(t, ir, "else")
	// Both branches return, so no ifcont merge block is created.
	assert.NotContains(t, ir, "ifcont")
}

func Test_Emit_spreadPipeSwapAreRejected(t *testing.T) {
	// irgen rejects these operators even though the parser and semantic
	// analyzer accept them, since no lowering has been defined for them.
	testCases := []struct {
		name  string
		op    string
		left  string
		right string
	}{
		{"spread", "...+", "1", "2"},
		{"pipe", "|>", "1", "2"},
		{"swap", "<=>", "a", "b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := lexer.FilterSignificant(lexer.Scan(`fn main() -> int {
				let a = 1;
				let b = 2;
				let c = ` + tc.left + ` ` + tc.op + ` ` + tc.right + `;
				return 0;
			}`))
			prog, synErrs := parser.Parse(tokens)
			require.Empty(t, synErrs)

			_, err := Emit(prog)
			require.Error(t, err)
		})
	}
}

func Test_Emit_globalConstantAndVariableDeclarations(t *testing.T) {
	ir, err := emitSource(t, `let counter: int = 0;
	const greeting: string = "hi";
	fn main() -> int {
		return counter;
	}`)
	require.NoError(t, err)
	assert.Contains(t, ir, "@counter = global i64 0")
	assert.Contains(t, ir, "@greeting = constant ptr @.str.0")
}

func Test_Emit_stringLiteralsAreDeduplicatedIntoGlobals(t *testing.T) {
	ir, err := emitSource(t, `fn main() -> int {
		let a = "dup";
		let b = "dup";
		return 0;
	}`)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(ir, `@.str.0 = private unnamed_addr constant`))
}
