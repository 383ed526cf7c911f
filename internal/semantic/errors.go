package semantic

import "fmt"

// SemanticErrorKind is the closed set of semantic diagnostics (spec.md §4.3,
// §7).
type SemanticErrorKind int

const (
	UndeclaredVariable SemanticErrorKind = iota
	RedeclaredVariable
	TypeMismatch
	InvalidAssignment
	UndefinedStruct
	RedeclaredStruct
	RedeclaredField
	FieldNotFound
	InvalidMemberAccess
	InvalidFunctionCallTarget
	UndefinedFunction
	ArgumentCountMismatch
	ArgumentTypeMismatch
	ReturnOutsideFunction
	ReturnTypeMismatch
	MissingReturnStatement
	MissingMainFunction
	InvalidMainFunctionSignature
)

var kindNames = [...]string{
	"UndeclaredVariable", "RedeclaredVariable", "TypeMismatch", "InvalidAssignment",
	"UndefinedStruct", "RedeclaredStruct", "RedeclaredField", "FieldNotFound",
	"InvalidMemberAccess", "InvalidFunctionCallTarget", "UndefinedFunction",
	"ArgumentCountMismatch", "ArgumentTypeMismatch", "ReturnOutsideFunction",
	"ReturnTypeMismatch", "MissingReturnStatement", "MissingMainFunction",
	"InvalidMainFunctionSignature",
}

func (k SemanticErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "SemanticError(?)"
}

// Error is a single semantic diagnostic, always carrying a 1-based
// line/column (P3).
type Error struct {
	Kind SemanticErrorKind
	Msg  string
	Line int
	Col  int
}

func (e Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s at %d:%d", e.Kind, e.Line, e.Col)
	}
	return fmt.Sprintf("%s: %s at %d:%d", e.Kind, e.Msg, e.Line, e.Col)
}
