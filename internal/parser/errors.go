package parser

import "fmt"

// SyntaxErrorKind is the closed set of recoverable parse errors (spec.md
// §4.2, §7).
type SyntaxErrorKind int

const (
	UnexpectedToken SyntaxErrorKind = iota
	UnexpectedEndOfFile
	InvalidAssignmentTarget
	MissingSemicolon
	MissingColon
	MissingType
	MissingInKeyword
	MissingLoopVariable
	MissingStructName
	MissingFieldName
)

var kindNames = [...]string{
	"UnexpectedToken", "UnexpectedEndOfFile", "InvalidAssignmentTarget",
	"MissingSemicolon", "MissingColon", "MissingType", "MissingInKeyword",
	"MissingLoopVariable", "MissingStructName", "MissingFieldName",
}

func (k SyntaxErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "SyntaxError(?)"
}

// SyntaxError is a single recoverable parser diagnostic, always carrying a
// 1-based line/column (P3).
type SyntaxError struct {
	Kind SyntaxErrorKind
	Msg  string
	Line int
	Col  int
}

func (e SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s at %d:%d", e.Kind, e.Line, e.Col)
	}
	return fmt.Sprintf("%s: %s at %d:%d", e.Kind, e.Msg, e.Line, e.Col)
}
