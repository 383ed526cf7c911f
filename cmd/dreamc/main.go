/*
Dreamc compiles Dream source files down to LLVM IR text.

Usage:

	dreamc [flags] SOURCE
	dreamc repl

Given a source path, dreamc runs the file through the lexer, parser,
semantic analyzer, and IR emitter in sequence, stopping early if any stage
reports a diagnostic. With no source path, or with the word repl in its
place, dreamc instead starts a REPL, reading through readline when stdin is
a terminal and from plain stdin otherwise.

The flags are:

	-o PATH
		Write emitted output to PATH instead of stdout.

	--emit-llvm
		Emit LLVM IR text. This is currently the only supported output kind,
		so the flag is accepted for forward compatibility with a future
		machine-code backend.

	-S, --emit-asm
		Stop after producing the textual IR; does not invoke an external
		assembler or linker.

	-O0, -O1, -O2, -O3
		Accepted for command-line compatibility. dreamc performs no
		optimization and invokes no external tool, so the level has no
		effect.

	--lex-only
		Stop after lexing and print the token stream.

	--parse-only
		Stop after parsing and print the number of top-level declarations
		parsed. The AST itself is not printed.

	--semantic-only
		Stop after semantic analysis and print the annotated AST.

	-k
		Keep any temporary files that would otherwise be removed.

	-v, --version
		Print the dreamc version and exit.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dreamlang/dreamc/internal/irgen"
	"github.com/dreamlang/dreamc/internal/lexer"
	"github.com/dreamlang/dreamc/internal/parser"
	"github.com/dreamlang/dreamc/internal/replio"
	"github.com/dreamlang/dreamc/internal/semantic"
	"github.com/dreamlang/dreamc/internal/version"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess      = 0
	ExitCompileError = 1
	ExitInitError    = 2
)

var returnCode int

var (
	flagOutput        = pflag.StringP("output", "o", "", "Write output to the given path instead of stdout.")
	flagEmitLLVM      = pflag.Bool("emit-llvm", false, "Emit LLVM IR text.")
	flagEmitAsm       = pflag.BoolP("emit-asm", "S", false, "Stop after producing the textual IR.")
	flagOpt0          = pflag.Bool("O0", false, "Request optimization level 0 from opt.")
	flagOpt1          = pflag.Bool("O1", false, "Request optimization level 1 from opt.")
	flagOpt2          = pflag.Bool("O2", false, "Request optimization level 2 from opt.")
	flagOpt3          = pflag.Bool("O3", false, "Request optimization level 3 from opt.")
	flagLexOnly       = pflag.Bool("lex-only", false, "Stop after lexing and print the token stream.")
	flagParseOnly     = pflag.Bool("parse-only", false, "Stop after parsing and print the number of declarations parsed.")
	flagSemanticOnly  = pflag.Bool("semantic-only", false, "Stop after semantic analysis and print the annotated AST.")
	flagKeepTemps     = pflag.BoolP("keep-temps", "k", false, "Keep temporary files.")
	flagVersion       = pflag.BoolP("version", "v", false, "Print the dreamc version and exit.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", panicErr)
			returnCode = ExitInitError
		}
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("dreamc %s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) == 0 || (len(args) == 1 && args[0] == "repl") {
		returnCode = runREPL()
		return
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "ERROR: too many arguments\nDo -h for help.\n")
		returnCode = ExitInitError
		return
	}

	returnCode = runFile(args[0])
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitInitError
	}

	out := os.Stdout
	if *flagOutput != "" {
		f, err := os.Create(*flagOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitInitError
		}
		defer f.Close()
		out = f
	}

	tokens := lexer.FilterSignificant(lexer.Scan(string(src)))
	if *flagLexOnly {
		for _, t := range tokens {
			fmt.Fprintf(out, "%d:%d: %s %q\n", t.Line, t.Column, t.Kind, t.Lexeme)
		}
		return ExitSuccess
	}

	prog, synErrs := parser.Parse(tokens)
	if len(synErrs) > 0 {
		reportSyntaxErrors(path, synErrs)
		return ExitCompileError
	}
	if *flagParseOnly {
		fmt.Fprintf(out, "%d declarations parsed OK\n", len(prog.Declarations))
		return ExitSuccess
	}

	result := semantic.Analyze(prog)
	if len(result.Errors) > 0 {
		reportSemanticErrors(path, result.Errors)
		return ExitCompileError
	}
	if *flagSemanticOnly {
		printAnnotated(out, result.Annotated, 0)
		return ExitSuccess
	}

	ir, err := irgen.Emit(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitCompileError
	}

	fmt.Fprint(out, ir)
	return ExitSuccess
}

func reportSyntaxErrors(path string, errs []parser.SyntaxError) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", path, e.Line, e.Col, e.Error())
	}
}

func reportSemanticErrors(path string, errs []semantic.Error) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", path, e.Line, e.Col, e.Error())
	}
}

func printAnnotated(out *os.File, n semantic.AnnotatedNode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	if n.Value != "" {
		fmt.Fprintf(out, "%s%s(%s) : %s\n", indent, n.NodeType, n.Value, n.InferredType)
	} else {
		fmt.Fprintf(out, "%s%s : %s\n", indent, n.NodeType, n.InferredType)
	}
	for _, c := range n.Children {
		printAnnotated(out, c, depth+1)
	}
}

func runREPL() int {
	r, err := replio.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitInitError
	}
	defer r.Close()

	fmt.Printf("dreamc %s interactive mode, Ctrl-D to quit\n", version.Current)

	for {
		line, err := r.ReadStatement()
		if err != nil {
			break
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if handled := runMetaCommand(line); !handled {
				return ExitSuccess
			}
			continue
		}

		tokens := lexer.FilterSignificant(lexer.Scan(line))
		prog, synErrs := parser.Parse(tokens)
		if len(synErrs) > 0 {
			for _, e := range synErrs {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", e.Error())
			}
			continue
		}

		result := semantic.Analyze(prog)
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", e.Error())
			}
			continue
		}

		printAnnotated(os.Stdout, result.Annotated, 0)
	}

	return ExitSuccess
}

// runMetaCommand handles a `:`-prefixed REPL command. It returns false if
// the command should end the REPL session.
func runMetaCommand(line string) bool {
	words, err := replio.ParseMetaCommand(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return true
	}
	if len(words) == 0 {
		return true
	}

	switch words[0] {
	case "quit", "exit":
		return false
	case "load":
		if len(words) != 2 {
			fmt.Fprintf(os.Stderr, "ERROR: :load requires exactly one path argument\n")
			return true
		}
		src, err := os.ReadFile(words[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return true
		}
		tokens := lexer.FilterSignificant(lexer.Scan(string(src)))
		prog, synErrs := parser.Parse(tokens)
		if len(synErrs) > 0 {
			for _, e := range synErrs {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", e.Error())
			}
			return true
		}
		result := semantic.Analyze(prog)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", e.Error())
		}
		if len(result.Errors) == 0 {
			printAnnotated(os.Stdout, result.Annotated, 0)
		}
		return true
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unrecognized REPL command %q\n", words[0])
		return true
	}
}
