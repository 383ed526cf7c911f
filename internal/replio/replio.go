// Package replio contains identifiers used in getting dreamc REPL input
// from a terminal or other source of input. Adapted from the game-command
// reader in the teacher's internal/input package to the needs of an
// interactive Dream statement prompt.
package replio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	shellquote "github.com/kballard/go-shellquote"
)

// statementTerminator ends a multi-line block entered at the REPL prompt.
const statementTerminator = ";;"

// SourceReader reads one line of raw input at a time from some source.
type SourceReader interface {
	ReadLine() (string, error)
	Close() error
}

// DirectReader implements SourceReader by reading lines from any generic
// input stream. It does not sanitize control or escape sequences, so it is
// only suitable for non-interactive input such as a pipe or redirected
// file.
type DirectReader struct {
	r *bufio.Reader
}

// NewDirectReader wraps r in a buffered line reader.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{r: bufio.NewReader(r)}
}

func (dr *DirectReader) ReadLine() (string, error) {
	line, err := dr.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}

func (dr *DirectReader) Close() error {
	return nil
}

// InteractiveReader implements SourceReader using a Go implementation of
// GNU Readline, keeping input clear of typing/editing escape sequences and
// enabling command history. It should only be used when stdin is actually
// attached to a terminal.
type InteractiveReader struct {
	rl *readline.Instance
}

// NewInteractiveReader starts a readline instance with the given prompt.
func NewInteractiveReader(prompt string) (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &InteractiveReader{rl: rl}, nil
}

func (ir *InteractiveReader) ReadLine() (string, error) {
	return ir.rl.Readline()
}

func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}

func (ir *InteractiveReader) SetPrompt(p string) {
	ir.rl.SetPrompt(p)
}

// REPL accumulates lines from a SourceReader into complete Dream statements
// or REPL meta-commands.
type REPL struct {
	src SourceReader
}

// New picks an InteractiveReader when stdin is a terminal, and a
// DirectReader otherwise.
func New() (*REPL, error) {
	if readline.IsTerminal(int(os.Stdin.Fd())) {
		ir, err := NewInteractiveReader("dream> ")
		if err != nil {
			return nil, err
		}
		return &REPL{src: ir}, nil
	}
	return &REPL{src: NewDirectReader(os.Stdin)}, nil
}

// Close releases resources held by the underlying SourceReader.
func (r *REPL) Close() error {
	return r.src.Close()
}

// ReadStatement reads lines until a meta-command (one beginning with `:`)
// or a line ending in ";;" is seen, and returns the accumulated statement
// text with the terminator stripped. Blank lines between statements are
// skipped.
func (r *REPL) ReadStatement() (string, error) {
	var buf strings.Builder

	for {
		line, err := r.src.ReadLine()
		if err != nil {
			return "", err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" && buf.Len() == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, ":") && buf.Len() == 0 {
			return trimmed, nil
		}

		if strings.HasSuffix(trimmed, statementTerminator) {
			buf.WriteString(strings.TrimSuffix(trimmed, statementTerminator))
			return buf.String(), nil
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

// ParseMetaCommand splits a `:`-prefixed REPL command such as
// `:load path/to/file.dream` into words using shell-style quoting, so that
// paths containing spaces can be given in quotes.
func ParseMetaCommand(line string) ([]string, error) {
	return shellquote.Split(strings.TrimPrefix(line, ":"))
}
