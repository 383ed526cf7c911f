// Package version contains information on the current version of dreamc. It
// is split from the main program for easy use.
package version

// Current is the string representing the current version of the dreamc
// toolchain, shared by the compiler CLI, REPL, and compile server.
const Current = "0.1.0"

// ServerCurrent is the string representing the current version of the
// dreamc compile server specifically, reported by its --version flag and
// included in its startup log line.
const ServerCurrent = "0.1.0"
