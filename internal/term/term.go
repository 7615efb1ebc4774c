// Package term writes user-facing output for the remexec CLI. Operational
// logging goes through internal/clog instead.
//
// Results (config dumps, --json envelopes, remote command output) go to
// stdout or stderr verbatim. Everything remexec says on its own behalf goes
// to stderr with a "remexec: " prefix:
//   - Notice: status lines, suppressed by --quiet
//   - Warn, Error: never suppressed
package term

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const prefix = "remexec: "

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	quiet  bool
)

// SetQuiet enables or disables --quiet.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// Quiet reports whether notices are suppressed.
func Quiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetOutput redirects stdout. nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = orDefault(w, os.Stdout)
}

// SetErrOutput redirects stderr. nil restores os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stderr = orDefault(w, os.Stderr)
}

func orDefault(w io.Writer, def *os.File) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// Printf writes a result to stdout.
func Printf(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stdout, format, a...)
}

// Println writes a result line to stdout.
func Println(a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintln(stdout, a...)
}

// Notice writes a status line to stderr unless quiet.
func Notice(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return
	}
	say("", format, a...)
}

// Warn writes a warning line to stderr.
func Warn(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	say("warning: ", format, a...)
}

// Error writes an error line to stderr.
func Error(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	say("error: ", format, a...)
}

// say writes one prefixed line to stderr. mu must be held.
func say(kind, format string, a ...any) {
	_, _ = fmt.Fprintf(stderr, "%s%s%s\n", prefix, kind, fmt.Sprintf(format, a...))
}

// Stdout returns the current stdout writer, for copying remote output.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

// Stderr returns the current stderr writer.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// Reset restores os.Stdout, os.Stderr and clears quiet.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout, stderr, quiet = os.Stdout, os.Stderr, false
}

// Discard drops all output.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout, stderr = io.Discard, io.Discard
}
