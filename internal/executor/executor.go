// Package executor runs shell commands as child processes and reports how
// they ended.
//
// A request with a zero timeout is fire-and-forget: the command is launched
// in the background and the caller gets an empty Completed result straight
// away. A request with a positive timeout waits for the command up to that
// many seconds; if the deadline passes first the whole process group is
// killed and reaped before TimedOut is returned.
package executor

import "context"

// TimeoutMessage is the fixed explanation carried by every TimedOut result.
const TimeoutMessage = "Command didn't finish before timeout. It was killed"

// Executor executes commands on the host system.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Request describes one command execution.
type Request struct {
	// Command is passed verbatim to "<shell> -c".
	Command string

	// Timeout is the wait bound in whole seconds. Zero means do not wait.
	Timeout uint32
}

// Mode selects how a request is executed.
type Mode string

// Execution modes.
const (
	ModeDetach Mode = "detach"
	ModeWait   Mode = "wait"
)

// Mode reports which execution mode the request selects.
func (r Request) Mode() Mode {
	if r.Timeout == 0 {
		return ModeDetach
	}
	return ModeWait
}

// Result is the outcome of an execution that did not fail at the system
// level. It is implemented only by Completed and TimedOut.
type Result interface {
	result()
}

// Completed reports a command that ran to completion, or a fire-and-forget
// command that was launched without capture (all fields zero).
type Completed struct {
	Stdout     string
	Stderr     string
	ExitStatus int32
}

// TimedOut reports a command that was killed because its deadline elapsed.
// The process has already been terminated and reaped.
type TimedOut struct {
	ElapsedSeconds int64
	Message        string
	ProcessID      uint32
}

func (Completed) result() {}
func (TimedOut) result()  {}
