// Package audit records the lifecycle of every command execution.
// Log entries follow a key=value format suitable for grepping and parsing.
package audit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of execution event.
type EventType string

// Event types for command executions.
const (
	EventRequest  EventType = "REQUEST"
	EventComplete EventType = "COMPLETE"
	EventTimeout  EventType = "TIMEOUT"
	EventError    EventType = "ERROR"

	// EventDetach is logged once a fire-and-forget command has been spawned,
	// EventExit once it has been reaped.
	EventDetach EventType = "DETACH"
	EventExit   EventType = "EXIT"
)

// Event is one audit log entry.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// ID identifies the execution; all events of one execution share it.
	ID string

	// Mode is "wait" or "detach".
	Mode string

	Cmd string

	// Timeout is the requested bound in seconds (REQUEST, TIMEOUT).
	Timeout uint32

	// PID is the child process ID (DETACH, EXIT, TIMEOUT).
	PID int

	// ExitCode is the command exit code (COMPLETE, EXIT).
	ExitCode int

	// Duration is the wall time of the execution (COMPLETE, TIMEOUT).
	Duration time.Duration

	// Code and Reason describe a failure (ERROR).
	Code   int64
	Reason string
}

// Format returns the log entry as a single line.
// Format: 2024-01-15T14:32:05Z EXEC REQUEST id=... mode=wait cmd="..." timeout=5
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" EXEC ")
	b.WriteString(string(e.Type))

	b.WriteString(" id=")
	b.WriteString(e.ID)
	if e.Mode != "" {
		b.WriteString(" mode=")
		b.WriteString(e.Mode)
	}
	b.WriteString(" cmd=")
	b.WriteString(quoteValue(e.Cmd))

	e.formatTypeSpecificFields(&b)

	return b.String()
}

func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventRequest:
		writeIntField(b, "timeout", int64(e.Timeout))
	case EventComplete:
		writeIntField(b, "exit", int64(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout:
		writeIntField(b, "pid", int64(e.PID))
		writeIntField(b, "timeout", int64(e.Timeout))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventError:
		writeIntField(b, "code", e.Code)
		writeOptionalField(b, "reason", e.Reason)
	case EventDetach:
		writeIntField(b, "pid", int64(e.PID))
	case EventExit:
		writeIntField(b, "pid", int64(e.PID))
		writeIntField(b, "exit", int64(e.ExitCode))
	}
}

func writeIntField(b *strings.Builder, key string, v int64) {
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(strconv.FormatInt(v, 10))
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue always quotes, so spaces and quotes in commands stay on one field.
func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Log writes an event to the audit log. A zero Timestamp is filled in.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs an EXEC REQUEST event.
func (l *Logger) LogRequest(id, mode, cmd string, timeout uint32) error {
	return l.Log(&Event{Type: EventRequest, ID: id, Mode: mode, Cmd: cmd, Timeout: timeout})
}

// LogComplete logs an EXEC COMPLETE event for a bounded-wait execution.
func (l *Logger) LogComplete(id, cmd string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{Type: EventComplete, ID: id, Mode: "wait", Cmd: cmd, ExitCode: exitCode, Duration: duration})
}

// LogTimeout logs an EXEC TIMEOUT event. pid is the killed process.
func (l *Logger) LogTimeout(id, cmd string, pid int, timeout uint32, duration time.Duration) error {
	return l.Log(&Event{Type: EventTimeout, ID: id, Mode: "wait", Cmd: cmd, PID: pid, Timeout: timeout, Duration: duration})
}

// LogError logs an EXEC ERROR event.
func (l *Logger) LogError(id, mode, cmd string, code int64, reason string) error {
	return l.Log(&Event{Type: EventError, ID: id, Mode: mode, Cmd: cmd, Code: code, Reason: reason})
}

// LogDetach logs an EXEC DETACH event.
func (l *Logger) LogDetach(id, cmd string, pid int) error {
	return l.Log(&Event{Type: EventDetach, ID: id, Mode: "detach", Cmd: cmd, PID: pid})
}

// LogExit logs an EXEC EXIT event for a reaped detached process.
func (l *Logger) LogExit(id, cmd string, pid, exitCode int) error {
	return l.Log(&Event{Type: EventExit, ID: id, Mode: "detach", Cmd: cmd, PID: pid, ExitCode: exitCode})
}
