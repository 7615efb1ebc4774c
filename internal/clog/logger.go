package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger handles leveled logging with support for multiple outputs.
//
// A Logger created by Named holds no outputs of its own; it prefixes each
// message with its component name and forwards it to its parent.
type Logger struct {
	mu         sync.Mutex
	level      Level     // minimum level to log
	fileWriter io.Writer // always receives logs at or above level
	errWriter  io.Writer // receives warn/error unless daemonMode
	daemonMode bool      // set by Configure for "serve --daemon"

	parent *Logger
	prefix string
}

// NewLogger creates a new logger with default settings.
// By default, logs go to stderr at Info level.
func NewLogger() *Logger {
	return &Logger{
		level:     LevelInfo,
		errWriter: os.Stderr,
	}
}

// Named returns a child logger that tags every message with "[name]".
// Level and outputs are taken from l at write time, so later calls to
// SetLevel or SetFileOutput on l also apply to the child.
func (l *Logger) Named(name string) *Logger {
	return &Logger{parent: l, prefix: "[" + name + "] "}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.root().setLevel(level)
}

func (l *Logger) setLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFileOutput sets the file writer for log output.
// Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileWriter = w
}

// SetErrOutput sets the stderr writer for warn/error output in CLI mode.
// Pass nil to disable stderr logging.
func (l *Logger) SetErrOutput(w io.Writer) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errWriter = w
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// root walks up the Named chain to the logger that owns the outputs.
func (l *Logger) root() *Logger {
	for l.parent != nil {
		l = l.parent
	}
	return l
}

func (l *Logger) log(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	prefix := ""
	for n := l; n.parent != nil; n = n.parent {
		prefix = n.prefix + prefix
	}
	l.root().write(level, prefix+msg)
}

// write sends an already formatted message to the configured outputs.
func (l *Logger) write(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	if l.fileWriter != nil {
		_, _ = fmt.Fprintf(l.fileWriter, "%s [%s] %s\n", timestamp, level, msg)
	}

	// stderr gets warn/error only, without timestamp
	if !l.daemonMode && l.errWriter != nil && level >= LevelWarn {
		_, _ = fmt.Fprintf(l.errWriter, "[%s] %s\n", level, msg)
	}
}

// OpenLogFile opens a log file for writing, creating parent directories if needed.
// The file is opened in append mode.
func OpenLogFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return f, nil
}

// StateDir returns the remexec state directory following XDG conventions:
// $XDG_STATE_HOME/remexec, or ~/.local/state/remexec.
func StateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "remexec")
}

// DefaultLogPath returns the default operational log path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "remexec.log")
}

// DefaultAuditPath returns the default execution audit log path.
func DefaultAuditPath() string {
	return filepath.Join(StateDir(), "audit.log")
}
