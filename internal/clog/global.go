package clog

import (
	"errors"
	"io"
	"os"
)

// std backs the package-level functions and every logger returned by Named.
var std = NewLogger()

// ErrDaemonNoFile is returned by Configure when daemon mode is requested
// without a log file; every message would be dropped.
var ErrDaemonNoFile = errors.New("daemon mode requires a log file")

// Options configures the global logger.
type Options struct {
	Level Level

	// File receives every message at or above Level. Empty keeps the
	// current file output (none by default).
	File string

	// Daemon stops warnings and errors from being copied to stderr, for a
	// server running detached from any terminal.
	Daemon bool
}

// Configure applies opts to the global logger. Component loggers already
// obtained from Named pick up the change.
func Configure(opts Options) error {
	if opts.Daemon && opts.File == "" {
		return ErrDaemonNoFile
	}

	var file io.Writer
	if opts.File != "" {
		f, err := OpenLogFile(opts.File)
		if err != nil {
			return err
		}
		file = f
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = opts.Level
	std.daemonMode = opts.Daemon
	if file != nil {
		std.fileWriter = file
	}
	return nil
}

// Named returns a component logger bound to the global logger.
func Named(name string) *Logger {
	return std.Named(name)
}

// SetLevel sets the minimum level of the global logger.
func SetLevel(level Level) {
	std.SetLevel(level)
}

func Debug(format string, args ...any) { std.Debug(format, args...) }
func Info(format string, args ...any)  { std.Info(format, args...) }
func Warn(format string, args ...any)  { std.Warn(format, args...) }
func Error(format string, args ...any) { std.Error(format, args...) }

// Close closes the log file opened by Configure, if any.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if closer, ok := std.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset replaces the global logger with a fresh one writing to stderr.
func Reset() {
	std = NewLogger()
}

// Discard silences the global logger.
func Discard() {
	std.SetFileOutput(io.Discard)
	std.SetErrOutput(io.Discard)
}

// TestLogger returns a debug-level logger that writes everything to w.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetFileOutput(w)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)
	return l
}

// Writer returns an io.Writer that logs each write through the global
// logger at level, without its trailing newline. It is meant for
// http.Server.ErrorLog.
func Writer(level Level) io.Writer {
	return levelWriter(level)
}

type levelWriter Level

func (w levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	std.write(Level(w), msg)
	return len(p), nil
}

func init() {
	std.SetErrOutput(os.Stderr)
}
