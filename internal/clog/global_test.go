package clog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureGlobal points the global logger at two buffers, at debug level,
// until the test ends.
func captureGlobal(t *testing.T) (file, stderr *bytes.Buffer) {
	t.Helper()
	file, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	std = NewLogger()
	std.SetFileOutput(file)
	std.SetErrOutput(stderr)
	std.SetLevel(LevelDebug)
	t.Cleanup(Reset)
	return file, stderr
}

func TestGlobalFunctions(t *testing.T) {
	file, _ := captureGlobal(t)

	Debug("debug %s", "msg")
	Info("info %s", "msg")
	Warn("warn %s", "msg")
	Error("error %s", "msg")

	for _, want := range []string{"[DEBUG] debug msg", "[INFO] info msg", "[WARN] warn msg", "[ERROR] error msg"} {
		if !strings.Contains(file.String(), want) {
			t.Errorf("output missing %q:\n%s", want, file.String())
		}
	}
}

func TestConfigure_File(t *testing.T) {
	defer Reset()

	logPath := filepath.Join(t.TempDir(), "state", "remexec.log")
	if err := Configure(Options{Level: LevelDebug, File: logPath}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	defer func() { _ = Close() }()

	Debug("started pid=%d", 42)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "[DEBUG] started pid=42") {
		t.Errorf("log file = %q", content)
	}
}

func TestConfigure_Daemon(t *testing.T) {
	_, stderr := captureGlobal(t)

	logPath := filepath.Join(t.TempDir(), "remexec.log")
	if err := Configure(Options{Level: LevelInfo, File: logPath, Daemon: true}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	defer func() { _ = Close() }()

	Named("executor").Warn("kill process group pid=%d", 7)

	if stderr.Len() != 0 {
		t.Errorf("daemon mode wrote to stderr: %q", stderr.String())
	}
	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "[WARN] [executor] kill process group pid=7") {
		t.Errorf("log file = %q", content)
	}
}

func TestConfigure_DaemonNeedsFile(t *testing.T) {
	defer Reset()

	err := Configure(Options{Level: LevelInfo, Daemon: true})
	if !errors.Is(err, ErrDaemonNoFile) {
		t.Errorf("Configure() error = %v, want ErrDaemonNoFile", err)
	}
}

func TestConfigure_EmptyFileKeepsStderr(t *testing.T) {
	_, stderr := captureGlobal(t)

	if err := Configure(Options{Level: LevelWarn}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	Info("hidden")
	Error("shown")

	if got := stderr.String(); got != "[ERROR] shown\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestConfigure_BadPath(t *testing.T) {
	defer Reset()

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Configure(Options{File: filepath.Join(blocker, "remexec.log")}); err == nil {
		t.Error("Configure() should fail when the log directory cannot be created")
	}
}

func TestDiscard(t *testing.T) {
	defer Reset()
	Discard()

	Warn("nothing to see")
	Error("nothing to see")
}

func TestWriter(t *testing.T) {
	file, _ := captureGlobal(t)

	w := Writer(LevelWarn)
	n, err := w.Write([]byte("http: TLS handshake error\n"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len("http: TLS handshake error\n") {
		t.Errorf("Write() n = %d", n)
	}

	if !strings.Contains(file.String(), "[WARN] http: TLS handshake error\n") {
		t.Errorf("output = %q", file.String())
	}
	if strings.Count(file.String(), "\n") != 1 {
		t.Errorf("expected a single line, got %q", file.String())
	}
}

func TestNamedUsesGlobal(t *testing.T) {
	file, _ := captureGlobal(t)

	Named("audit").Debug("opened %s", "audit.log")

	if !strings.Contains(file.String(), "[DEBUG] [audit] opened audit.log") {
		t.Errorf("expected named message via global logger, got: %s", file.String())
	}
}

func TestSetLevel(t *testing.T) {
	file, _ := captureGlobal(t)

	SetLevel(LevelError)
	Warn("filtered")
	if file.Len() != 0 {
		t.Errorf("warn logged at error level: %q", file.String())
	}
}
