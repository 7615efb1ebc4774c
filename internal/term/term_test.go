package term

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"
)

// capture redirects both streams to buffers for the rest of the test.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	SetOutput(out)
	SetErrOutput(errOut)
	t.Cleanup(Reset)
	return out, errOut
}

func TestResultsGoToStdout(t *testing.T) {
	out, errOut := capture(t)

	Printf("listen: %s\n", "0.0.0.0:3000")
	Println("/etc/remexec.yaml")

	if got, want := out.String(), "listen: 0.0.0.0:3000\n/etc/remexec.yaml\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q, want empty", errOut.String())
	}
}

func TestStderrLines(t *testing.T) {
	tests := []struct {
		name  string
		write func()
		want  string
	}{
		{"notice", func() { Notice("listening on %s", ":3000") }, "remexec: listening on :3000\n"},
		{"warn", func() { Warn("audit log disabled: %v", "permission denied") }, "remexec: warning: audit log disabled: permission denied\n"},
		{"error", func() { Error("exit code %d", 125) }, "remexec: error: exit code 125\n"},
		{"percent in args", func() { Notice("cmd %q", "printf '%d'") }, "remexec: cmd \"printf '%d'\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := capture(t)
			tt.write()
			if got := errOut.String(); got != tt.want {
				t.Errorf("stderr = %q, want %q", got, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("stdout = %q, want empty", out.String())
			}
		})
	}
}

func TestQuiet(t *testing.T) {
	out, errOut := capture(t)
	SetQuiet(true)

	if !Quiet() {
		t.Fatal("Quiet() = false after SetQuiet(true)")
	}

	Notice("listening")
	Println("result")
	Warn("still shown")
	Error("also shown")

	if out.String() != "result\n" {
		t.Errorf("stdout = %q, quiet must not drop results", out.String())
	}
	if got, want := errOut.String(), "remexec: warning: still shown\nremexec: error: also shown\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestStdoutStderrWriters(t *testing.T) {
	out, errOut := capture(t)
	SetQuiet(true)

	_, _ = io.WriteString(Stdout(), "remote out")
	_, _ = io.WriteString(Stderr(), "remote err")

	if out.String() != "remote out" || errOut.String() != "remote err" {
		t.Errorf("got stdout %q stderr %q", out.String(), errOut.String())
	}
}

func TestSetOutputNilRestoresDefault(t *testing.T) {
	capture(t)

	SetOutput(nil)
	SetErrOutput(nil)

	if Stdout() != os.Stdout {
		t.Error("SetOutput(nil) did not restore os.Stdout")
	}
	if Stderr() != os.Stderr {
		t.Error("SetErrOutput(nil) did not restore os.Stderr")
	}
}

func TestReset(t *testing.T) {
	capture(t)
	SetQuiet(true)

	Reset()

	if Quiet() {
		t.Error("Reset() left quiet enabled")
	}
	if Stdout() != os.Stdout || Stderr() != os.Stderr {
		t.Error("Reset() did not restore the standard streams")
	}
}

func TestDiscard(t *testing.T) {
	t.Cleanup(Reset)
	Discard()

	if Stdout() != io.Discard || Stderr() != io.Discard {
		t.Error("Discard() did not replace both streams")
	}
}

func TestConcurrentWrites(t *testing.T) {
	out, errOut := capture(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Println("r")
		}()
		go func() {
			defer wg.Done()
			Notice("n")
		}()
	}
	wg.Wait()

	if got := bytes.Count(out.Bytes(), []byte("r\n")); got != 50 {
		t.Errorf("stdout lines = %d, want 50", got)
	}
	if got := bytes.Count(errOut.Bytes(), []byte("remexec: n\n")); got != 50 {
		t.Errorf("stderr lines = %d, want 50", got)
	}
}
