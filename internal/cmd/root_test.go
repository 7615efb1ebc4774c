package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xdg/remexec/internal/term"
)

// runCLI executes the root command with args and returns what was written
// to stdout and stderr. Flag variables are reset first because cobra keeps
// them across Execute calls.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	debugFlag, quietFlag, configFlag = false, false, ""
	serveListen, serveEnvFile, serveDaemon = "", "", false
	execServer, execTimeout, execJSON = "", 0, false

	var out, errOut bytes.Buffer
	term.SetOutput(&out)
	term.SetErrOutput(&errOut)
	t.Cleanup(term.Reset)

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("root command --help returned error: %v", err)
	}

	for _, expected := range []string{"remexec", "timeout", "Usage:", "Available Commands:", "serve", "exec", "config"} {
		if !strings.Contains(stdout, expected) {
			t.Errorf("help output missing expected string %q\nGot: %s", expected, stdout)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("root command --version returned error: %v", err)
	}
	if !strings.Contains(stdout, "remexec") {
		t.Errorf("version output missing 'remexec'\nGot: %s", stdout)
	}
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "frobnicate")
	if err == nil {
		t.Error("unknown command should fail")
	}
}
