package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/xdg/remexec/internal/api"
	"github.com/xdg/remexec/internal/client"
	"github.com/xdg/remexec/internal/term"
)

// Exit codes used by "remexec exec" when the remote command has no exit
// status of its own. They follow timeout(1).
const (
	ExitTimeout  = 124
	ExitSystem   = 125
	ExitRejected = 2
)

// EnvServer names the default server for "remexec exec".
const EnvServer = "REMEXEC_SERVER"

var (
	execServer  string
	execTimeout uint32
	execJSON    bool
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command>...",
	Short: "Run a command on a remexec server",
	Long: `Send a command to a remexec server and print the result.

The arguments after -- are joined with spaces and run by the server's shell.
With --timeout 0 (the default) the server starts the command in the
background and nothing is printed.

The exit code of this command mirrors the remote command's exit status.
A timeout exits with 124, and a server-side failure to run the command
exits with 125.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execServer, "server", "", "server address (default $"+EnvServer+" or localhost:3000)")
	execCmd.Flags().Uint32Var(&execTimeout, "timeout", 0, "seconds to wait for the command; 0 starts it in the background")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the raw response envelope")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	addr := execServer
	if addr == "" {
		addr = os.Getenv(EnvServer)
	}
	if addr == "" {
		addr = "localhost:3000"
	}

	resp, err := client.New(addr).Exec(cmd.Context(), strings.Join(args, " "), execTimeout)
	if err != nil {
		return err
	}

	if execJSON {
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		term.Println(string(data))
	} else {
		renderResponse(resp, isTerminal(os.Stderr))
	}

	if code := exitCode(resp); code != 0 {
		return NewExitCodeError(code)
	}
	return nil
}

// renderResponse prints a response for a human. Remote stdout and stderr
// are copied verbatim; the exit status line is added only on a terminal.
func renderResponse(resp *api.Response, tty bool) {
	switch d := resp.Data.(type) {
	case api.CommandOutput:
		_, _ = io.WriteString(term.Stdout(), d.Stdout)
		_, _ = io.WriteString(term.Stderr(), d.Stderr)
		if tty && d.ExitStatus != 0 {
			term.Notice("exit status %d", d.ExitStatus)
		}
	case api.CommandTimedOut:
		term.Warn("%s (after %ds, pid %d)", d.ErrorMessage, d.Time, d.CommandPID)
	case api.InternalError:
		if resp.Status == api.StatusGenericError {
			term.Error("request rejected: %s", d.ErrorMessage)
			return
		}
		term.Error("%s (code %d)", d.ErrorMessage, d.ErrorCode)
	}
}

// exitCode maps a response to the exit code of "remexec exec".
func exitCode(resp *api.Response) int {
	switch resp.Status {
	case api.StatusOk:
		d, _ := resp.Data.(api.CommandOutput)
		if d.ExitStatus < 0 || d.ExitStatus > 255 {
			return 1
		}
		return int(d.ExitStatus)
	case api.StatusTimeOut:
		return ExitTimeout
	case api.StatusSystemError:
		return ExitSystem
	default:
		return ExitRejected
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return xterm.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
