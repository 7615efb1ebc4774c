// Package cmd implements the CLI commands for remexec.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/remexec/internal/clog"
	"github.com/xdg/remexec/internal/term"
	"github.com/xdg/remexec/internal/version"
)

var (
	debugFlag  bool
	quietFlag  bool
	configFlag string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "remexec",
	Short: "Remote shell command execution service",
	Long: `remexec runs shell commands on this host on behalf of remote callers.

A caller posts a command and a timeout in seconds. With a timeout of 0 the
command is started in the background and the call returns at once. With a
positive timeout the call waits for the command and returns its output and
exit status, or kills it when the timeout elapses.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if debugFlag {
			clog.SetLevel(clog.LevelDebug)
		}
		term.SetQuiet(quietFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress status messages")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/remexec/config.yaml)")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}
