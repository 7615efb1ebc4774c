// Package main is the entry point for the remexec CLI.
package main

import (
	"errors"
	"os"

	"github.com/xdg/remexec/internal/cmd"
	"github.com/xdg/remexec/internal/term"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		term.Error("%v", err)
		os.Exit(1)
	}
}
