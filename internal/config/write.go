package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrExists is returned by WriteDefault when the file is already present.
var ErrExists = errors.New("config file already exists")

// WriteDefault creates the configuration file at path (or Path() when empty)
// with the commented default template. It refuses to overwrite an existing
// file. The file is written with 0600 permissions.
func WriteDefault(path string) (string, error) {
	if path == "" {
		path = Path()
		if err := EnsureDir(); err != nil {
			return "", err
		}
	}

	_, err := os.Stat(path)
	if err == nil {
		return path, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return "", fmt.Errorf("write default config: %w", err)
	}
	return path, nil
}

// defaultConfigTemplate is written by "remexec config init". Every value is
// commented out so the file documents the defaults without pinning them.
const defaultConfigTemplate = `# remexec configuration
#
# Values shown are the defaults. Environment variables override the file:
#   REMEXEC_LISTEN, REMEXEC_SHELL, REMEXEC_LOG_LEVEL

server:
  # Address the HTTP endpoint listens on.
  # listen: "0.0.0.0:3000"

  # Time allowed to read request headers.
  # read_header_timeout: 30s

  # How long "serve" waits for in-flight requests on SIGINT/SIGTERM.
  # shutdown_timeout: 30s

  # Serve Prometheus metrics on GET /metrics.
  # metrics: true

executor:
  # Commands run as "<shell> -c <command>".
  # shell: sh

  # After a command exits or is killed, how long to keep reading output
  # that background processes still hold open.
  # wait_delay: 2s

log:
  # One of: debug, info, warn, error.
  # level: info

  # Operational log file. Defaults to $XDG_STATE_HOME/remexec/remexec.log.
  # file: ~/.local/state/remexec/remexec.log

audit:
  # One line per execution event (request, completion, timeout, error).
  # enabled: true
  # file: ~/.local/state/remexec/audit.log
`
