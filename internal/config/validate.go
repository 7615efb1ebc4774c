package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that all fields of cfg contain valid values:
//   - server.listen is host:port or :port with port 0-65535
//   - duration fields parse with time.ParseDuration and are not negative
//   - executor.shell is non-empty once defaults are applied
//   - log.level is one of: debug, info, warn, error (if non-empty)
//
// Returns nil if the config is valid, or an error naming the invalid field.
func Validate(cfg *Config) error {
	if cfg.Server.Listen != "" {
		if err := validateListenAddr(cfg.Server.Listen, "server.listen"); err != nil {
			return err
		}
	}
	if err := validateDuration(cfg.Server.ReadHeaderTimeout, "server.read_header_timeout"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Executor.WaitDelay, "executor.wait_delay"); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Executor.Shell) == "" && cfg.Executor.Shell != "" {
		return fmt.Errorf("executor.shell: must not be blank")
	}
	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

// validateListenAddr validates a listen address in the format ":port" or "host:port".
// Port 0 is accepted and asks the OS for a free port.
func validateListenAddr(addr, field string) error {
	colonIdx := strings.LastIndex(addr, ":")
	if colonIdx == -1 {
		return fmt.Errorf("%s: invalid format %q, expected host:port or :port", field, addr)
	}

	portStr := addr[colonIdx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("%s: invalid port %q in %q", field, portStr, addr)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("%s: invalid port number %d, must be 0-65535", field, port)
	}
	return nil
}

// validateDuration validates an optional duration string.
func validateDuration(d, field string) error {
	if d == "" {
		return nil
	}
	v, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if v < 0 {
		return fmt.Errorf("%s: must be non-negative, got %q", field, d)
	}
	return nil
}
