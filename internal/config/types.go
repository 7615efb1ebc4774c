// Package config provides the remexec configuration types and loads them
// from a YAML file, with environment overrides.
package config

import "time"

// Config is the top-level remexec configuration.
// It is typically stored at ~/.config/remexec/config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Executor ExecutorConfig `yaml:"executor,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
	Audit    AuditConfig    `yaml:"audit,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen            string `yaml:"listen,omitempty"`
	ReadHeaderTimeout string `yaml:"read_header_timeout,omitempty"`
	ShutdownTimeout   string `yaml:"shutdown_timeout,omitempty"`

	// Metrics enables GET /metrics. Nil means the default (enabled).
	Metrics *bool `yaml:"metrics,omitempty"`
}

// ExecutorConfig contains command execution settings.
type ExecutorConfig struct {
	Shell     string `yaml:"shell,omitempty"`
	WaitDelay string `yaml:"wait_delay,omitempty"`
}

// LogConfig contains operational logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// AuditConfig contains execution audit log settings.
type AuditConfig struct {
	// Enabled turns the audit log on or off. Nil means the default (enabled).
	Enabled *bool  `yaml:"enabled,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// IsEnabled reports whether execution events should be audited.
func (c AuditConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// MetricsEnabled reports whether GET /metrics should be served.
func (c ServerConfig) MetricsEnabled() bool {
	return c.Metrics == nil || *c.Metrics
}

// ReadHeaderTimeoutDuration returns the parsed read header timeout.
// The value must already have passed Validate.
func (c ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout, defaultReadHeaderTimeout)
}

// ShutdownTimeoutDuration returns the parsed graceful shutdown timeout.
func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout, defaultShutdownTimeout)
}

// WaitDelayDuration returns the parsed output wait delay.
func (c ExecutorConfig) WaitDelayDuration() time.Duration {
	return mustDuration(c.WaitDelay, defaultWaitDelay)
}

// mustDuration parses s, falling back to def when s is empty or invalid.
func mustDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
