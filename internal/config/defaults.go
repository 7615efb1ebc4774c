package config

import (
	"time"

	"github.com/xdg/remexec/internal/clog"
)

const (
	defaultListen            = "0.0.0.0:3000"
	defaultReadHeaderTimeout = 30 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
	defaultShell             = "sh"
	defaultWaitDelay         = 2 * time.Second
	defaultLogLevel          = "info"
)

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with all defaults populated.
// The log and audit files live under clog.StateDir().
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            defaultListen,
			ReadHeaderTimeout: defaultReadHeaderTimeout.String(),
			ShutdownTimeout:   defaultShutdownTimeout.String(),
			Metrics:           boolPtr(true),
		},
		Executor: ExecutorConfig{
			Shell:     defaultShell,
			WaitDelay: defaultWaitDelay.String(),
		},
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  clog.DefaultLogPath(),
		},
		Audit: AuditConfig{
			Enabled: boolPtr(true),
			File:    clog.DefaultAuditPath(),
		},
	}
}

// applyDefaults fills every unset field of cfg from DefaultConfig.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
	if cfg.Server.ReadHeaderTimeout == "" {
		cfg.Server.ReadHeaderTimeout = def.Server.ReadHeaderTimeout
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Server.Metrics == nil {
		cfg.Server.Metrics = def.Server.Metrics
	}
	if cfg.Executor.Shell == "" {
		cfg.Executor.Shell = def.Executor.Shell
	}
	if cfg.Executor.WaitDelay == "" {
		cfg.Executor.WaitDelay = def.Executor.WaitDelay
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Audit.Enabled == nil {
		cfg.Audit.Enabled = def.Audit.Enabled
	}
	if cfg.Audit.File == "" {
		cfg.Audit.File = def.Audit.File
	}
}
