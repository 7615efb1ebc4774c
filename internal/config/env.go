package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvListen   = "REMEXEC_LISTEN"
	EnvShell    = "REMEXEC_SHELL"
	EnvLogLevel = "REMEXEC_LOG_LEVEL"
)

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set are left untouched.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields of cfg from REMEXEC_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv(EnvShell); v != "" {
		cfg.Executor.Shell = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}
