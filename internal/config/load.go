package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/remexec/internal/clog"
	"github.com/xdg/remexec/internal/pathutil"
)

// Load reads the configuration file at path, or at Path() when path is
// empty. A missing file is not an error: the defaults are used.
//
// The result has defaults applied, REMEXEC_* environment overrides applied,
// has been validated, and has ~ expanded in all file paths.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	clog.Debug("config: loading %s", path)

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		clog.Debug("config: file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

// expandPaths expands ~ to the home directory in all path fields.
func expandPaths(cfg *Config) {
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Audit.File = pathutil.ExpandHome(cfg.Audit.File)
}
