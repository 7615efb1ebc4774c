package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/remexec/internal/config"
	"github.com/xdg/remexec/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage remexec's configuration.

The configuration file is stored at ~/.config/remexec/config.yaml
(or $XDG_CONFIG_HOME/remexec/config.yaml if XDG_CONFIG_HOME is set).
Use --config to point at another file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML: the config file merged over
the defaults, with REMEXEC_* environment overrides applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create a fully-commented configuration file with all default values.
If the file already exists, it is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.Path()
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	term.Printf("%s", data)
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) {
	term.Println(configPath())
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := config.WriteDefault(configFlag)
	if errors.Is(err, config.ErrExists) {
		term.Printf("Config already exists at: %s\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	term.Printf("Created default config at: %s\n", path)
	return nil
}
