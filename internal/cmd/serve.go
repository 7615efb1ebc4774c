package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdg/remexec/internal/audit"
	"github.com/xdg/remexec/internal/clog"
	"github.com/xdg/remexec/internal/config"
	"github.com/xdg/remexec/internal/executor"
	"github.com/xdg/remexec/internal/server"
	"github.com/xdg/remexec/internal/term"
)

var (
	serveListen  string
	serveEnvFile string
	serveDaemon  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the execution server",
	Long: `Run the HTTP execution server in the foreground until SIGINT or SIGTERM.

Requests are accepted on POST /endpoint. Prometheus metrics are served on
GET /metrics unless disabled in the config, and GET /healthz reports liveness.

On shutdown, in-flight requests are given server.shutdown_timeout to finish.
Commands started in the background (timeout 0) get what is left of that
period to exit and are then left running.

With --daemon, warnings and errors go only to log.file instead of also
being copied to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", "", "load REMEXEC_* variables from a dotenv file")
	serveCmd.Flags().BoolVar(&serveDaemon, "daemon", false, "log only to log.file, never to stderr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveEnvFile != "" {
		if err := config.LoadEnvFile(serveEnvFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}

	if err := configureLogging(cfg.Log, debugFlag, serveDaemon); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

// configureLogging points the global logger at the configured file. debug
// overrides log.level; daemon keeps warnings off stderr.
func configureLogging(lc config.LogConfig, debug, daemon bool) error {
	level := clog.ParseLevel(lc.Level)
	if debug {
		level = clog.LevelDebug
	}
	if err := clog.Configure(clog.Options{Level: level, File: lc.File, Daemon: daemon}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	return nil
}

// serve runs the server described by cfg until ctx is done.
func serve(ctx context.Context, cfg *config.Config) error {
	opts := []executor.Option{
		executor.WithShell(cfg.Executor.Shell),
		executor.WithWaitDelay(cfg.Executor.WaitDelayDuration()),
	}

	if cfg.Audit.IsEnabled() {
		auditFile, err := clog.OpenLogFile(cfg.Audit.File)
		if err != nil {
			clog.Warn("failed to open audit log file %s: %v", cfg.Audit.File, err)
			term.Warn("audit log disabled: %v", err)
		} else {
			defer func() { _ = auditFile.Close() }()
			opts = append(opts, executor.WithAuditLogger(audit.NewLogger(auditFile)))
			clog.Info("audit logging enabled: %s", cfg.Audit.File)
		}
	}

	engine := executor.NewEngine(opts...)
	srv := server.NewServer(engine)
	srv.Addr = cfg.Server.Listen
	srv.Metrics = cfg.Server.MetricsEnabled()
	srv.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeoutDuration()

	if err := srv.Start(); err != nil {
		return err
	}
	term.Notice("listening on %s (shell %s, pid %d)", srv.ListenAddr(), cfg.Executor.Shell, os.Getpid())

	<-ctx.Done()
	clog.Debug("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	if err := engine.WaitDetached(shutdownCtx); err != nil {
		clog.Info("leaving background commands running: %v", err)
	}
	clog.Debug("server stopped")
	return nil
}
