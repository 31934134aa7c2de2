// Command terminal-mcp exposes interactive terminal sessions to AI agents as
// structured, queryable state over line-delimited JSON-RPC on stdin/stdout.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/danielgatis/terminal-mcp/internal/appconfig"
	"github.com/danielgatis/terminal-mcp/session"
)

// version is stamped by the release build.
var version = "dev"

var errConfig = errors.New("configuration error")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errConfig) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	var (
		headless   bool
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:     "terminal-mcp",
		Short:   "Drive interactive terminal applications as structured state",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(headless, configPath, logLevel)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "force headless mode for all sessions")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log verbosity (error, warn, info, debug, trace)")

	return cmd
}

func run(headless bool, configPath, logLevel string) error {
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if headless {
		cfg.Headless = true
	}

	// Flag beats config; TERMINAL_MCP_LOG beats both so a wrapper can crank
	// verbosity without touching the invocation.
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if env := os.Getenv("TERMINAL_MCP_LOG"); env != "" {
		level = env
	}

	// stdout carries only protocol frames; all diagnostics go to stderr.
	logOpts := pslog.Options{
		Mode:    pslog.ModeStructured,
		NoColor: true,
	}
	switch level {
	case "error":
		logOpts.MinLevel = pslog.ErrorLevel
	case "warn":
		logOpts.MinLevel = pslog.WarnLevel
	case "info", "":
		logOpts.MinLevel = pslog.InfoLevel
	case "debug":
		logOpts.MinLevel = pslog.DebugLevel
	case "trace":
		logOpts.MinLevel = pslog.TraceLevel
	default:
		return fmt.Errorf("%w: unknown log level %q", errConfig, level)
	}
	logger := pslog.NewWithOptions(os.Stderr, logOpts)

	mgr := session.NewManager(session.Options{
		MaxSessions:      cfg.MaxSessions,
		RingCapacity:     cfg.RingCapacity,
		SettleTimeout:    time.Duration(cfg.SettleMS) * time.Millisecond,
		PollInterval:     time.Duration(cfg.PollMS) * time.Millisecond,
		MaxWaitTimeout:   time.Duration(cfg.WaitMaxTimeoutMS) * time.Millisecond,
		CommandWhitelist: cfg.CommandWhitelist,
		ReapOnExit:       cfg.ReapOnExit,
		ForceHeadless:    cfg.Headless,
		RecordingDir:     cfg.RecordingDir,
		TerminalEmulator: cfg.TerminalEmulator,
		Logger:           logger,
	})
	defer mgr.CloseAll()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	srv := newRPCServer(mgr, logger)
	done := make(chan error, 1)
	go func() { done <- srv.serve(os.Stdin, os.Stdout) }()

	logger.Info("terminal-mcp ready", "version", version, "headless", cfg.Headless)

	select {
	case sig := <-sigs:
		logger.Info("shutting down", "signal", sig.String())
		return nil
	case err := <-done:
		if err != nil {
			logger.Error("transport failed", "err", err)
			return err
		}
		return nil
	}
}

