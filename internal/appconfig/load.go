package appconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides: TERMINAL_MCP_MAX_SESSIONS,
// TERMINAL_MCP_LOG_LEVEL, and so on.
const envPrefix = "TERMINAL_MCP"

// Load reads configuration from the provided YAML path. An empty path loads
// defaults plus environment overrides; a missing explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("headless", cfg.Headless)
	v.SetDefault("max_sessions", cfg.MaxSessions)
	v.SetDefault("ring_capacity", cfg.RingCapacity)
	v.SetDefault("settle_ms", cfg.SettleMS)
	v.SetDefault("poll_ms", cfg.PollMS)
	v.SetDefault("wait_max_timeout_ms", cfg.WaitMaxTimeoutMS)
	v.SetDefault("command_whitelist", cfg.CommandWhitelist)
	v.SetDefault("reap_on_exit", cfg.ReapOnExit)
	v.SetDefault("recording_dir", cfg.RecordingDir)
	v.SetDefault("terminal_emulator", cfg.TerminalEmulator)
	v.SetDefault("log_level", cfg.LogLevel)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", c.MaxSessions)
	}
	if c.RingCapacity < 1024 {
		return fmt.Errorf("ring_capacity must be at least 1024 bytes, got %d", c.RingCapacity)
	}
	if c.SettleMS < 0 || c.PollMS < 1 {
		return fmt.Errorf("settle_ms/poll_ms out of range")
	}
	switch c.LogLevel {
	case "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
