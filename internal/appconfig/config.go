// Package appconfig loads the terminal-mcp configuration file and applies
// environment overrides.
package appconfig

// Config is the top-level application configuration.
type Config struct {
	Headless         bool     `mapstructure:"headless" yaml:"headless"`
	MaxSessions      int      `mapstructure:"max_sessions" yaml:"max_sessions"`
	RingCapacity     int      `mapstructure:"ring_capacity" yaml:"ring_capacity"`
	SettleMS         int      `mapstructure:"settle_ms" yaml:"settle_ms"`
	PollMS           int      `mapstructure:"poll_ms" yaml:"poll_ms"`
	WaitMaxTimeoutMS int      `mapstructure:"wait_max_timeout_ms" yaml:"wait_max_timeout_ms"`
	CommandWhitelist []string `mapstructure:"command_whitelist" yaml:"command_whitelist"`
	ReapOnExit       bool     `mapstructure:"reap_on_exit" yaml:"reap_on_exit"`
	RecordingDir     string   `mapstructure:"recording_dir" yaml:"recording_dir"`
	TerminalEmulator string   `mapstructure:"terminal_emulator" yaml:"terminal_emulator"`
	LogLevel         string   `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxSessions:      16,
		RingCapacity:     1 << 20,
		SettleMS:         50,
		PollMS:           20,
		WaitMaxTimeoutMS: 300000,
		LogLevel:         "info",
	}
}
