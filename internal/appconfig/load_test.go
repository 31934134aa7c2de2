package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MaxSessions != 16 {
		t.Errorf("expected default max_sessions 16, got %d", cfg.MaxSessions)
	}
	if cfg.RingCapacity != 1<<20 {
		t.Errorf("expected default ring_capacity 1MiB, got %d", cfg.RingCapacity)
	}
	if cfg.SettleMS != 50 || cfg.PollMS != 20 {
		t.Errorf("unexpected timing defaults: settle=%d poll=%d", cfg.SettleMS, cfg.PollMS)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.Headless {
		t.Error("headless should default to false")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "max_sessions: 4\nheadless: true\ncommand_whitelist:\n  - sh\n  - htop\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MaxSessions != 4 {
		t.Errorf("expected max_sessions 4, got %d", cfg.MaxSessions)
	}
	if !cfg.Headless {
		t.Error("expected headless true")
	}
	if len(cfg.CommandWhitelist) != 2 || cfg.CommandWhitelist[0] != "sh" {
		t.Errorf("unexpected whitelist: %#v", cfg.CommandWhitelist)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for a missing explicit config path")
	}
}

func TestLoadValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_sessions: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for max_sessions 0")
	}

	if err := os.WriteFile(path, []byte("log_level: noisy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}
