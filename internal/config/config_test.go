package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Tap.X != nil || cfg.ADB.Serial != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tap]
x = 540
interval = 0.01
jitter = 4
total-taps = 100000
single-point = true
max-rate = 120.5

[adb]
serial = "emulator-5554"
timeout = 2.5

[log]
level = "debug"

[ui]
tui = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Tap.X == nil || *cfg.Tap.X != 540 {
		t.Fatalf("unexpected x: %v", cfg.Tap.X)
	}
	if cfg.Tap.Y != nil {
		t.Fatalf("expected y to stay unset")
	}
	if cfg.Tap.Interval == nil || *cfg.Tap.Interval != 0.01 {
		t.Fatalf("unexpected interval: %v", cfg.Tap.Interval)
	}
	if cfg.Tap.TotalTaps == nil || *cfg.Tap.TotalTaps != 100000 {
		t.Fatalf("unexpected total taps: %v", cfg.Tap.TotalTaps)
	}
	if cfg.Tap.SinglePoint == nil || !*cfg.Tap.SinglePoint {
		t.Fatalf("unexpected single-point: %v", cfg.Tap.SinglePoint)
	}
	if cfg.Tap.MaxRate == nil || *cfg.Tap.MaxRate != 120.5 {
		t.Fatalf("unexpected max-rate: %v", cfg.Tap.MaxRate)
	}
	if cfg.ADB.Serial == nil || *cfg.ADB.Serial != "emulator-5554" {
		t.Fatalf("unexpected serial: %v", cfg.ADB.Serial)
	}
	if cfg.ADB.Timeout == nil || *cfg.ADB.Timeout != 2.5 {
		t.Fatalf("unexpected timeout: %v", cfg.ADB.Timeout)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
	if cfg.UI.TUI == nil || !*cfg.UI.TUI {
		t.Fatalf("unexpected tui: %v", cfg.UI.TUI)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tap]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDefaultConfigPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := filepath.Join(dir, "adbtap", "config.toml")
	if got := DefaultConfigPath(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
