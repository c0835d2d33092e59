// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tap TapConfig `toml:"tap"`
	ADB ADBConfig `toml:"adb"`
	Log LogConfig `toml:"log"`
	UI  UIConfig  `toml:"ui"`
}

// TapConfig maps tapping settings.
type TapConfig struct {
	X           *int     `toml:"x"`
	Y           *int     `toml:"y"`
	Interval    *float64 `toml:"interval"`
	Jitter      *int     `toml:"jitter"`
	Duration    *int     `toml:"duration"`
	TotalTaps   *int     `toml:"total-taps"`
	SinglePoint *bool    `toml:"single-point"`
	Preset      *bool    `toml:"preset"`
	Radius      *int     `toml:"radius"`
	MaxRate     *float64 `toml:"max-rate"`
	StatsEvery  *int     `toml:"stats-every"`
	Seed        *int64   `toml:"seed"`
}

// ADBConfig maps device bridge settings.
type ADBConfig struct {
	Path    *string  `toml:"path"`
	Serial  *string  `toml:"serial"`
	Timeout *float64 `toml:"timeout"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// UIConfig maps terminal UI settings.
type UIConfig struct {
	TUI *bool `toml:"tui"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
