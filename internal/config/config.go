// ABOUTME: Persistent user settings stored as TOML
// ABOUTME: Loads, clamps and saves tempo, volume and bar length between runs
package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Resonate-Protocol/metronome-go/pkg/metronome"
)

// EnvDir overrides the directory holding the config file
const EnvDir = "METRONOME_CONFIG"

const fileName = "config.toml"

// Config holds the persisted settings
type Config struct {
	Tempo  float64 `toml:"tempo"`
	Volume float64 `toml:"volume"`
	Beats  int     `toml:"beats"`

	// Optional, empty means built-in click / default backend
	Sample string `toml:"sample,omitempty"`
	Output string `toml:"output,omitempty"`
}

// Default returns the settings used when no file exists
func Default() Config {
	return Config{
		Tempo:  metronome.DefaultTempo,
		Volume: metronome.DefaultVolume,
		Beats:  metronome.DefaultBeats,
	}
}

// Path returns the config file location
func Path() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, fileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config directory: %w", err)
	}
	return filepath.Join(dir, "metronome", fileName), nil
}

// Load reads the config file. A missing or unreadable file yields the
// defaults; the returned error is only informational in that case.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads settings from path, falling back to defaults
func LoadFile(path string) (Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config at %q: %w", path, err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(bs), &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config from TOML file %q: %w", path, err)
	}

	return cfg.Clamped(), nil
}

// Save writes the config file, creating its directory
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes settings to path
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg.Clamped()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config at %q: %w", path, err)
	}
	return nil
}

// Clamped returns cfg with every value inside its recommended range
func (c Config) Clamped() Config {
	if math.IsNaN(c.Tempo) {
		c.Tempo = metronome.DefaultTempo
	}
	if math.IsNaN(c.Volume) {
		c.Volume = metronome.DefaultVolume
	}
	c.Tempo = min(max(c.Tempo, metronome.MinTempo), metronome.MaxTempo)
	c.Volume = min(max(c.Volume, metronome.MinVolume), metronome.MaxVolume)
	c.Beats = min(max(c.Beats, metronome.MinBeats), metronome.MaxBeats)
	return c
}
