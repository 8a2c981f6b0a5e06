// Package config loads the engine's startup configuration from a YAML
// file under os.UserConfigDir(), following the layout
// cmd/giztoy/internal/config uses for its own per-service YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	appDir     = "rillplay-engine"
	configFile = "engine.yaml"
)

// Config holds the settings the playback engine needs at startup.
type Config struct {
	// Prebuffering is how much of a network stream to buffer, in KiB,
	// before starting playback. Zero means use the engine's default
	// (half the PCM decode-burst size).
	Prebuffering int `yaml:"prebuffering_kib"`

	// AutoNext enables arming the precache for the next playlist entry
	// once the current track reaches EOF.
	AutoNext bool `yaml:"auto_next"`

	// UseMimeMagic enables content-sniffing a local file for its MIME
	// type when the caller didn't supply one. The file is sniffed only
	// once a MIME-type entry of PreferredDecoders is consulted.
	UseMimeMagic bool `yaml:"use_mime_magic"`

	// PreferredDecoders is an ordered list of preference specs, each
	// "ext(name1,*,name2)" or "type/subtype(name1,*,name2)", consulted
	// before the registry's default dispatch order.
	PreferredDecoders []string `yaml:"preferred_decoders"`
}

// defaults returns the configuration used when a field is absent from
// the file, so a missing or partial config doesn't block startup.
func defaults() Config {
	return Config{
		Prebuffering: 64,
		AutoNext:     true,
		UseMimeMagic: false,
	}
}

// Load reads the configuration from the default per-user location,
// returning defaults unchanged if no config file exists yet.
func Load() (Config, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(dir, appDir, configFile))
}

// LoadFrom reads the configuration from a specific file path.
func LoadFrom(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the default per-user location, creating its parent
// directory if needed.
func Save(cfg Config) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("cannot determine config directory: %w", err)
	}
	return SaveTo(filepath.Join(dir, appDir, configFile), cfg)
}

// SaveTo writes cfg to a specific file path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
