// Package config loads optional redate settings from a TOML file.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds settings that are awkward to repeat on every invocation.
// Command-line flags take precedence over anything set here.
type Config struct {
	ExiftoolPath   string `toml:"exiftool_path"`   // empty means exiftool from $PATH
	Workers        int    `toml:"workers"`         // files processed in parallel; 1 is sequential
	BackupOriginal bool   `toml:"backup_original"` // keep exiftool's <name>_original copies
	DryRun         bool   `toml:"dry_run"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Workers: 1}
}

// Read decodes a Config from r, starting from Default.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFromFile reads a Config from path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks cfg for values that cannot work.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
