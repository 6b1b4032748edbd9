// Package config loads the voiceid CLI configuration.
//
// Configuration lives in a single YAML file under os.UserConfigDir():
//
//	~/Library/Application Support/voiceid/config.yaml   (macOS)
//	~/.config/voiceid/config.yaml                       (Linux)
//	%AppData%/voiceid/config.yaml                       (Windows)
//
// A missing file yields the defaults; flags override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "voiceid"

	configFile = "config.yaml"
)

// Config holds the CLI configuration.
type Config struct {
	// DBDir is the Badger database directory holding the enrolled
	// voiceprints. Defaults to <config dir>/db.
	DBDir string `yaml:"db_dir"`

	// ModelTag is the default model tag for registrations and queries
	// with precomputed embeddings.
	ModelTag string `yaml:"model_tag"`

	// Threshold is the default identification threshold.
	Threshold float32 `yaml:"threshold"`

	// Listen is the default address for 'voiceid serve'.
	Listen string `yaml:"listen"`

	// Dir is the configuration directory the file was loaded from.
	Dir string `yaml:"-"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		DBDir:     filepath.Join(dir, "db"),
		Threshold: 0.5,
		Listen:    ":8721",
		Dir:       dir,
	}
}

// Load reads the configuration from the default location.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom reads the configuration from a specific directory. A missing
// config file is not an error; defaults apply.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBDir == "" {
		cfg.DBDir = filepath.Join(dir, "db")
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.5
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8721"
	}
	cfg.Dir = dir
	return cfg, nil
}

// Save writes the configuration back to its directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.Dir, configFile), data, 0o644)
}
