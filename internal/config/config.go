package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains the directory roots a run operates on.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Dedup contains configuration for the digest cache and duplicate removal.
type Dedup struct {
	SidecarName string `toml:"sidecar_name"`
	BlockSize   int    `toml:"block_size"`
}

// Move contains configuration for date-based relocation.
type Move struct {
	Extensions []string `toml:"extensions"`
	// ExifFallback dates media files with undated names by their EXIF
	// capture time.
	ExifFallback bool `toml:"exif_fallback"`
}

// Split contains configuration for sharding oversized directories.
type Split struct {
	Threshold int `toml:"threshold"`
}

// Journal contains configuration for the run history database.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <log_dir>/journal.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: input collection, output hierarchy and log/journal directory
//   - Dedup: sidecar cache filename and hashing block size
//   - Move: recognized media extensions and the EXIF date fallback
//   - Split: maximum files per directory before sharding
//   - Journal: SQLite run history
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Dedup   Dedup   `toml:"dedup"`
	Move    Move    `toml:"move"`
	Split   Split   `toml:"split"`
	Journal Journal `toml:"journal"`
	Logging Logging `toml:"logging"`
}

// Load reads the configuration file at path, or the first existing default
// location when path is empty, over the built-in defaults. It returns the
// finalized config, the file path consulted and whether that file existed.
// Unknown keys are rejected.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Finalize normalizes and validates the configuration. Call it again after
// applying command-line overrides.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
