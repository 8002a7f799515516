package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateMove(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.InputDir != "" && c.Paths.InputDir == c.Paths.OutputDir {
		return fmt.Errorf("paths.output_dir must differ from paths.input_dir (%s)", c.Paths.InputDir)
	}
	return nil
}

func (c *Config) validateDedup() error {
	name := c.Dedup.SidecarName
	if name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return fmt.Errorf("dedup.sidecar_name must be a plain filename, got %q", name)
	}
	if c.Dedup.BlockSize <= 0 {
		return errors.New("dedup.block_size must be positive (bytes)")
	}
	return nil
}

func (c *Config) validateMove() error {
	if len(c.Move.Extensions) == 0 {
		return errors.New("move.extensions must list at least one extension")
	}
	for _, ext := range c.Move.Extensions {
		if ext == c.Dedup.SidecarName {
			return fmt.Errorf("move.extensions must not include the sidecar name %q", ext)
		}
	}
	return nil
}

func (c *Config) validateSplit() error {
	if c.Split.Threshold <= 0 {
		return errors.New("split.threshold must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
