package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/faults"
	"mediasort/internal/logging"
)

type globalFlags struct {
	config    string
	outputDir string
	logDir    string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and applies command-line
// overrides on top of it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = faults.Wrap(faults.ErrConfiguration, "", "load config", "", err)
			return
		}
		c.configPath = path
		c.configExists = exists
		if err := c.applyOverrides(cfg, ""); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyOverrides layers flag values (and the positional input root, when
// given) over cfg and re-validates it.
func (c *commandContext) applyOverrides(cfg *config.Config, inputDir string) error {
	if v := strings.TrimSpace(inputDir); v != "" {
		cfg.Paths.InputDir = v
	}
	if v := strings.TrimSpace(c.flags.outputDir); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := strings.TrimSpace(c.flags.logDir); v != "" {
		cfg.Paths.LogDir = v
	}
	if v := strings.TrimSpace(c.flags.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(c.flags.logFormat); v != "" {
		cfg.Logging.Format = v
	}
	if err := cfg.Finalize(); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "", "apply overrides", "", err)
	}
	return nil
}

// passConfig returns a copy of the loaded configuration rooted at inputDir.
func (c *commandContext) passConfig(inputDir string) (*config.Config, error) {
	base, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Move.Extensions = append([]string(nil), base.Move.Extensions...)
	if err := c.applyOverrides(&cfg, inputDir); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.InputDir) == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "", "resolve input", "no input directory given; pass one or set paths.input_dir", nil)
	}
	return &cfg, nil
}

func (c *commandContext) newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, closer, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
