package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MEDIASORT_INPUT_DIR", "~/photos")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "photos") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) || filepath.Base(cfg.Paths.OutputDir) != "out" {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if !filepath.IsAbs(cfg.Paths.LogDir) || filepath.Base(cfg.Paths.LogDir) != "log" {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Dedup.SidecarName != ".secure_hashes" {
		t.Fatalf("unexpected sidecar name: %q", cfg.Dedup.SidecarName)
	}
	if cfg.Dedup.BlockSize != 64*1024 {
		t.Fatalf("unexpected block size: %d", cfg.Dedup.BlockSize)
	}
	if cfg.Split.Threshold != 500 {
		t.Fatalf("unexpected split threshold: %d", cfg.Split.Threshold)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal enabled by default")
	}
	if got := cfg.JournalPath(); got != filepath.Join(cfg.Paths.LogDir, "journal.db") {
		t.Fatalf("unexpected journal path: %q", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.LogDir); err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediasort.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Move struct {
			Extensions []string `toml:"extensions"`
		} `toml:"move"`
		Split struct {
			Threshold int `toml:"threshold"`
		} `toml:"split"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "sorted")
	custom.Move.Extensions = []string{"JPG", ".Mov", ".jpg", " "}
	custom.Split.Threshold = 100

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "sorted") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Split.Threshold != 100 {
		t.Fatalf("unexpected threshold: %d", cfg.Split.Threshold)
	}
	want := []string{".jpg", ".mov"}
	if strings.Join(cfg.Move.Extensions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected extensions: %v", cfg.Move.Extensions)
	}
	set := cfg.ExtensionSet()
	if _, ok := set[".mov"]; !ok {
		t.Fatalf("expected .mov in extension set: %v", set)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mediasort.toml")
	if err := os.WriteFile(configPath, []byte("[split]\nthreshhold = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"threshold", func(c *config.Config) { c.Split.Threshold = -1 }, "split.threshold"},
		{"sidecar", func(c *config.Config) { c.Dedup.SidecarName = "a/b" }, "dedup.sidecar_name"},
		{"block size", func(c *config.Config) { c.Dedup.BlockSize = -5 }, "dedup.block_size"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"extensions", func(c *config.Config) { c.Move.Extensions = nil }, "move.extensions"},
		{"same roots", func(c *config.Config) {
			c.Paths.InputDir = "/data/photos"
			c.Paths.OutputDir = "/data/photos"
		}, "paths.output_dir"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Finalize()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestWriteSampleIsLoadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists on second write, got %v", err)
	}
	if err := config.WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample with overwrite: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Split.Threshold != 500 {
		t.Fatalf("unexpected sample threshold: %d", cfg.Split.Threshold)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "sidecar_name") {
		t.Fatalf("expected encoded config to include sidecar_name, got %q", encoded)
	}
}
