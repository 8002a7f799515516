package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "init", "--path", env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(env.configPath); err != nil {
		t.Fatalf("expected config file at %s: %v", env.configPath, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", env.configPath); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, env, "--config", env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "sidecar_name")
	requireContains(t, out, ".secure_hashes")
	requireContains(t, out, filepath.Join(env.baseDir, "sorted"))

	out, _, err = runCLI(t, env, "--config", env.configPath, "config", "validate", env.inputDir)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Input directory")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "will be created")
	requireMissing(t, env.logDir)
}

func TestConfigValidateWithoutFile(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[paths]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, env, "--config", env.configPath, "config", "show"); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}
