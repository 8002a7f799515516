package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const projectConfigFile = "mediasort.toml"

// DefaultConfigPath returns ~/.config/mediasort/config.toml, absolutized.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/mediasort/config.toml")
}

// locate resolves the file Load reads. An explicit path is used as given
// even when missing; otherwise the user config and then ./mediasort.toml are
// tried, falling back to the (missing) user config path.
func locate(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		return path, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// ExpandPath resolves a leading "~" to the home directory and returns the
// cleaned absolute path. Empty input stays empty.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value[1:], "/"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// EnsureDirectories creates the log directory. The output root is created
// lazily by the move pass so read-only commands never touch it.
func (c *Config) EnsureDirectories() error {
	dir := strings.TrimSpace(c.Paths.LogDir)
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// JournalPath returns journal.path, or journal.db in the log directory.
func (c *Config) JournalPath() string {
	if p := strings.TrimSpace(c.Journal.Path); p != "" {
		return p
	}
	return filepath.Join(c.Paths.LogDir, defaultJournalFile)
}

// LockPath returns the advisory lock file guarding mutating commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, defaultLockFile)
}

// LogFilePath returns the log file written alongside console output.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, defaultLogFile)
}

// ExtensionSet returns the media allow-list keyed by lowercase extension.
func (c *Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Move.Extensions))
	for _, ext := range c.Move.Extensions {
		set[ext] = struct{}{}
	}
	return set
}
