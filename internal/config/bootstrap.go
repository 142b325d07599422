package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvDataDir points the engine at its state directory (config, sqlite, lock files).
	EnvDataDir = "JOBFLOW_DATA_DIR"
	// EnvDefaultConfig overrides where the bundled config.yml is read from.
	EnvDefaultConfig = "JOBFLOW_DEFAULT_CONFIG"
)

// DataDir resolves and creates the engine data dir.
func DataDir() (string, error) {
	dir := strings.TrimSpace(os.Getenv(EnvDataDir))
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("data dir %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultConfigPath is the bundled config.yml shipped next to the binary.
func DefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvDefaultConfig)); p != "" {
		return p
	}
	return filepath.Join("config", "config.yml")
}

// EnsureUserConfig seeds dataDir/config.yml from the bundled default on first
// start and returns its path. An existing user file is never touched.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	b, err := os.ReadFile(defaultPath)
	if err != nil {
		return "", fmt.Errorf("read bundled config: %w", err)
	}
	if err := writeViaTemp(userPath, b); err != nil {
		return "", fmt.Errorf("seed %s: %w", userPath, err)
	}
	return userPath, nil
}

// writeViaTemp never leaves a half-written file at path.
func writeViaTemp(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
