package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override the default locations.
const (
	EnvConfigPath = "HOARD_CONFIG_PATH"
	EnvHome       = "HOARD_HOME"
)

// GetDefaults returns the config file location and the archive's base
// directory, each taken from its environment variable when set:
//   - HOARD_CONFIG_PATH, else ~/.config/hoard.toml
//   - HOARD_HOME, else ~/.local/share/hoard
//
// Derived directories (log_dir) live under the base directory.
func GetDefaults() (map[string]string, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "hoard.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "hoard")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns $env if set, otherwise the path elems joined under
// the user's home directory.
func fromEnvOrHome(env string, elems ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for %s: %w", env, err)
	}
	return filepath.Join(append([]string{homeDir}, elems...)...), nil
}
