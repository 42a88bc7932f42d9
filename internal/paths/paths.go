// Package paths resolves where vinv keeps its configuration, its working
// copy and its revision archive.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "vinv"

// Environment variables overriding the directories.
const (
	EnvConfigDir = "VINV_CONFIG_DIR"
	EnvDataDir   = "VINV_DATA_DIR"
)

// Files inside the resolved directories.
const (
	ConfigFile      = "config.yaml"
	WorkingCopyFile = "inventory.vinv"
	SchemaDirName   = "schemas"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// userDir returns the per-user directory for vinv. On Linux it follows the
// XDG base directory variable xdgVar, falling back to ~/<fallback>. Other
// platforms share os.UserConfigDir for config and data.
func userDir(xdgVar string, fallback ...string) (string, error) {
	if platformDir.goos == "linux" {
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		parts := append([]string{home}, fallback...)
		return filepath.Join(append(parts, appName)...), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/vinv (fallback ~/.config/vinv)
// macOS:   ~/Library/Application Support/vinv
// Windows: %APPDATA%/vinv
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/vinv (fallback ~/.local/share/vinv)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir picks the configuration directory: flag, then
// VINV_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks the data directory: flag, then the data_dir config
// value, then VINV_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate made absolute, or the
// platform default.
func resolve(def func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return def()
}

// WorkingCopy returns the path of the working copy inside dataDir.
func WorkingCopy(dataDir string) string {
	return filepath.Join(dataDir, WorkingCopyFile)
}

// SchemaDir returns the directory searched for extra schema sets: the
// configured value when set, otherwise "schemas" inside configDir.
func SchemaDir(configDir, configValue string) string {
	if configValue != "" {
		return configValue
	}
	return filepath.Join(configDir, SchemaDirName)
}
