// Package paths resolves configuration and scratch directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "CARDBOX_CONFIG_DIR"
	EnvScratchDir = "CARDBOX_SCRATCH_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	userCacheDir:  os.UserCacheDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/cardbox (fallback ~/.config/cardbox)
// macOS:   ~/Library/Application Support/cardbox
// Windows: %APPDATA%/cardbox
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "cardbox"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "cardbox"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cardbox"), nil
	}
}

// DefaultScratchDir returns the platform-specific default scratch directory
// where open documents are extracted.
//
// Linux:   $XDG_CACHE_HOME/cardbox (fallback ~/.cache/cardbox)
// macOS:   ~/Library/Caches/cardbox
// Windows: %LocalAppData%/cardbox
func DefaultScratchDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "cardbox"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".cache", "cardbox"), nil
	default:
		dir, err := platformDir.userCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cardbox"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > CARDBOX_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveScratchDir returns the scratch directory following the precedence
// chain: flag > config value > CARDBOX_SCRATCH_DIR env > DefaultScratchDir().
// The directory is created if it does not exist.
func ResolveScratchDir(flag, configValue string) (string, error) {
	dir, err := scratchDir(flag, configValue)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func scratchDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvScratchDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultScratchDir()
}
