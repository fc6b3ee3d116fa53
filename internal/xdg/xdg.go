// ABOUTME: XDG Base Directory support for probe config, data, and cache
// ABOUTME: Expands $XDG_* variables and ~ in configured file paths

package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "mcp-probe"

// ConfigHome returns ~/.config/mcp-probe or respects XDG_CONFIG_HOME.
func ConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir)
	}
	return filepath.Join(getHome(), ".config", appDir)
}

// DataHome returns ~/.local/share/mcp-probe or respects XDG_DATA_HOME.
func DataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appDir)
	}
	return filepath.Join(getHome(), ".local", "share", appDir)
}

// CacheHome returns ~/.cache/mcp-probe or respects XDG_CACHE_HOME.
func CacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, appDir)
	}
	return filepath.Join(getHome(), ".cache", appDir)
}

// ExpandPath expands ~ and generic $XDG_* prefixes in config paths.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(getHome(), path[2:])
	}

	if strings.HasPrefix(path, "$XDG_DATA_HOME") {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(getHome(), ".local", "share")
		}
		return base + strings.TrimPrefix(path, "$XDG_DATA_HOME")
	}

	if strings.HasPrefix(path, "$XDG_CACHE_HOME") {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			base = filepath.Join(getHome(), ".cache")
		}
		return base + strings.TrimPrefix(path, "$XDG_CACHE_HOME")
	}

	return path
}

func getHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
