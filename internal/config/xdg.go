package config

import (
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDir = "wrapbeep"

// XDGDirs provides XDG Base Directory compliant paths for wrapbeep
type XDGDirs struct{}

// NewXDGDirs creates a new XDG directory manager
func NewXDGDirs() *XDGDirs {
	return &XDGDirs{}
}

// GetConfigPaths returns prioritized paths where config files can be found
// Returns paths in search order: user config dir, then system config dirs
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	var paths []string

	userConfigPath := filepath.Join(xdg.ConfigHome, appDir)
	if filename != "" {
		userConfigPath = filepath.Join(userConfigPath, filename)
	}
	paths = append(paths, userConfigPath)

	for _, configDir := range xdg.ConfigDirs {
		systemConfigPath := filepath.Join(configDir, appDir)
		if filename != "" {
			systemConfigPath = filepath.Join(systemConfigPath, filename)
		}
		paths = append(paths, systemConfigPath)
	}

	slog.Debug("generated config paths",
		"filename", filename,
		"total_paths", len(paths),
		"user_path", userConfigPath)

	return paths
}

// GetCachePath returns the cache directory path for a specific purpose
func (x *XDGDirs) GetCachePath(purpose string) string {
	baseDir := appDir
	if purpose != "" {
		baseDir = filepath.Join(baseDir, purpose)
	}
	return filepath.Join(xdg.CacheHome, baseDir)
}

// GetDataPath returns the path of filename in the user data directory
func (x *XDGDirs) GetDataPath(filename string) string {
	return filepath.Join(xdg.DataHome, appDir, filename)
}
