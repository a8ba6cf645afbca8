package config

import (
	"log/slog"
	"os"
	"strconv"
)

// TrackingConfig represents playback tracking configuration
type TrackingConfig struct {
	Enabled      bool   `json:"enabled"`       // Whether playback history is recorded
	DatabasePath string `json:"database_path"` // Custom database path (empty = XDG data path)
}

// GetDefaultTrackingConfig returns the default tracking configuration
func GetDefaultTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		Enabled:      true,
		DatabasePath: "",
	}
}

// ApplyTrackingEnvironmentOverrides applies WRAPBEEP_TRACKING to a copy of config
func ApplyTrackingEnvironmentOverrides(config *TrackingConfig) *TrackingConfig {
	result := *config

	if trackingStr := os.Getenv("WRAPBEEP_TRACKING"); trackingStr != "" {
		if enabled, err := strconv.ParseBool(trackingStr); err == nil {
			result.Enabled = enabled
			slog.Debug("applied tracking override from environment", "value", enabled)
		} else {
			slog.Warn("invalid WRAPBEEP_TRACKING environment variable", "value", trackingStr, "error", err)
		}
	}

	return &result
}
