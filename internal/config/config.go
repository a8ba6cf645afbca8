package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"wrapbeep.click/internal/audio"
)

// DefaultEventName is the desktop event that plays the beep.
const DefaultEventName = "eAgentWrapup"

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	Level      string `json:"level"`        // File log level (empty = log_level)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// SourceConfig describes where desktop events come from. An empty URL means
// JSON lines on stdin.
type SourceConfig struct {
	URL              string `json:"url"`
	ReconnectSeconds int    `json:"reconnect_seconds"`
	Handshake        bool   `json:"handshake"` // send a subscribe request after connecting
}

// Config represents wrapbeep configuration
type Config struct {
	AudioPath       string             `json:"audio_path"`        // URL or file path of the clip
	EventName       string             `json:"event_name"`        // Event that triggers playback
	Volume          float64            `json:"volume"`            // Audio volume (0.0 to 1.0)
	AudioBackend    string             `json:"audio_backend"`     // auto, malgo, oto or none
	ConfirmOnUnlock bool               `json:"confirm_on_unlock"` // Play once when audio is enabled
	StartEnabled    bool               `json:"start_enabled"`     // Enable audio when run starts
	LogLevel        string             `json:"log_level"`         // debug, info, warn, error
	Source          *SourceConfig      `json:"source,omitempty"`
	FileLogging     *FileLoggingConfig `json:"file_logging,omitempty"`
	Tracking        *TrackingConfig    `json:"tracking,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	GetDataPath(filename string) string
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager on fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  fs,
	}
}

// NewConfigManagerWithDependencies creates a configuration manager with
// injected XDG paths and filesystem
func NewConfigManagerWithDependencies(xdg XDGInterface, fs afero.Fs) *ConfigManager {
	return &ConfigManager{xdg: xdg, fs: fs}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	defaultConfig := &Config{
		AudioPath:       "",
		EventName:       DefaultEventName,
		Volume:          1.0,
		AudioBackend:    audio.BackendAuto,
		ConfirmOnUnlock: true,
		StartEnabled:    false,
		LogLevel:        "info",
		Source: &SourceConfig{
			ReconnectSeconds: 5,
			Handshake:        true,
		},
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // Empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Tracking: GetDefaultTrackingConfig(),
	}

	slog.Debug("generated default config",
		"event_name", defaultConfig.EventName,
		"volume", defaultConfig.Volume,
		"log_level", defaultConfig.LogLevel,
		"audio_backend", defaultConfig.AudioBackend)

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file. Fields missing from
// the file keep their defaults.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"audio_path", config.AudioPath,
		"event_name", config.EventName)

	return config, nil
}

// SaveToFile saves configuration to a specific file
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	configPaths := cm.xdg.GetConfigPaths("config.json")
	slog.Debug("searching for config file", "paths", configPaths)

	for _, configPath := range configPaths {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values and reports every problem
// at once
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	if config.Volume < 0.0 || config.Volume > 1.0 {
		errors = append(errors, fmt.Sprintf("volume must be between 0.0 and 1.0, got %f", config.Volume))
	}

	if strings.TrimSpace(config.EventName) == "" {
		errors = append(errors, "event_name cannot be empty")
	}

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if !cm.IsValidAudioBackend(config.AudioBackend) {
		errors = append(errors, fmt.Sprintf("invalid audio backend '%s', must be one of: %s",
			config.AudioBackend, strings.Join(cm.GetSupportedAudioBackends(), ", ")))
	}

	if src := config.Source; src != nil {
		if src.URL != "" && !strings.HasPrefix(src.URL, "ws://") && !strings.HasPrefix(src.URL, "wss://") {
			errors = append(errors, fmt.Sprintf("source url must start with ws:// or wss://, got %q", src.URL))
		}
		if src.ReconnectSeconds < 0 {
			errors = append(errors, fmt.Sprintf("source reconnect_seconds must be >= 0, got %d", src.ReconnectSeconds))
		}
	}

	if fileLogging := config.FileLogging; fileLogging != nil {
		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}
		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}
		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
		if fileLogging.Level != "" {
			if _, err := ParseLogLevel(fileLogging.Level); err != nil {
				errors = append(errors, "file logging "+err.Error())
			}
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	slog.Debug("config validation passed")
	return nil
}

// ApplyEnvironmentOverrides applies WRAPBEEP_* environment variables to a
// copy of config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config
	if config.Source != nil {
		src := *config.Source
		result.Source = &src
	} else {
		result.Source = &SourceConfig{}
	}

	if path := os.Getenv("WRAPBEEP_AUDIO_PATH"); path != "" {
		result.AudioPath = path
		slog.Debug("applied audio path override from environment", "value", path)
	}

	if name := os.Getenv("WRAPBEEP_EVENT_NAME"); name != "" {
		result.EventName = name
		slog.Debug("applied event name override from environment", "value", name)
	}

	if volStr := os.Getenv("WRAPBEEP_VOLUME"); volStr != "" {
		if vol, err := strconv.ParseFloat(volStr, 64); err == nil {
			result.Volume = vol
			slog.Debug("applied volume override from environment", "value", vol)
		} else {
			slog.Warn("invalid WRAPBEEP_VOLUME environment variable", "value", volStr, "error", err)
		}
	}

	if audioBackend := os.Getenv("WRAPBEEP_AUDIO_BACKEND"); audioBackend != "" {
		if cm.IsValidAudioBackend(audioBackend) {
			result.AudioBackend = audioBackend
			slog.Debug("applied audio backend override from environment", "value", audioBackend)
		} else {
			slog.Warn("invalid WRAPBEEP_AUDIO_BACKEND environment variable", "value", audioBackend)
		}
	}

	if logLevel := os.Getenv("WRAPBEEP_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	if url := os.Getenv("WRAPBEEP_SOURCE_URL"); url != "" {
		result.Source.URL = url
		slog.Debug("applied source url override from environment", "value", url)
	}

	if result.Tracking != nil {
		result.Tracking = ApplyTrackingEnvironmentOverrides(result.Tracking)
	}

	return &result
}

// ParseLogLevel converts a config log level to a slog.Level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "wrapbeep.log")
}

// ResolveDatabasePath resolves the tracking database path using the XDG data
// directory when path is empty
func (cm *ConfigManager) ResolveDatabasePath(path string) string {
	if path != "" {
		return path
	}
	return cm.xdg.GetDataPath("playback.db")
}

// GetSupportedAudioBackends returns a list of all supported audio backend types
func (cm *ConfigManager) GetSupportedAudioBackends() []string {
	return audio.SupportedBackends()
}

// IsValidAudioBackend checks if an audio backend type is supported
func (cm *ConfigManager) IsValidAudioBackend(backend string) bool {
	return audio.IsValidBackend(backend)
}
