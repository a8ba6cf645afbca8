package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeXDG roots every path under a fixed directory
type fakeXDG struct {
	root string
}

func (f fakeXDG) GetConfigPaths(filename string) []string {
	return []string{
		filepath.Join(f.root, "user", filename),
		filepath.Join(f.root, "system", filename),
	}
}

func (f fakeXDG) GetCachePath(purpose string) string {
	return filepath.Join(f.root, "cache", purpose)
}

func (f fakeXDG) GetDataPath(filename string) string {
	return filepath.Join(f.root, "data", filename)
}

func newTestManager(t *testing.T) (*ConfigManager, afero.Fs) {
	t.Helper()
	memFS := afero.NewMemMapFs()
	return NewConfigManagerWithDependencies(fakeXDG{root: "/xdg"}, memFS), memFS
}

func TestGetDefaultConfig(t *testing.T) {
	cm, _ := newTestManager(t)
	cfg := cm.GetDefaultConfig()

	assert.Equal(t, "eAgentWrapup", cfg.EventName)
	assert.Equal(t, 1.0, cfg.Volume)
	assert.Equal(t, "auto", cfg.AudioBackend)
	assert.True(t, cfg.ConfirmOnUnlock)
	assert.False(t, cfg.StartEnabled)
	require.NotNil(t, cfg.Source)
	assert.Equal(t, 5, cfg.Source.ReconnectSeconds)
	require.NotNil(t, cfg.Tracking)
	assert.True(t, cfg.Tracking.Enabled)
	assert.NoError(t, cm.ValidateConfig(cfg))
}

func TestLoadFromFileKeepsDefaultsForMissingFields(t *testing.T) {
	cm, memFS := newTestManager(t)
	content := `{
		"audio_path": "https://cdn.example.com/beep.mp3",
		"volume": 0.4,
		"confirm_on_unlock": false,
		"source": {"url": "wss://desktop.example.com/events"}
	}`
	require.NoError(t, afero.WriteFile(memFS, "/etc/wrapbeep.json", []byte(content), 0644))

	cfg, err := cm.LoadFromFile("/etc/wrapbeep.json")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/beep.mp3", cfg.AudioPath)
	assert.Equal(t, 0.4, cfg.Volume)
	assert.False(t, cfg.ConfirmOnUnlock)
	assert.Equal(t, "eAgentWrapup", cfg.EventName)
	assert.Equal(t, "wss://desktop.example.com/events", cfg.Source.URL)
	assert.Equal(t, 5, cfg.Source.ReconnectSeconds, "nested defaults survive")
	assert.True(t, cfg.Source.Handshake)
}

func TestLoadFromFileErrors(t *testing.T) {
	cm, memFS := newTestManager(t)

	_, err := cm.LoadFromFile("/missing.json")
	assert.ErrorContains(t, err, "failed to read config file")

	require.NoError(t, afero.WriteFile(memFS, "/bad.json", []byte("{"), 0644))
	_, err = cm.LoadFromFile("/bad.json")
	assert.ErrorContains(t, err, "failed to parse config JSON")

	require.NoError(t, afero.WriteFile(memFS, "/invalid.json", []byte(`{"volume": 3}`), 0644))
	_, err = cm.LoadFromFile("/invalid.json")
	assert.ErrorContains(t, err, "volume must be between")
}

func TestLoadConfigSearchesXDGPaths(t *testing.T) {
	cm, memFS := newTestManager(t)

	cfg, err := cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cm.GetDefaultConfig(), cfg, "defaults without a config file")

	require.NoError(t, afero.WriteFile(memFS, "/xdg/system/config.json", []byte(`{"event_name": "system"}`), 0644))
	cfg, err = cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "system", cfg.EventName)

	require.NoError(t, afero.WriteFile(memFS, "/xdg/user/config.json", []byte(`{"event_name": "user"}`), 0644))
	cfg, err = cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "user", cfg.EventName, "user config wins")
}

func TestSaveAndReload(t *testing.T) {
	cm, _ := newTestManager(t)
	cfg := cm.GetDefaultConfig()
	cfg.AudioPath = "/sounds/beep.wav"
	cfg.StartEnabled = true

	require.NoError(t, cm.SaveToFile(cfg, "/home/u/.config/wrapbeep/config.json"))
	loaded, err := cm.LoadFromFile("/home/u/.config/wrapbeep/config.json")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	cfg.AudioBackend = "pulse"
	assert.Error(t, cm.SaveToFile(cfg, "/x.json"))
}

func TestValidateConfigAggregatesErrors(t *testing.T) {
	cm, _ := newTestManager(t)
	cfg := cm.GetDefaultConfig()
	cfg.Volume = -1
	cfg.EventName = " "
	cfg.LogLevel = "loud"
	cfg.AudioBackend = "alsa"
	cfg.Source.URL = "http://desktop"
	cfg.Source.ReconnectSeconds = -2
	cfg.FileLogging.MaxSizeMB = -1
	cfg.FileLogging.Level = "trace"

	err := cm.ValidateConfig(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"volume must be between",
		"event_name cannot be empty",
		"invalid log level 'loud'",
		"invalid audio backend 'alsa'",
		"source url must start with ws://",
		"reconnect_seconds must be >= 0",
		"max_size_mb must be >= 0",
		"file logging invalid log level 'trace'",
	} {
		assert.Contains(t, err.Error(), want)
	}
	assert.Equal(t, 8, strings.Count(err.Error(), ";")+1)
}

func TestValidateConfigAllowsEmptyAudioPath(t *testing.T) {
	cm, _ := newTestManager(t)
	cfg := cm.GetDefaultConfig()
	cfg.AudioPath = ""
	assert.NoError(t, cm.ValidateConfig(cfg))
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	cm, _ := newTestManager(t)
	t.Setenv("WRAPBEEP_AUDIO_PATH", "/env/beep.wav")
	t.Setenv("WRAPBEEP_EVENT_NAME", "eAgentOffer")
	t.Setenv("WRAPBEEP_VOLUME", "0.25")
	t.Setenv("WRAPBEEP_AUDIO_BACKEND", "none")
	t.Setenv("WRAPBEEP_LOG_LEVEL", "debug")
	t.Setenv("WRAPBEEP_SOURCE_URL", "ws://localhost:9000/events")
	t.Setenv("WRAPBEEP_TRACKING", "false")

	base := cm.GetDefaultConfig()
	cfg := cm.ApplyEnvironmentOverrides(base)

	assert.Equal(t, "/env/beep.wav", cfg.AudioPath)
	assert.Equal(t, "eAgentOffer", cfg.EventName)
	assert.Equal(t, 0.25, cfg.Volume)
	assert.Equal(t, "none", cfg.AudioBackend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ws://localhost:9000/events", cfg.Source.URL)
	assert.False(t, cfg.Tracking.Enabled)

	assert.Empty(t, base.Source.URL, "base config is not modified")
	assert.True(t, base.Tracking.Enabled)
}

func TestApplyEnvironmentOverridesIgnoresInvalidValues(t *testing.T) {
	cm, _ := newTestManager(t)
	t.Setenv("WRAPBEEP_VOLUME", "loud")
	t.Setenv("WRAPBEEP_AUDIO_BACKEND", "alsa")
	t.Setenv("WRAPBEEP_TRACKING", "maybe")

	cfg := cm.ApplyEnvironmentOverrides(cm.GetDefaultConfig())
	assert.Equal(t, 1.0, cfg.Volume)
	assert.Equal(t, "auto", cfg.AudioBackend)
	assert.True(t, cfg.Tracking.Enabled)
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			level, err := ParseLogLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cm, _ := newTestManager(t)

	assert.Equal(t, "/var/log/beep.log", cm.ResolveLogFilePath("/var/log/beep.log"))
	assert.Equal(t, filepath.Join("/xdg", "cache", "logs", "wrapbeep.log"), cm.ResolveLogFilePath(""))
	assert.Equal(t, "/tmp/p.db", cm.ResolveDatabasePath("/tmp/p.db"))
	assert.Equal(t, filepath.Join("/xdg", "data", "playback.db"), cm.ResolveDatabasePath(""))
}

func TestSupportedAudioBackends(t *testing.T) {
	cm, _ := newTestManager(t)
	assert.ElementsMatch(t, []string{"auto", "malgo", "oto", "none"}, cm.GetSupportedAudioBackends())
	assert.True(t, cm.IsValidAudioBackend(""))
	assert.False(t, cm.IsValidAudioBackend("system_command"))
}
