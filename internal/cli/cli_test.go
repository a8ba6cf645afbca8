package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapbeep.click/internal/audio/audiotest"
	"wrapbeep.click/internal/tracking"
)

// testEnv is a temp directory holding a clip, a config file and a tracking
// database.
type testEnv struct {
	dir        string
	clipPath   string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T, overrides map[string]any) *testEnv {
	t.Helper()
	for _, name := range []string{"WRAPBEEP_AUDIO_PATH", "WRAPBEEP_EVENT_NAME", "WRAPBEEP_VOLUME",
		"WRAPBEEP_AUDIO_BACKEND", "WRAPBEEP_LOG_LEVEL", "WRAPBEEP_SOURCE_URL", "WRAPBEEP_TRACKING"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		clipPath:   filepath.Join(dir, "beep.wav"),
		configPath: filepath.Join(dir, "config.json"),
		dbPath:     filepath.Join(dir, "playback.db"),
	}
	require.NoError(t, os.WriteFile(env.clipPath, audiotest.Beep(), 0o644))

	cfg := map[string]any{
		"audio_path":        env.clipPath,
		"audio_backend":     "none",
		"confirm_on_unlock": false,
		"log_level":         "error",
		"tracking": map[string]any{
			"enabled":       true,
			"database_path": env.dbPath,
		},
	}
	for k, v := range overrides {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.configPath, data, 0o644))
	return env
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"wrapbeep", "--config", e.configPath}, args...)
	code := NewCLI().Run(argv, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *testEnv) stats(t *testing.T) *tracking.Summary {
	t.Helper()
	code, stdout, stderr := e.run(t, "", "stats", "--json")
	require.Equal(t, 0, code, stderr)

	var summary tracking.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	return &summary
}

func TestCLIRootCommand(t *testing.T) {
	cli := NewCLI()
	require.NotNil(t, cli.rootCmd)
	assert.Equal(t, "wrapbeep", cli.rootCmd.Use)

	var names []string
	for _, cmd := range cli.rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "play")
	assert.Contains(t, names, "stats")
}

func TestCLIVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		var stdout, stderr bytes.Buffer
		code := NewCLI().Run([]string{"wrapbeep", flag}, strings.NewReader(""), &stdout, &stderr)
		assert.Equal(t, 0, code)
		assert.Equal(t, "wrapbeep version "+Version+"\n", stdout.String())
	}
}

func TestRunPlaysOnTriggerOnceEnabled(t *testing.T) {
	env := newTestEnv(t, nil)

	events := strings.Join([]string{
		`{"event":"eAgentWrapup","data":{"interactionId":"abc"}}`,
		`{"event":"eAgentLogin"}`,
		`not json`,
		``,
		`{"event":"eAgentWrapup"}`,
	}, "\n")
	code, _, stderr := env.run(t, events, "--enabled")
	require.Equal(t, 0, code, stderr)

	summary := env.stats(t)
	assert.Equal(t, 1, summary.Instances)
	assert.Equal(t, 1, summary.Count(tracking.KindToggle, tracking.OutcomeOn))
	assert.Equal(t, 1, summary.Count(tracking.KindUnlock, tracking.OutcomeOK))
	assert.Equal(t, 2, summary.Count(tracking.KindTrigger, tracking.OutcomePlayed))
	assert.Equal(t, 0, summary.Count(tracking.KindTrigger, tracking.OutcomeSkipped))
}

func TestRunSkipsTriggersWhileDisabled(t *testing.T) {
	env := newTestEnv(t, nil)

	code, _, stderr := env.run(t, `{"event":"eAgentWrapup"}`+"\n", "run")
	require.Equal(t, 0, code, stderr)

	summary := env.stats(t)
	assert.Equal(t, 1, summary.Count(tracking.KindTrigger, tracking.OutcomeSkipped))
	assert.Equal(t, 0, summary.Count(tracking.KindUnlock, tracking.OutcomeOK))
}

func TestRunCustomEventName(t *testing.T) {
	env := newTestEnv(t, map[string]any{"event_name": "eCallEnded"})

	events := `{"event":"eAgentWrapup"}` + "\n" + `{"event":"eCallEnded"}` + "\n"
	code, _, stderr := env.run(t, events, "--enabled")
	require.Equal(t, 0, code, stderr)

	summary := env.stats(t)
	assert.Equal(t, 1, summary.Count(tracking.KindTrigger, tracking.OutcomePlayed))
}

func TestRunRecordsUnlockFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	code, _, stderr := env.run(t, `{"event":"eAgentWrapup"}`+"\n",
		"--enabled", "--audio-path", filepath.Join(env.dir, "missing.wav"))
	require.Equal(t, 0, code, stderr)

	summary := env.stats(t)
	assert.Equal(t, 1, summary.Count(tracking.KindUnlock, tracking.OutcomeFailed))
	assert.Equal(t, 1, summary.Count(tracking.KindTrigger, tracking.OutcomeSkipped))
	assert.Contains(t, summary.LastFailed, "missing.wav")
}

func TestStatsTextOutput(t *testing.T) {
	env := newTestEnv(t, nil)
	code, _, stderr := env.run(t, `{"event":"eAgentWrapup"}`+"\n", "--enabled")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := env.run(t, "", "stats", "--since", "today")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Playback history (since ")
	assert.Contains(t, stdout, "KIND")
	assert.Contains(t, stdout, "trigger")
	assert.Contains(t, stdout, "played")
}

func TestStatsRejectsBadSince(t *testing.T) {
	env := newTestEnv(t, nil)

	code, _, stderr := env.run(t, "", "stats", "--since", "whenever the moon is blue")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid --since value")
}

func TestStatsWithoutTracking(t *testing.T) {
	env := newTestEnv(t, map[string]any{"tracking": map[string]any{"enabled": false}})

	code, _, stderr := env.run(t, "", "stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "tracking is not enabled")
}

func TestPlayCommand(t *testing.T) {
	env := newTestEnv(t, nil)

	code, stdout, stderr := env.run(t, "", "play")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "playing "+env.clipPath)
	assert.Contains(t, stdout, "8000 Hz, 2 ch")
}

func TestPlayCommandMissingClip(t *testing.T) {
	env := newTestEnv(t, nil)

	code, _, stderr := env.run(t, "", "play", filepath.Join(env.dir, "nope.wav"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to enable audio")
}

func TestPlayCommandWithoutPath(t *testing.T) {
	env := newTestEnv(t, map[string]any{"audio_path": ""})

	code, _, stderr := env.run(t, "", "play")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no audio path")
}

func TestFlagValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"unparseable volume", []string{"--volume", "loud"}, "invalid volume value"},
		{"volume out of range", []string{"--volume", "1.5"}, "volume must be between"},
		{"unknown backend", []string{"--backend", "pulseaudio"}, "invalid audio backend"},
		{"bad source url", []string{"--source-url", "http://desk.example.com"}, "source url must start with"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := env.run(t, "", tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tc.want)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := NewCLI().Run([]string{"wrapbeep", "--config", filepath.Join(t.TempDir(), "absent.json"), "stats"},
		strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error loading config")
}

func TestSetupLoggingWritesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "wrapbeep.log")
	env := newTestEnv(t, map[string]any{
		"file_logging": map[string]any{
			"enabled":     true,
			"filename":    logPath,
			"level":       "debug",
			"max_size_mb": 1,
		},
	})

	code, _, stderr := env.run(t, `{"event":"eAgentWrapup"}`+"\n", "--enabled")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "audio unlocked and loaded")
	assert.NotContains(t, stderr, "audio unlocked and loaded")
}
