package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "http://127.0.0.1:9222", cfg.DevToolsURL)
	assert.Equal(t, "cursorflow.sqlite3", cfg.Sqlite.Dsn)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0.4, cfg.Matcher.Weights.URL)
	assert.Equal(t, 0.7, cfg.Matcher.Thresholds.Fingerprint)
	assert.Equal(t, time.Second, cfg.Flow.StepDelay)
	assert.Equal(t, 10*time.Second, cfg.Flow.ContentWaitMax)
	assert.Equal(t, "#22c55e", cfg.Overlay.CursorColor)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, New().DevToolsURL, cfg.DevToolsURL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
devToolsURL: http://127.0.0.1:9333
log:
  level: debug
matcher:
  thresholds:
    fingerprint: 0.8
flow:
  stepDelay: 2s
  contentPaths: ["/archive"]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9333", cfg.DevToolsURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.8, cfg.Matcher.Thresholds.Fingerprint)
	assert.Equal(t, 2*time.Second, cfg.Flow.StepDelay)
	assert.Equal(t, []string{"/archive"}, cfg.Flow.ContentPaths)

	// Untouched keys keep their defaults.
	assert.Equal(t, New().RecordingBaseURL, cfg.RecordingBaseURL)
	assert.Equal(t, 0.6, cfg.Matcher.Thresholds.Path)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flow:\n  stepDelay: soon\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devToolsURL: [broken"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
