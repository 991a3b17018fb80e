package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".hitdesk", cfg.WorkspaceDir)
	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetBail())
	assert.False(t, cfg.GetNoColor())
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file gives defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("first filename wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitdeskrc"), []byte(`{"timeout": 1}`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hitdesk.config.json"), []byte(`{"timeout": 2}`), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Timeout)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"defaultEnvironment": "staging", "validateSSL": false, "headers": {"X-Team": "core"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitdesk.config.json"), []byte(content), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "staging", cfg.DefaultEnvironment)
		assert.False(t, cfg.GetValidateSSL())
		assert.True(t, cfg.GetFollowRedirects())
		assert.Equal(t, 30000, cfg.Timeout)
		assert.Equal(t, "core", cfg.Headers["X-Team"])
	})

	t.Run("invalid json", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitdeskrc"), []byte(`{`), 0644))

		_, err := FindAndLoadConfig(dir)
		assert.Error(t, err)
	})
}

func TestLoadConfig_ExplicitPathMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	override := &Config{
		Timeout:     5000,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "2"},
		RunRate:     2.5,
	}

	merged := base.Merge(override)

	assert.Equal(t, 5000, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, 2.5, merged.RunRate)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers)
	assert.Same(t, base, base.Merge(nil))
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkspaceDir = "/work"

	assert.Equal(t, filepath.Join("/work", "history.db"), cfg.HistoryPath())
	assert.Equal(t, "", cfg.LogPath())

	cfg.LogFile = "/var/log/hitdesk.log"
	assert.Equal(t, "/var/log/hitdesk.log", cfg.LogPath())

	cfg.LogFile = "hitdesk.log"
	assert.Equal(t, filepath.Join("/work", "hitdesk.log"), cfg.LogPath())
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitdesk.config.json")
	cfg := DefaultConfig()
	cfg.Proxy = "http://proxy:8080"

	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:8080", loaded.Proxy)
	assert.Equal(t, int64(30000), loaded.TimeoutDuration().Milliseconds())
}
