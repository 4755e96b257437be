package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir) // no stray .env
	t.Setenv("MAILMATE_CONFIG_DIR", dir)
	t.Setenv("MAILMATE_API_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.APIConfigured())
	assert.Equal(t, "127.0.0.1:3000", cfg.CallbackAddr)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.CallbackOrigin())
	assert.True(t, cfg.CacheSession)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, filepath.Join(dir, "mailmate.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "mailmate.db"), cfg.DBPath())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILMATE_CONFIG_DIR", dir)
	t.Setenv("MAILMATE_CACHE_SESSION", "false")

	envFile := filepath.Join(dir, "mailmate.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MAILMATE_API_URL=http://localhost:8000\nMAILMATE_CALLBACK_ADDR=localhost:3100\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MAILMATE_API_URL")
		os.Unsetenv("MAILMATE_CALLBACK_ADDR")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.True(t, cfg.APIConfigured())
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "http://localhost:3100", cfg.CallbackOrigin())
	assert.False(t, cfg.CacheSession)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"callback without port": {"MAILMATE_CALLBACK_ADDR": "localhost"},
		"bad log format":        {"MAILMATE_LOG_FORMAT": "xml"},
		"bad timeout":           {"MAILMATE_REQUEST_TIMEOUT": "soon"},
		"zero timeout":          {"MAILMATE_REQUEST_TIMEOUT": "0s"},
		"bad bool":              {"MAILMATE_CACHE_SESSION": "perhaps"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			t.Setenv("MAILMATE_CONFIG_DIR", dir)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
