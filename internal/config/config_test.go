package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
timeout: 250ms
max_call_depth: 64
supported_functions: [fetch, postHogCapture]
cache_size: 1048576
team_db: "file::memory:"
team_id: 2
log_level: debug
`)
	cfg, err := ParseConfig(data, "hog.yaml")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 64, cfg.MaxCallDepth)
	assert.Equal(t, map[string]bool{"fetch": true, "postHogCapture": true}, cfg.SupportedSet())
	assert.Equal(t, 1048576, cfg.CacheSize)
	assert.Equal(t, int64(2), cfg.TeamID)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"), "hog.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxCallDepth, cfg.MaxCallDepth)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.SupportedSet())
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"negative timeout", "timeout: -1s", "timeout must not be negative"},
		{"negative depth", "max_call_depth: -3", "max_call_depth must not be negative"},
		{"bad level", "log_level: loud", "unknown log_level"},
		{"duplicate function", "supported_functions: [fetch, fetch]", "lists \"fetch\" twice"},
		{"empty function", "supported_functions: ['']", "empty name"},
		{"not yaml", "timeout: [", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), "hog.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 2s\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
