package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cruxlog.db", cfg.LocalDBPath)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 5, cfg.MaxSyncAttempts)
	assert.Equal(t, 4, cfg.SyncWorkers)
}

func TestLoad_JSONOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"local_db_path": "/tmp/test.db",
		"sync_interval": "5s",
		"max_sync_attempts": 2
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.LocalDBPath)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.Equal(t, 2, cfg.MaxSyncAttempts)

	// untouched fields keep their defaults
	assert.Equal(t, 5*time.Minute, cfg.PullInterval)
	assert.Equal(t, 4, cfg.SyncWorkers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
