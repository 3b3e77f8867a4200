package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cruxlog/cruxlog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	LocalDBPath     string         `json:"local_db_path"`
	RemoteDSN       string         `json:"remote_dsn"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	SyncInterval    timex.Duration `json:"sync_interval"`
	PullInterval    timex.Duration `json:"pull_interval"`
	CallTimeout     timex.Duration `json:"call_timeout"`
	MaxSyncAttempts int            `json:"max_sync_attempts"`
	SyncWorkers     int            `json:"sync_workers"`
}

// parseJson overlays cfg with values loaded from the JSON file at path.
// An empty path is a no-op. Only fields present in the file override the
// defaults; zero values are left alone.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.PullInterval.Duration != 0 {
		cfg.PullInterval = time.Duration(jc.PullInterval.Duration)
	}
	if jc.CallTimeout.Duration != 0 {
		cfg.CallTimeout = time.Duration(jc.CallTimeout.Duration)
	}
	if jc.MaxSyncAttempts != 0 {
		cfg.MaxSyncAttempts = jc.MaxSyncAttempts
	}
	if jc.SyncWorkers != 0 {
		cfg.SyncWorkers = jc.SyncWorkers
	}
	return nil
}
