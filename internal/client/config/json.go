package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/transferguard/internal/flagx"
	"github.com/dmitrijs2005/transferguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero", so a file only overrides what it names.
type JsonConfig struct {
	DataDir        *string         `json:"data_dir"`
	DatabasePath   *string         `json:"database_path"`
	ChunkSize      *int            `json:"chunk_size"`
	Workers        *int            `json:"workers"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	Cipher         *string         `json:"cipher"`

	StorageBackend *string `json:"storage_backend"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`

	LogBackend *string `json:"log_backend"`
	LogLevel   *string `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read and decode
// errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.DatabasePath, jc.DatabasePath)
	set(&cfg.ChunkSize, jc.ChunkSize)
	set(&cfg.Workers, jc.Workers)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	set(&cfg.Cipher, jc.Cipher)

	set(&cfg.StorageBackend, jc.StorageBackend)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)

	set(&cfg.LogBackend, jc.LogBackend)
	set(&cfg.LogLevel, jc.LogLevel)
}
