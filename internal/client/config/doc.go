// Package config loads runtime configuration for the TransferGuard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// The result is validated; LoadConfig panics on a setting that cannot work.
//
// # JSON schema
//
// request_timeout uses timex.Duration, so it can be a string like "30s" or
// integer nanoseconds. chunk_size is in bytes (the -s flag takes KiB):
//
//	{
//	  "data_dir": "/var/lib/transferguard",
//	  "chunk_size": 4194304,
//	  "workers": 4,
//	  "request_timeout": "30s",
//	  "cipher": "aes-256-gcm",
//	  "storage_backend": "s3",
//	  "s3_bucket": "transfers",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000",
//	  "s3_access_key": "minioadmin",
//	  "s3_secret_key": "minioadmin",
//	  "log_backend": "zerolog",
//	  "log_level": "debug"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
