package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"data_dir":         "/srv/tg",
		"chunk_size":       65536,
		"workers":          2,
		"request_timeout":  "10s",
		"cipher":           "chacha20-poly1305",
		"storage_backend":  "presigned",
		"s3_bucket":        "frames",
		"s3_base_endpoint": "http://127.0.0.1:9000",
		"log_backend":      "json",
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := defaults()
		parseJson(cfg, []string{"-config", path})

		want := defaults()
		want.DataDir = "/srv/tg"
		want.ChunkSize = 65536
		want.Workers = 2
		want.RequestTimeout = 10 * time.Second
		want.Cipher = "chacha20-poly1305"
		want.StorageBackend = "presigned"
		want.S3Bucket = "frames"
		want.S3BaseEndpoint = "http://127.0.0.1:9000"
		want.LogBackend = "json"

		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		cfg := defaults()
		parseJson(cfg, []string{"-c", path})

		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("no flags means no changes", func(t *testing.T) {
		cfg := defaults()
		parseJson(cfg, []string{"-w", "9"})
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("flags override json", func(t *testing.T) {
		cfg := LoadConfig([]string{"-c", path, "-w", "6"})
		assert.Equal(t, 6, cfg.Workers)
		assert.Equal(t, 65536, cfg.ChunkSize)
	})
}

func Test_parseJson_NumericTimeout(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"request_timeout": int64(2 * time.Second)})

	cfg := defaults()
	parseJson(cfg, []string{"-c", path})
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func Test_parseJson_Panics(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		require.Panics(t, func() {
			parseJson(defaults(), []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		})
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		require.Panics(t, func() { parseJson(defaults(), []string{"-c", path}) })
	})
}

func TestLoadConfig_OddChunkSizeSurvivesFlags(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"chunk_size": 1000})

	cfg := LoadConfig([]string{"-c", path, "-w", "2"})
	assert.Equal(t, 1000, cfg.ChunkSize)
}
