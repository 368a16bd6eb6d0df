package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/transferguard/internal/chunkio"
	"github.com/dmitrijs2005/transferguard/internal/cryptox"
	"github.com/dmitrijs2005/transferguard/internal/logging"
	"github.com/dmitrijs2005/transferguard/internal/storage"
)

// Config holds runtime settings for the TransferGuard CLI.
//
// ChunkSize is in bytes. RequestTimeout bounds a single encrypt or decrypt
// call; zero disables it.
type Config struct {
	DataDir        string
	DatabasePath   string
	ChunkSize      int
	Workers        int
	RequestTimeout time.Duration
	Cipher         string

	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	LogBackend string
	LogLevel   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = ".transferguard"
	c.DatabasePath = ""
	c.ChunkSize = chunkio.DefaultChunkSize
	c.Workers = 4
	c.RequestTimeout = 30 * time.Second
	c.Cipher = cryptox.CipherAES256GCM
	c.StorageBackend = storage.BackendFS
	c.S3Region = "us-east-1"
	c.LogBackend = logging.BackendSlogText
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file and flags found
// in args (os.Args[1:] in production). Later sources win.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.ChunkSize <= 0 || c.ChunkSize > chunkio.MaxChunkSize:
		return fmt.Errorf("chunk size %d out of range (1..%d)", c.ChunkSize, chunkio.MaxChunkSize)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.RequestTimeout < 0:
		return fmt.Errorf("negative request timeout %s", c.RequestTimeout)
	case !cryptox.ValidCipher(c.Cipher):
		return fmt.Errorf("unsupported cipher %q", c.Cipher)
	}

	switch c.StorageBackend {
	case storage.BackendFS:
	case storage.BackendS3, storage.BackendPresigned:
		if c.S3Bucket == "" {
			return fmt.Errorf("storage backend %q needs a bucket", c.StorageBackend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	return nil
}

// DBPath is DatabasePath, or manifest.db inside DataDir when unset.
func (c *Config) DBPath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "manifest.db")
}

// ChunkDir is where the fs backend keeps frames.
func (c *Config) ChunkDir() string {
	return filepath.Join(c.DataDir, "chunks")
}

// Storage maps the settings onto storage.Config.
func (c *Config) Storage(l logging.Logger) storage.Config {
	return storage.Config{
		Backend: c.StorageBackend,
		Dir:     c.ChunkDir(),
		Logger:  l,
		S3: storage.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		},
	}
}
