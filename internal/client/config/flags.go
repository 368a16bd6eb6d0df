package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/transferguard/internal/flagx"
)

var configFlags = []string{
	"-d", "-db", "-s", "-w", "-t", "-cipher",
	"-storage", "-bucket", "-region", "-endpoint", "-access-key", "-secret-key",
	"-log", "-log-level",
}

// ValuedFlags lists every flag parseFlags understands plus the config file
// flags; all of them take a value. Callers use it to find the positional
// command words in os.Args.
var ValuedFlags = append(append([]string{}, configFlags...), flagx.ConfigFileFlags...)

// parseFlags populates Config fields from command-line flags.
//
//	-d string           data directory
//	-db string          manifest database path (default <data dir>/manifest.db)
//	-s int              chunk size in KiB
//	-w int              number of workers per direction
//	-t int              per-request timeout in seconds, 0 disables
//	-cipher string      aes-256-gcm | chacha20-poly1305
//	-storage string     fs | s3 | presigned
//	-bucket, -region, -endpoint, -access-key, -secret-key   S3 settings
//	-log string         text | json | zerolog
//	-log-level string   debug | info | warn | error
//
// Arguments are filtered with flagx.FilterArgs so the command words the CLI
// reads later do not stop the parse.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, configFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "manifest database path")
	chunkKiB := fs.Int("s", cfg.ChunkSize/1024, "chunk size (in KiB)")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "workers per direction")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.Cipher, "cipher", cfg.Cipher, "chunk cipher")

	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "storage backend")
	fs.StringVar(&cfg.S3Bucket, "bucket", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "secret-key", cfg.S3SecretKey, "S3 secret key")

	fs.StringVar(&cfg.LogBackend, "log", cfg.LogBackend, "log backend")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// unit-converted flags only apply when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.ChunkSize = *chunkKiB * 1024
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
