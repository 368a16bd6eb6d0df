// Package storage keeps ciphertext frames somewhere other than the client's
// memory: a local directory, an S3-compatible bucket, or presigned URLs.
//
// Stores see only opaque frames; nothing here touches keys or plaintext.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/transferguard/internal/logging"
)

const (
	BackendFS        = "fs"
	BackendS3        = "s3"
	BackendPresigned = "presigned"
)

// Store holds frames by key. Get returns common.ErrorNotFound for a
// missing key; Delete of a missing key succeeds.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ChunkKey is where chunk chunkID of a transfer is stored.
func ChunkKey(transferID string, chunkID int64) string {
	return fmt.Sprintf("transfers/%s/%d.enc", transferID, chunkID)
}

type Config struct {
	Backend string
	Dir     string
	S3      S3Config
	Logger  logging.Logger
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendFS, "":
		return NewFSStore(cfg.Dir)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3, cfg.Logger)
	case BackendPresigned:
		s3s, err := NewS3Store(ctx, cfg.S3, cfg.Logger)
		if err != nil {
			return nil, err
		}
		return NewPresignedStore(s3s, nil), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
