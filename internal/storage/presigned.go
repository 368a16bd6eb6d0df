package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/netx"
)

// Presigner hands out short-lived URLs for one object each.
type Presigner interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	PresignDelete(ctx context.Context, key string) (string, error)
}

var _ Presigner = (*S3Store)(nil)

// PresignedStore moves frames with plain HTTP against presigned URLs.
type PresignedStore struct {
	signer Presigner
	client netx.HTTPClient
}

// NewPresignedStore uses netx.DefaultClient when client is nil.
func NewPresignedStore(signer Presigner, client netx.HTTPClient) *PresignedStore {
	return &PresignedStore{signer: signer, client: client}
}

func (s *PresignedStore) Put(ctx context.Context, key string, data []byte) error {
	url, err := s.signer.PresignPut(ctx, key)
	if err != nil {
		return fmt.Errorf("presign put %s: %w", key, err)
	}
	return netx.UploadToPresignedURL(ctx, s.client, url, data)
}

func (s *PresignedStore) Get(ctx context.Context, key string) ([]byte, error) {
	url, err := s.signer.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign get %s: %w", key, err)
	}
	b, err := netx.DownloadFromPresignedURL(ctx, s.client, url)
	if errors.Is(err, netx.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, common.ErrorNotFound)
	}
	return b, err
}

func (s *PresignedStore) Delete(ctx context.Context, key string) error {
	url, err := s.signer.PresignDelete(ctx, key)
	if err != nil {
		return fmt.Errorf("presign delete %s: %w", key, err)
	}
	return netx.DeletePresignedURL(ctx, s.client, url)
}
