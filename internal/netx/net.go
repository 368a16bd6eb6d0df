// Package netx moves chunk frames to and from presigned URLs.
package netx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned by DownloadFromPresignedURL on 404.
var ErrNotFound = errors.New("object not found")

// HTTPClient is the subset of *http.Client used here.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultClient is used when a nil client is passed.
var DefaultClient HTTPClient = &http.Client{}

func clientOrDefault(c HTTPClient) HTTPClient {
	if c == nil {
		return DefaultClient
	}
	return c
}

// UploadToPresignedURL PUTs data to url.
func UploadToPresignedURL(ctx context.Context, c HTTPClient, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := clientOrDefault(c).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

// DownloadFromPresignedURL GETs the object behind url.
func DownloadFromPresignedURL(ctx context.Context, c HTTPClient, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := clientOrDefault(c).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}
}

// DeletePresignedURL issues DELETE against url. 404 counts as success.
func DeletePresignedURL(ctx context.Context, c HTTPClient, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := clientOrDefault(c).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete failed: %s; body: %s", resp.Status, string(b))
	}
}
