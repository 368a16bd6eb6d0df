// Package chunkio cuts a plaintext stream into numbered chunks and puts
// decrypted chunks back together in order.
package chunkio

import (
	"errors"
	"fmt"
	"io"
)

const (
	DefaultChunkSize = 4 << 20
	MaxChunkSize     = 64 << 20
)

var (
	ErrMissingChunks   = errors.New("missing chunks")
	ErrDuplicateChunk  = errors.New("duplicate chunk")
	ErrChunkOutOfRange = errors.New("chunk id out of range")
	ErrInvalidSize     = errors.New("invalid chunk size")
)

// Chunk is one slice of the stream. Ids start at 1.
type Chunk struct {
	ID   int64
	Data []byte
}

type Reader struct {
	r    io.Reader
	size int
	next int64
	err  error
}

// NewReader returns a Reader producing chunks of at most size bytes.
// A size of 0 selects DefaultChunkSize.
func NewReader(r io.Reader, size int) (*Reader, error) {
	if size == 0 {
		size = DefaultChunkSize
	}
	if size < 0 || size > MaxChunkSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Reader{r: r, size: size, next: 1}, nil
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// Every chunk but the last is exactly the configured size. Each call
// allocates a fresh buffer, so chunks may be handed off freely.
func (r *Reader) Next() (Chunk, error) {
	if r.err != nil {
		return Chunk{}, r.err
	}

	buf := make([]byte, r.size)
	n, err := io.ReadFull(r.r, buf)
	switch {
	case errors.Is(err, io.EOF):
		r.err = io.EOF
		return Chunk{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.err = io.EOF
	case err != nil:
		r.err = err
		return Chunk{}, fmt.Errorf("read chunk %d: %w", r.next, err)
	}

	c := Chunk{ID: r.next, Data: buf[:n]}
	r.next++
	return c, nil
}

// Count is the number of chunks a stream of n bytes splits into.
func Count(n int64, size int) int64 {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	return (n + int64(size) - 1) / int64(size)
}
