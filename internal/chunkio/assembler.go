package chunkio

import (
	"fmt"
	"io"
	"sync"
)

// Assembler writes chunks to w in id order. Chunks that arrive ahead of
// their turn are held until the gap before them fills. Safe for
// concurrent Put.
type Assembler struct {
	mu      sync.Mutex
	w       io.Writer
	total   int64
	next    int64
	held    map[int64][]byte
	written int64
	err     error
}

// NewAssembler expects exactly total chunks numbered 1..total.
func NewAssembler(w io.Writer, total int64) *Assembler {
	return &Assembler{
		w:     w,
		total: total,
		next:  1,
		held:  make(map[int64][]byte),
	}
}

func (a *Assembler) Put(id int64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	if id < 1 || id > a.total {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrChunkOutOfRange, id, a.total)
	}
	if _, ok := a.held[id]; ok || id < a.next {
		return fmt.Errorf("%w: %d", ErrDuplicateChunk, id)
	}

	a.held[id] = data
	for {
		buf, ok := a.held[a.next]
		if !ok {
			return nil
		}
		delete(a.held, a.next)
		n, err := a.w.Write(buf)
		a.written += int64(n)
		if err != nil {
			a.err = fmt.Errorf("write chunk %d: %w", a.next, err)
			return a.err
		}
		a.next++
	}
}

// Written is the number of bytes flushed to the writer so far.
func (a *Assembler) Written() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.written
}

// Close reports ErrMissingChunks unless every chunk has been written.
func (a *Assembler) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	if a.next <= a.total {
		return fmt.Errorf("%w: %d of %d written, %d held", ErrMissingChunks, a.next-1, a.total, len(a.held))
	}
	return nil
}
