package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/worker"
	"golang.org/x/sync/errgroup"
)

// Pool spreads calls over several clients of the same mode. Ids must be
// unique across the whole pool, not just per client.
type Pool struct {
	mode    worker.Mode
	clients []*Client
	next    atomic.Uint64

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// NewPool starts size clients; size below 1 is treated as 1.
func NewPool(mode worker.Mode, size int, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		mode:     mode,
		clients:  make([]*Client, size),
		inflight: make(map[int64]struct{}),
	}
	for i := range p.clients {
		p.clients[i] = newClient(mode, opts...)
	}
	return p
}

func (p *Pool) Size() int { return len(p.clients) }

func (p *Pool) Mode() worker.Mode { return p.mode }

// Init imports a copy of rawKey into every client. rawKey is wiped before
// Init returns. If any client fails the whole pool is terminated.
func (p *Pool) Init(ctx context.Context, rawKey []byte) error {
	defer common.WipeByteArray(rawKey)

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range p.clients {
		key := make([]byte, len(rawKey))
		copy(key, rawKey)
		g.Go(func() error {
			return c.Init(ctx, key)
		})
	}

	if err := g.Wait(); err != nil {
		p.Terminate()
		return fmt.Errorf("pool init: %w", err)
	}
	return nil
}

func (p *Pool) Encrypt(ctx context.Context, chunk []byte, id int64) ([]byte, error) {
	return p.call(ctx, worker.KindEncrypt, chunk, id)
}

func (p *Pool) Decrypt(ctx context.Context, frame []byte, id int64) ([]byte, error) {
	return p.call(ctx, worker.KindDecrypt, frame, id)
}

func (p *Pool) call(ctx context.Context, kind worker.Kind, chunk []byte, id int64) ([]byte, error) {
	p.mu.Lock()
	if _, busy := p.inflight[id]; busy {
		p.mu.Unlock()
		return nil, &worker.Error{Kind: kind, ID: id, Err: common.ErrDuplicateID}
	}
	p.inflight[id] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inflight, id)
		p.mu.Unlock()
	}()

	c := p.clients[(p.next.Add(1)-1)%uint64(len(p.clients))]
	if kind == worker.KindEncrypt {
		return c.Encrypt(ctx, chunk, id)
	}
	return c.Decrypt(ctx, chunk, id)
}

// Terminate stops every client.
func (p *Pool) Terminate() {
	var wg sync.WaitGroup
	for _, c := range p.clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Terminate()
		}()
	}
	wg.Wait()
}
