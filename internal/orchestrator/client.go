// Package orchestrator hides worker lifecycle and reply correlation behind
// blocking Encrypt/Decrypt calls.
//
// A Client owns one worker goroutine and one dispatcher goroutine. Each call
// registers a pending entry before its request is posted; the dispatcher
// routes the worker's reply back to that entry. Entries are removed on
// reply, on context cancellation or timeout, and on Terminate, which
// rejects whatever is still pending with common.ErrTerminated.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/logging"
	"github.com/dmitrijs2005/transferguard/internal/worker"
)

// State of a Client.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cryptor is the call surface shared by Client and Pool.
type Cryptor interface {
	Init(ctx context.Context, rawKey []byte) error
	Encrypt(ctx context.Context, chunk []byte, id int64) ([]byte, error)
	Decrypt(ctx context.Context, frame []byte, id int64) ([]byte, error)
	Terminate()
}

var (
	_ Cryptor = (*Client)(nil)
	_ Cryptor = (*Pool)(nil)
)

// actor is the part of *worker.Worker the client drives.
type actor interface {
	Run(ctx context.Context)
	Inbox() chan<- worker.Request
	Outbox() <-chan worker.Response
	Done() <-chan struct{}
}

var newWorker = func(mode worker.Mode, opts ...worker.Option) actor {
	return worker.New(mode, opts...)
}

type pendingRequest struct {
	id    int64
	kind  worker.Kind
	reply chan worker.Response
}

type Client struct {
	mode      worker.Mode
	w         actor
	stop      context.CancelFunc
	logger    logging.Logger
	timeout   time.Duration
	cipher    string
	queueSize int

	mu       sync.Mutex
	state    State
	seq      uint64
	pending  map[uint64]*pendingRequest
	inflight map[int64]uint64
	ready    chan worker.Response

	dispatched chan struct{}
	terminate  sync.Once
}

type Option func(*Client)

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRequestTimeout bounds every call; zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithCipher selects the AEAD imported at INIT (see cryptox.NewAEAD).
func WithCipher(name string) Option {
	return func(c *Client) { c.cipher = name }
}

// WithQueueSize sets the worker's inbox and outbox capacity.
func WithQueueSize(n int) Option {
	return func(c *Client) { c.queueSize = n }
}

// NewEncryptClient starts an encryption worker.
func NewEncryptClient(opts ...Option) *Client {
	return newClient(worker.ModeEncrypt, opts...)
}

// NewDecryptClient starts a decryption worker.
func NewDecryptClient(opts ...Option) *Client {
	return newClient(worker.ModeDecrypt, opts...)
}

// NewClient starts a worker in the given mode.
func NewClient(mode worker.Mode, opts ...Option) *Client {
	return newClient(mode, opts...)
}

func newClient(mode worker.Mode, opts ...Option) *Client {
	c := &Client{
		mode:       mode,
		logger:     logging.Nop(),
		queueSize:  -1,
		pending:    make(map[uint64]*pendingRequest),
		inflight:   make(map[int64]uint64),
		ready:      make(chan worker.Response, 1),
		dispatched: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "orchestrator", "mode", mode.String())

	wopts := []worker.Option{worker.WithLogger(c.logger)}
	if c.queueSize >= 0 {
		wopts = append(wopts, worker.WithQueueSize(c.queueSize))
	}
	c.w = newWorker(mode, wopts...)

	ctx, cancel := context.WithCancel(context.Background())
	c.stop = cancel

	go c.w.Run(ctx)
	go c.dispatch()

	return c
}

func (c *Client) Mode() worker.Mode { return c.mode }

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending reports how many calls are waiting for a reply.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Init sends rawKey to the worker and waits for READY.
//
// rawKey is moved into locked memory and wiped before Init returns, whether
// or not initialization succeeds. A failed Init terminates the client; start
// a fresh one to retry.
func (c *Client) Init(ctx context.Context, rawKey []byte) error {
	c.mu.Lock()
	switch c.state {
	case StateTerminated:
		c.mu.Unlock()
		common.WipeByteArray(rawKey)
		return common.ErrTerminated
	case StateInitializing, StateReady:
		c.mu.Unlock()
		common.WipeByteArray(rawKey)
		return common.ErrAlreadyInitialized
	}
	c.state = StateInitializing
	c.mu.Unlock()

	key := memguard.NewBufferFromBytes(rawKey)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.post(ctx, worker.Request{Kind: worker.KindInit, Key: key, Cipher: c.cipher}); err != nil {
		key.Destroy()
		c.Terminate()
		return fmt.Errorf("init: %w", err)
	}

	select {
	case resp := <-c.ready:
		if resp.Err != nil {
			c.logger.Warn(ctx, "worker initialization failed", "error", resp.Err)
			c.Terminate()
			return resp.Err
		}
	case <-ctx.Done():
		c.Terminate()
		return fmt.Errorf("init: %w", ctx.Err())
	case <-c.dispatched:
		return common.ErrTerminated
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInitializing {
		return common.ErrTerminated
	}
	c.state = StateReady
	return nil
}

// Encrypt hands chunk to the worker and returns nonce||ciphertext||tag.
// The caller must not touch chunk after the call.
func (c *Client) Encrypt(ctx context.Context, chunk []byte, id int64) ([]byte, error) {
	return c.call(ctx, worker.KindEncrypt, chunk, id)
}

// Decrypt hands frame to the worker and returns the plaintext, which is
// decrypted in place inside frame's backing array.
func (c *Client) Decrypt(ctx context.Context, frame []byte, id int64) ([]byte, error) {
	return c.call(ctx, worker.KindDecrypt, frame, id)
}

func (c *Client) call(ctx context.Context, kind worker.Kind, chunk []byte, id int64) ([]byte, error) {
	p, seq, err := c.register(kind, id)
	if err != nil {
		return nil, &worker.Error{Kind: kind, ID: id, Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.post(ctx, worker.Request{Kind: kind, ID: id, Seq: seq, Chunk: chunk}); err != nil {
		c.forget(seq)
		return nil, &worker.Error{Kind: kind, ID: id, Err: err}
	}

	select {
	case resp := <-p.reply:
		if resp.Err != nil {
			return nil, resp.Err
		}
		return resp.Result, nil
	case <-ctx.Done():
		if c.forget(seq) {
			return nil, &worker.Error{Kind: kind, ID: id, Err: ctx.Err()}
		}
		// the dispatcher won the race
		resp := <-p.reply
		if resp.Err != nil {
			return nil, resp.Err
		}
		return resp.Result, nil
	}
}

func (c *Client) register(kind worker.Kind, id int64) (*pendingRequest, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCreated, StateInitializing:
		return nil, 0, common.ErrUninitialized
	case StateTerminated:
		return nil, 0, common.ErrTerminated
	}
	if _, busy := c.inflight[id]; busy {
		return nil, 0, common.ErrDuplicateID
	}

	c.seq++
	p := &pendingRequest{id: id, kind: kind, reply: make(chan worker.Response, 1)}
	c.pending[c.seq] = p
	c.inflight[id] = c.seq
	return p, c.seq, nil
}

// forget drops a pending entry and reports whether it was still there.
func (c *Client) forget(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[seq]
	if !ok {
		return false
	}
	delete(c.pending, seq)
	delete(c.inflight, p.id)
	return true
}

func (c *Client) post(ctx context.Context, req worker.Request) error {
	select {
	case c.w.Inbox() <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.w.Done():
		return common.ErrTerminated
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) dispatch() {
	defer close(c.dispatched)

	for resp := range c.w.Outbox() {
		if resp.Kind == worker.KindReady || resp.Kind == worker.KindInit {
			select {
			case c.ready <- resp:
			default:
				c.logger.Warn(context.Background(), "unexpected init reply dropped")
			}
			continue
		}

		c.mu.Lock()
		p, ok := c.pending[resp.Seq]
		if ok {
			delete(c.pending, resp.Seq)
			delete(c.inflight, p.id)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug(context.Background(), "reply for abandoned request dropped", "id", resp.ID)
			continue
		}
		p.reply <- resp
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateTerminated
	for seq, p := range c.pending {
		p.reply <- worker.Response{
			Kind: p.kind,
			ID:   p.id,
			Seq:  seq,
			Err:  &worker.Error{Kind: p.kind, ID: p.id, Err: common.ErrTerminated},
		}
	}
	clear(c.pending)
	clear(c.inflight)
}

// Terminate stops the worker and rejects every pending call with
// common.ErrTerminated. It is safe to call more than once.
func (c *Client) Terminate() {
	c.terminate.Do(func() {
		c.mu.Lock()
		c.state = StateTerminated
		c.mu.Unlock()
		c.stop()
	})
	<-c.dispatched
}

// IsTerminated reports whether err means the worker is gone.
func IsTerminated(err error) bool {
	return errors.Is(err, common.ErrTerminated)
}
