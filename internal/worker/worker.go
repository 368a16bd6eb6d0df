// Package worker implements the encryption and decryption workers.
//
// A Worker is an actor: a single goroutine (Run) owns the imported key and
// handles inbox messages strictly one at a time. Nothing but messages
// crosses the boundary; every failure, including a panic, becomes an error
// Response carrying the request's id.
package worker

import (
	"context"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/cryptox"
	"github.com/dmitrijs2005/transferguard/internal/logging"
)

// Mode fixes which operation a worker accepts.
type Mode int

const (
	ModeEncrypt Mode = iota + 1
	ModeDecrypt
)

func (m Mode) String() string {
	switch m {
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const defaultQueueSize = 16

type Worker struct {
	mode   Mode
	inbox  chan Request
	outbox chan Response
	done   chan struct{}
	logger logging.Logger

	// owned by the Run goroutine
	aead cipher.AEAD
}

type Option func(*Worker)

// WithLogger sets the logger; the default discards output.
func WithLogger(l logging.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithQueueSize sets the inbox and outbox capacity.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n >= 0 {
			w.inbox = make(chan Request, n)
			w.outbox = make(chan Response, n)
		}
	}
}

func New(mode Mode, opts ...Option) *Worker {
	w := &Worker{
		mode:   mode,
		inbox:  make(chan Request, defaultQueueSize),
		outbox: make(chan Response, defaultQueueSize),
		done:   make(chan struct{}),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("module", "worker", "mode", mode.String())
	return w
}

func (w *Worker) Mode() Mode { return w.mode }

// Inbox is where requests are posted. It is never closed; cancel the
// context passed to Run to stop the worker.
func (w *Worker) Inbox() chan<- Request { return w.inbox }

// Outbox carries replies. It is closed when Run returns.
func (w *Worker) Outbox() <-chan Response { return w.outbox }

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run processes requests until ctx is cancelled. It must be called once.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer close(w.outbox)

	w.logger.Debug(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			w.drainKeys()
			w.aead = nil
			w.logger.Debug(ctx, "worker stopped")
			return
		case req := <-w.inbox:
			resp := w.handle(ctx, req)
			select {
			case w.outbox <- resp:
			case <-ctx.Done():
				w.drainKeys()
				w.aead = nil
				return
			}
		}
	}
}

// drainKeys destroys key buffers of INIT requests still queued at shutdown.
func (w *Worker) drainKeys() {
	for {
		select {
		case req := <-w.inbox:
			if req.Key != nil {
				req.Key.Destroy()
			}
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, "recovered panic", "kind", req.Kind.String(), "id", req.ID, "panic", r)
			resp = w.fail(req, fmt.Errorf("panic: %v", r))
		}
	}()

	switch req.Kind {
	case KindInit:
		return w.init(ctx, req)
	case KindEncrypt, KindDecrypt:
		return w.process(ctx, req)
	default:
		return w.fail(req, fmt.Errorf("unknown message kind %s", req.Kind))
	}
}

func (w *Worker) init(ctx context.Context, req Request) Response {
	if req.Key != nil {
		defer req.Key.Destroy()
	}

	if w.aead != nil {
		return w.fail(req, common.ErrAlreadyInitialized)
	}
	if req.Key == nil {
		return w.fail(req, common.ErrInvalidKey)
	}

	aead, err := cryptox.NewAEAD(req.Cipher, req.Key.Bytes())
	if err != nil {
		w.logger.Warn(ctx, "key import failed", "error", err)
		return w.fail(req, err)
	}
	w.aead = aead

	w.logger.Debug(ctx, "key imported", "cipher", req.Cipher)
	return Response{Kind: KindReady, ID: req.ID, Seq: req.Seq}
}

func (w *Worker) process(ctx context.Context, req Request) Response {
	if (req.Kind == KindEncrypt) != (w.mode == ModeEncrypt) {
		return w.fail(req, common.ErrWrongMode)
	}
	if w.aead == nil {
		return w.fail(req, common.ErrUninitialized)
	}

	var (
		out []byte
		err error
	)
	if req.Kind == KindEncrypt {
		out, err = cryptox.SealFrame(w.aead, req.Chunk)
	} else {
		out, err = cryptox.OpenFrame(w.aead, req.Chunk)
	}
	if err != nil {
		w.logger.Warn(ctx, "chunk rejected", "kind", req.Kind.String(), "id", req.ID, "error", err)
		return w.fail(req, err)
	}

	w.logger.Debug(ctx, "chunk processed", "kind", req.Kind.String(), "id", req.ID, "bytes", len(out))
	return Response{Kind: req.Kind, ID: req.ID, Seq: req.Seq, Result: out}
}

func (w *Worker) fail(req Request, err error) Response {
	return Response{
		Kind: req.Kind,
		ID:   req.ID,
		Seq:  req.Seq,
		Err:  &Error{Kind: req.Kind, ID: req.ID, Err: err},
	}
}
