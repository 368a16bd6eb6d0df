package worker

import (
	"context"
	"crypto/cipher"
	"errors"
	"testing"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, mode Mode) *Worker {
	t.Helper()
	w := New(mode)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return w
}

func roundTrip(t *testing.T, w *Worker, req Request) Response {
	t.Helper()
	select {
	case w.Inbox() <- req:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not accept %s", req.Kind)
	}
	select {
	case resp := <-w.Outbox():
		return resp
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not answer %s", req.Kind)
	}
	return Response{}
}

func initWorker(t *testing.T, w *Worker, key []byte) {
	t.Helper()
	resp := roundTrip(t, w, Request{Kind: KindInit, Key: memguard.NewBufferFromBytes(append([]byte(nil), key...))})
	require.NoError(t, resp.Err)
	require.Equal(t, KindReady, resp.Kind)
}

func TestWorker_EncryptDecryptRoundTrip(t *testing.T) {
	key := cryptox.GenerateKey()
	enc := start(t, ModeEncrypt)
	dec := start(t, ModeDecrypt)
	initWorker(t, enc, key)
	initWorker(t, dec, key)

	resp := roundTrip(t, enc, Request{Kind: KindEncrypt, ID: 1, Chunk: []byte("TransferGuardTes")})
	require.NoError(t, resp.Err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Len(t, resp.Result, 44)

	resp = roundTrip(t, dec, Request{Kind: KindDecrypt, ID: 1, Chunk: resp.Result})
	require.NoError(t, resp.Err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, []byte("TransferGuardTes"), resp.Result)
}

func TestWorker_RequestsBeforeInitAreRejected(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		kind Kind
	}{
		{ModeEncrypt, KindEncrypt},
		{ModeDecrypt, KindDecrypt},
	} {
		w := start(t, tc.mode)
		resp := roundTrip(t, w, Request{Kind: tc.kind, ID: 42, Chunk: make([]byte, 64)})

		require.ErrorIs(t, resp.Err, common.ErrUninitialized)
		assert.Equal(t, int64(42), resp.ID)
		assert.Nil(t, resp.Result)

		var werr *Error
		require.True(t, errors.As(resp.Err, &werr))
		assert.Equal(t, tc.kind, werr.Kind)
		assert.Equal(t, int64(42), werr.ID)
	}
}

func TestWorker_InitTwiceFails(t *testing.T) {
	w := start(t, ModeEncrypt)
	initWorker(t, w, cryptox.GenerateKey())

	second := memguard.NewBufferFromBytes(cryptox.GenerateKey())
	resp := roundTrip(t, w, Request{Kind: KindInit, Key: second})

	require.ErrorIs(t, resp.Err, common.ErrAlreadyInitialized)
	assert.Equal(t, KindInit, resp.Kind)
	assert.False(t, second.IsAlive(), "rejected key buffer must still be destroyed")
}

func TestWorker_InitRejectsBadKeys(t *testing.T) {
	w := start(t, ModeDecrypt)

	resp := roundTrip(t, w, Request{Kind: KindInit})
	require.ErrorIs(t, resp.Err, common.ErrInvalidKey)

	short := memguard.NewBufferFromBytes(make([]byte, 16))
	resp = roundTrip(t, w, Request{Kind: KindInit, Key: short})
	require.ErrorIs(t, resp.Err, common.ErrInvalidKey)
	assert.False(t, short.IsAlive())

	resp = roundTrip(t, w, Request{Kind: KindDecrypt, ID: 3, Chunk: make([]byte, 64)})
	require.ErrorIs(t, resp.Err, common.ErrUninitialized, "failed INIT must leave the worker uninitialized")
}

func TestWorker_ImportedKeyBufferIsDestroyed(t *testing.T) {
	w := start(t, ModeEncrypt)
	raw := cryptox.GenerateKey()
	buf := memguard.NewBufferFromBytes(raw)

	assert.Equal(t, make([]byte, cryptox.KeySize), raw, "NewBufferFromBytes wipes the source slice")

	resp := roundTrip(t, w, Request{Kind: KindInit, Key: buf})
	require.NoError(t, resp.Err)
	assert.False(t, buf.IsAlive())
}

func TestWorker_WrongModeIsRejected(t *testing.T) {
	key := cryptox.GenerateKey()
	enc := start(t, ModeEncrypt)
	initWorker(t, enc, key)

	resp := roundTrip(t, enc, Request{Kind: KindDecrypt, ID: 5, Chunk: make([]byte, 64)})
	require.ErrorIs(t, resp.Err, common.ErrWrongMode)
	assert.Equal(t, int64(5), resp.ID)
}

func TestWorker_TamperedFrameIsAuthenticationError(t *testing.T) {
	key := cryptox.GenerateKey()
	enc := start(t, ModeEncrypt)
	dec := start(t, ModeDecrypt)
	initWorker(t, enc, key)
	initWorker(t, dec, key)

	resp := roundTrip(t, enc, Request{Kind: KindEncrypt, ID: 9, Chunk: []byte("payload")})
	require.NoError(t, resp.Err)
	frame := resp.Result
	frame[len(frame)-1] ^= 0x01

	resp = roundTrip(t, dec, Request{Kind: KindDecrypt, ID: 9, Chunk: frame})
	require.ErrorIs(t, resp.Err, common.ErrAuthentication)
	assert.Nil(t, resp.Result)
	assert.Equal(t, int64(9), resp.ID)

	resp = roundTrip(t, dec, Request{Kind: KindDecrypt, ID: 10, Chunk: []byte("tiny")})
	require.ErrorIs(t, resp.Err, common.ErrFrameTooShort)
}

func TestWorker_RepliesInArrivalOrder(t *testing.T) {
	w := start(t, ModeEncrypt)
	initWorker(t, w, cryptox.GenerateKey())

	const n = 10
	go func() {
		for i := int64(1); i <= n; i++ {
			w.Inbox() <- Request{Kind: KindEncrypt, ID: i, Seq: uint64(i), Chunk: []byte{byte(i)}}
		}
	}()

	for i := int64(1); i <= n; i++ {
		select {
		case resp := <-w.Outbox():
			require.NoError(t, resp.Err)
			assert.Equal(t, i, resp.ID)
			assert.Equal(t, uint64(i), resp.Seq)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for reply %d", i)
		}
	}
}

func TestWorker_UnknownKind(t *testing.T) {
	w := start(t, ModeEncrypt)
	resp := roundTrip(t, w, Request{Kind: Kind(99), ID: 1})
	require.Error(t, resp.Err)
	assert.Contains(t, resp.Err.Error(), "unknown message kind")
}

type panickyAEAD struct{ cipher.AEAD }

func (panickyAEAD) NonceSize() int { return cryptox.NonceSize }
func (panickyAEAD) Overhead() int  { return cryptox.TagSize }
func (panickyAEAD) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	panic("boom")
}

func TestWorker_PanicBecomesErrorReply(t *testing.T) {
	w := New(ModeEncrypt)
	w.aead = panickyAEAD{}

	resp := w.handle(context.Background(), Request{Kind: KindEncrypt, ID: 77, Chunk: []byte("x")})
	require.Error(t, resp.Err)
	assert.Equal(t, int64(77), resp.ID)
	assert.Contains(t, resp.Err.Error(), "panic: boom")
}

func TestWorker_RunClosesChannelsOnCancel(t *testing.T) {
	w := New(ModeDecrypt)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	_, ok := <-w.Outbox()
	assert.False(t, ok, "outbox must be closed")
}

func TestError_Message(t *testing.T) {
	e := &Error{Kind: KindDecrypt, ID: 4, Err: common.ErrAuthentication}
	assert.Equal(t, "worker DECRYPT id=4: message authentication failed", e.Error())

	e = &Error{Kind: KindInit, Err: common.ErrInvalidKey}
	assert.Equal(t, "worker INIT: invalid key", e.Error())

	assert.Equal(t, "READY", KindReady.String())
	assert.Equal(t, "decrypt", ModeDecrypt.String())
}
