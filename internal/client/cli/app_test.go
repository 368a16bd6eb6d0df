package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/transferguard/internal/client/models"
	"github.com/dmitrijs2005/transferguard/internal/client/services"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTS struct {
	services.TransferService

	sendPath string
	sendPass string

	recvID, recvOut, recvPass string

	deleted string

	list   []*models.Transfer
	chunks []*models.Chunk
	err    error
}

var sample = &models.Transfer{
	ID: "t-1", FileName: "report.pdf", Size: 2048, ChunkSize: 1024, TotalChunks: 2,
	Cipher: "aes-256-gcm", StorageBackend: "fs", Status: common.StatusCompleted,
	CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
}

func (f *fakeTS) Send(_ context.Context, path string, pass []byte) (*models.Transfer, error) {
	f.sendPath, f.sendPass = path, string(pass)
	return sample, f.err
}

func (f *fakeTS) Receive(_ context.Context, id, out string, pass []byte) (*models.Transfer, error) {
	f.recvID, f.recvOut, f.recvPass = id, out, string(pass)
	return sample, f.err
}

func (f *fakeTS) List(context.Context) ([]*models.Transfer, error) { return f.list, f.err }

func (f *fakeTS) Show(_ context.Context, id string) (*models.Transfer, []*models.Chunk, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return sample, f.chunks, nil
}

func (f *fakeTS) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

func newTestApp(ts services.TransferService, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return NewApp(ts, strings.NewReader(input), &out), &out
}

func TestApp_Send(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ts := &fakeTS{}
	app, out := newTestApp(ts, "pw\npw\n")

	require.NoError(t, app.Exec(context.Background(), []string{"send", "report.pdf"}))
	assert.Equal(t, "report.pdf", ts.sendPath)
	assert.Equal(t, "pw", ts.sendPass)
	assert.Contains(t, out.String(), "transfer id: t-1")
}

func TestApp_SendMismatchedPassphrase(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ts := &fakeTS{}
	app, _ := newTestApp(ts, "pw\nwp\n")

	err := app.Exec(context.Background(), []string{"send", "x"})
	require.ErrorIs(t, err, ErrPassphraseMismatch)
	assert.Empty(t, ts.sendPath, "service must not be called")
}

func TestApp_Receive(t *testing.T) {
	stubTerminal(t, true, []byte("tty-pw"), nil)
	ts := &fakeTS{}
	app, out := newTestApp(ts, "")

	require.NoError(t, app.Exec(context.Background(), []string{"receive", "t-1", "/tmp/out.pdf"}))
	assert.Equal(t, "t-1", ts.recvID)
	assert.Equal(t, "/tmp/out.pdf", ts.recvOut)
	assert.Equal(t, "tty-pw", ts.recvPass)
	assert.Contains(t, out.String(), "received report.pdf into /tmp/out.pdf")
}

func TestApp_ReceiveError(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ts := &fakeTS{err: common.ErrWrongPassphrase}
	app, _ := newTestApp(ts, "bad\n")

	err := app.Exec(context.Background(), []string{"receive", "t-1", "out"})
	require.ErrorIs(t, err, common.ErrWrongPassphrase)
}

func TestApp_ListShowDelete(t *testing.T) {
	ts := &fakeTS{
		list: []*models.Transfer{sample},
		chunks: []*models.Chunk{
			{TransferID: "t-1", ChunkID: 1, Size: 1024, Checksum: "aa", Status: common.StatusUploaded},
			{TransferID: "t-1", ChunkID: 2, Size: 1024, Checksum: "bb", Status: common.StatusUploaded},
		},
	}
	app, out := newTestApp(ts, "")
	ctx := context.Background()

	require.NoError(t, app.Exec(ctx, []string{"list"}))
	assert.Contains(t, out.String(), "t-1")
	assert.Contains(t, out.String(), "report.pdf")
	assert.Contains(t, out.String(), "2026-03-04 05:06:07")

	out.Reset()
	require.NoError(t, app.Exec(ctx, []string{"show", "t-1"}))
	assert.Contains(t, out.String(), "cipher:   aes-256-gcm")
	assert.Contains(t, out.String(), "#2")
	assert.Contains(t, out.String(), "bb")

	out.Reset()
	require.NoError(t, app.Exec(ctx, []string{"delete", "t-1"}))
	assert.Equal(t, "t-1", ts.deleted)
	assert.Equal(t, "deleted t-1\n", out.String())
}

func TestApp_ListEmpty(t *testing.T) {
	app, out := newTestApp(&fakeTS{}, "")
	require.NoError(t, app.Exec(context.Background(), []string{"list"}))
	assert.Equal(t, "no transfers\n", out.String())
}

func TestApp_Usage(t *testing.T) {
	app, _ := newTestApp(&fakeTS{}, "")
	ctx := context.Background()

	for _, args := range [][]string{
		nil,
		{"fly"},
		{"send"},
		{"receive", "only-id"},
		{"show"},
		{"delete", "a", "b"},
	} {
		err := app.Exec(ctx, args)
		assert.True(t, errors.Is(err, ErrUsage), "args %v: %v", args, err)
	}
}

func TestApp_RunUsesSameReaderForPassphrase(t *testing.T) {
	capturePrint(t)
	stubTerminal(t, false, nil, nil)

	ts := &fakeTS{}
	app, _ := newTestApp(ts, "receive t-1 out.bin\nmy pass\nexit\n")
	app.Run(context.Background())

	assert.Equal(t, "my pass", ts.recvPass)
}
