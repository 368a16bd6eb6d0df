// Package services implements the client's transfer use cases on top of the
// crypto core, the chunk store and the local manifest.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/transferguard/internal/chunkio"
	"github.com/dmitrijs2005/transferguard/internal/client/client"
	"github.com/dmitrijs2005/transferguard/internal/client/models"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/cryptox"
	"github.com/dmitrijs2005/transferguard/internal/dbx"
	"github.com/dmitrijs2005/transferguard/internal/logging"
	"github.com/dmitrijs2005/transferguard/internal/orchestrator"
	"github.com/dmitrijs2005/transferguard/internal/storage"
	"github.com/dmitrijs2005/transferguard/internal/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TransferService interface {
	// Send encrypts the file at path chunk by chunk and stores the frames.
	Send(ctx context.Context, path string, passphrase []byte) (*models.Transfer, error)
	// Receive fetches, decrypts and verifies every chunk of transfer id and
	// writes the file to outPath.
	Receive(ctx context.Context, id string, outPath string, passphrase []byte) (*models.Transfer, error)
	List(ctx context.Context) ([]*models.Transfer, error)
	Show(ctx context.Context, id string) (*models.Transfer, []*models.Chunk, error)
	// Delete removes the stored frames and the manifest rows.
	Delete(ctx context.Context, id string) error
}

type Options struct {
	ChunkSize      int
	Workers        int
	Cipher         string
	RequestTimeout time.Duration
	StorageBackend string
	Logger         logging.Logger
}

type transferService struct {
	db     *sql.DB
	repos  *client.Repositories
	store  storage.Store
	opts   Options
	logger logging.Logger
}

var newPool = func(mode worker.Mode, size int, opts ...orchestrator.Option) orchestrator.Cryptor {
	return orchestrator.NewPool(mode, size, opts...)
}

func NewTransferService(db *sql.DB, store storage.Store, opts Options) TransferService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = chunkio.DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &transferService{
		db:     db,
		repos:  client.NewRepositories(db),
		store:  store,
		opts:   opts,
		logger: opts.Logger.With("module", "transfers"),
	}
}

// startPool imports key into a fresh pool; key is wiped either way.
func (s *transferService) startPool(ctx context.Context, mode worker.Mode, cipher string, key []byte) (orchestrator.Cryptor, error) {
	p := newPool(mode, s.opts.Workers,
		orchestrator.WithCipher(cipher),
		orchestrator.WithRequestTimeout(s.opts.RequestTimeout),
		orchestrator.WithLogger(s.opts.Logger),
	)
	if err := p.Init(ctx, key); err != nil {
		p.Terminate()
		return nil, err
	}
	return p, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *transferService) Send(ctx context.Context, path string, passphrase []byte) (*models.Transfer, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	t := &models.Transfer{
		ID:             uuid.NewString(),
		FileName:       filepath.Base(path),
		Size:           fi.Size(),
		ChunkSize:      s.opts.ChunkSize,
		TotalChunks:    chunkio.Count(fi.Size(), s.opts.ChunkSize),
		Cipher:         s.opts.Cipher,
		Salt:           common.GenerateRandByteArray(cryptox.SaltSize),
		StorageBackend: s.opts.StorageBackend,
		Status:         common.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if t.Cipher == "" {
		t.Cipher = cryptox.CipherAES256GCM
	}

	master := cryptox.DeriveMasterKey(passphrase, t.Salt)
	defer common.WipeByteArray(master)
	t.Verifier = cryptox.MakeVerifier(master)

	fileKey, err := cryptox.DeriveFileKey(master, []byte(t.ID))
	if err != nil {
		return nil, err
	}

	reader, err := chunkio.NewReader(f, s.opts.ChunkSize)
	if err != nil {
		common.WipeByteArray(fileKey)
		return nil, err
	}

	if err := s.repos.Transfers.Create(ctx, t); err != nil {
		common.WipeByteArray(fileKey)
		return nil, fmt.Errorf("saving error: %w", err)
	}

	log := s.logger.With("transfer_id", t.ID)

	if err := s.upload(ctx, t, reader, fileKey); err != nil {
		log.Error(ctx, "send failed", "error", err)
		if uerr := s.repos.Transfers.UpdateStatus(context.WithoutCancel(ctx), t.ID, common.StatusFailed); uerr != nil {
			log.Warn(ctx, "could not mark transfer failed", "error", uerr)
		}
		return nil, err
	}

	if err := s.repos.Transfers.UpdateStatus(ctx, t.ID, common.StatusCompleted); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	t.Status = common.StatusCompleted

	log.Info(ctx, "transfer sent", "file", t.FileName, "bytes", t.Size, "chunks", t.TotalChunks)
	return t, nil
}

func (s *transferService) upload(ctx context.Context, t *models.Transfer, reader *chunkio.Reader, fileKey []byte) error {

	pool, err := s.startPool(ctx, worker.ModeEncrypt, t.Cipher, fileKey)
	if err != nil {
		return fmt.Errorf("encryption setup: %w", err)
	}
	defer pool.Terminate()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2 * s.opts.Workers)

	var read int64
	for gctx.Err() == nil {
		c, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			g.Go(func() error { return err })
			break
		}
		read++

		row := &models.Chunk{
			TransferID: t.ID,
			ChunkID:    c.ID,
			Size:       len(c.Data),
			Checksum:   checksum(c.Data),
			StorageKey: storage.ChunkKey(t.ID, c.ID),
			Status:     common.StatusPending,
		}
		if err := s.repos.Chunks.Upsert(gctx, row); err != nil {
			g.Go(func() error { return err })
			break
		}

		g.Go(func() error {
			frame, err := pool.Encrypt(gctx, c.Data, c.ID)
			if err != nil {
				return fmt.Errorf("encrypt chunk %d: %w", c.ID, err)
			}
			if err := s.store.Put(gctx, row.StorageKey, frame); err != nil {
				return fmt.Errorf("store chunk %d: %w", c.ID, err)
			}
			return s.repos.Chunks.MarkUploaded(gctx, t.ID, c.ID)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if read != t.TotalChunks {
		return fmt.Errorf("file changed while sending: read %d chunks, expected %d", read, t.TotalChunks)
	}

	pending, err := s.repos.Chunks.CountPending(ctx, t.ID)
	if err != nil {
		return err
	}
	if pending != 0 {
		return fmt.Errorf("%d chunks not uploaded", pending)
	}
	return nil
}

func (s *transferService) Receive(ctx context.Context, id string, outPath string, passphrase []byte) (*models.Transfer, error) {

	t, err := s.repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != common.StatusCompleted {
		return nil, fmt.Errorf("transfer %s is %s: %w", id, t.Status, common.ErrTransferNotReady)
	}

	master := cryptox.DeriveMasterKey(passphrase, t.Salt)
	defer common.WipeByteArray(master)
	if !cryptox.CheckVerifier(master, t.Verifier) {
		return nil, common.ErrWrongPassphrase
	}

	chunks, err := s.repos.Chunks.ListByTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if int64(len(chunks)) != t.TotalChunks {
		return nil, fmt.Errorf("%w: manifest lists %d of %d", chunkio.ErrMissingChunks, len(chunks), t.TotalChunks)
	}

	fileKey, err := cryptox.DeriveFileKey(master, []byte(t.ID))
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		common.WipeByteArray(fileKey)
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	out, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".*")
	if err != nil {
		common.WipeByteArray(fileKey)
		return nil, fmt.Errorf("create output: %w", err)
	}
	tmp := out.Name()

	err = s.download(ctx, t, chunks, fileKey, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, outPath)
	}
	if err != nil {
		_ = os.Remove(tmp)
		s.logger.Error(ctx, "receive failed", "transfer_id", id, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "transfer received", "transfer_id", id, "path", outPath, "bytes", t.Size)
	return t, nil
}

func (s *transferService) download(ctx context.Context, t *models.Transfer, chunks []*models.Chunk, fileKey []byte, out *os.File) error {

	pool, err := s.startPool(ctx, worker.ModeDecrypt, t.Cipher, fileKey)
	if err != nil {
		return fmt.Errorf("decryption setup: %w", err)
	}
	defer pool.Terminate()

	asm := chunkio.NewAssembler(out, t.TotalChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2 * s.opts.Workers)

	for _, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			frame, err := s.store.Get(gctx, c.StorageKey)
			if err != nil {
				return fmt.Errorf("fetch chunk %d: %w", c.ChunkID, err)
			}
			plain, err := pool.Decrypt(gctx, frame, c.ChunkID)
			if err != nil {
				return fmt.Errorf("decrypt chunk %d: %w", c.ChunkID, err)
			}
			if len(plain) != c.Size || checksum(plain) != c.Checksum {
				return fmt.Errorf("chunk %d: %w", c.ChunkID, common.ErrChecksumMismatch)
			}
			return asm.Put(c.ChunkID, plain)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := asm.Close(); err != nil {
		return err
	}
	if n := asm.Written(); n != t.Size {
		return fmt.Errorf("wrote %d of %d bytes: %w", n, t.Size, common.ErrChecksumMismatch)
	}
	return out.Sync()
}

func (s *transferService) List(ctx context.Context) ([]*models.Transfer, error) {
	rows, err := s.repos.Transfers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}
	return rows, nil
}

func (s *transferService) Show(ctx context.Context, id string) (*models.Transfer, []*models.Chunk, error) {
	t, err := s.repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := s.repos.Chunks.ListByTransfer(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return t, chunks, nil
}

func (s *transferService) Delete(ctx context.Context, id string) error {

	if _, err := s.repos.Transfers.GetByID(ctx, id); err != nil {
		return err
	}
	chunks, err := s.repos.Chunks.ListByTransfer(ctx, id)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2 * s.opts.Workers)
	for _, c := range chunks {
		g.Go(func() error {
			return s.store.Delete(gctx, c.StorageKey)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("error deleting frames: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := client.NewRepositories(tx)
		if err := repos.Chunks.DeleteByTransfer(ctx, id); err != nil {
			return err
		}
		return repos.Transfers.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("error deleting transfer: %w", err)
	}

	s.logger.Info(ctx, "transfer deleted", "transfer_id", id, "chunks", len(chunks))
	return nil
}
