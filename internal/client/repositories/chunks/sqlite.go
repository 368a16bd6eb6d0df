package chunks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/transferguard/internal/client/models"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.Chunk) error {

	query := `insert into chunks (transfer_id, chunk_id, size, checksum, storage_key, status)
			values (?, ?, ?, ?, ?, ?)
			on conflict(transfer_id, chunk_id) do update set
				size = excluded.size,
				checksum = excluded.checksum,
				storage_key = excluded.storage_key,
				status = excluded.status`
	_, err := r.db.ExecContext(ctx, query, c.TransferID, c.ChunkID, c.Size, c.Checksum, c.StorageKey, c.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) ListByTransfer(ctx context.Context, transferID string) ([]*models.Chunk, error) {

	query := `select transfer_id, chunk_id, size, checksum, storage_key, status
			from chunks where transfer_id=? order by chunk_id`
	rows, err := r.db.QueryContext(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("error selecting chunks: %w", err)
	}
	defer rows.Close()

	var result []*models.Chunk

	for rows.Next() {
		c := &models.Chunk{}
		if err := rows.Scan(&c.TransferID, &c.ChunkID, &c.Size, &c.Checksum, &c.StorageKey, &c.Status); err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, transferID string, chunkID int64) error {

	query := `update chunks set status=? where transfer_id=? and chunk_id=?`
	result, err := r.db.ExecContext(ctx, query, common.StatusUploaded, transferID, chunkID)
	if err != nil {
		return fmt.Errorf("failed to update chunk: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("chunk %s/%d: %w", transferID, chunkID, common.ErrorNotFound)
	}

	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context, transferID string) (int64, error) {

	var n int64
	query := `select count(*) from chunks where transfer_id=? and status<>?`
	if err := r.db.QueryRowContext(ctx, query, transferID, common.StatusUploaded).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting chunks: %w", err)
	}

	return n, nil
}

func (r *SQLiteRepository) DeleteByTransfer(ctx context.Context, transferID string) error {

	if _, err := r.db.ExecContext(ctx, `delete from chunks where transfer_id=?`, transferID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	return nil
}
