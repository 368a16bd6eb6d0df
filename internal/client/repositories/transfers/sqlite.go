package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/transferguard/internal/client/models"
	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/dbx"
)

const columns = `id, file_name, size, chunk_size, total_chunks, cipher, salt, verifier, storage_backend, status, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *models.Transfer) error {

	query := `insert into transfers (` + columns + `) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.FileName, t.Size, t.ChunkSize, t.TotalChunks,
		t.Cipher, t.Salt, t.Verifier, t.StorageBackend, t.Status, t.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(s scanner) (*models.Transfer, error) {
	t := &models.Transfer{}
	var created int64
	err := s.Scan(&t.ID, &t.FileName, &t.Size, &t.ChunkSize, &t.TotalChunks,
		&t.Cipher, &t.Salt, &t.Verifier, &t.StorageBackend, &t.Status, &created)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	return t, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {

	query := `select ` + columns + ` from transfers where id=?`
	t, err := scanTransfer(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transfer %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error selecting transfer: %w", err)
	}

	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Transfer, error) {

	query := `select ` + columns + ` from transfers order by created_at desc, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting transfers: %w", err)
	}
	defer rows.Close()

	var result []*models.Transfer

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status string) error {

	result, err := r.db.ExecContext(ctx, `update transfers set status=? where id=?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}

	return expectOne(result, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {

	result, err := r.db.ExecContext(ctx, `delete from transfers where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	return expectOne(result, id)
}

func expectOne(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("transfer %s: %w", id, common.ErrorNotFound)
	}

	return nil
}
