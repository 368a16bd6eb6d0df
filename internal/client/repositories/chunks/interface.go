package chunks

import (
	"context"

	"github.com/dmitrijs2005/transferguard/internal/client/models"
)

type Repository interface {
	// Upsert inserts or replaces the row for (TransferID, ChunkID).
	Upsert(ctx context.Context, c *models.Chunk) error

	// ListByTransfer returns the chunks of a transfer ordered by chunk id.
	ListByTransfer(ctx context.Context, transferID string) ([]*models.Chunk, error)

	// MarkUploaded sets status to uploaded; common.ErrorNotFound if the row
	// does not exist.
	MarkUploaded(ctx context.Context, transferID string, chunkID int64) error

	// CountPending counts chunks not yet uploaded.
	CountPending(ctx context.Context, transferID string) (int64, error)

	DeleteByTransfer(ctx context.Context, transferID string) error
}
