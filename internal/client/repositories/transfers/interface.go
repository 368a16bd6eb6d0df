package transfers

import (
	"context"

	"github.com/dmitrijs2005/transferguard/internal/client/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transfer) error
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	// List returns every transfer, newest first.
	List(ctx context.Context) ([]*models.Transfer, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
}
