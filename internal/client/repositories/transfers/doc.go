// Package transfers persists one manifest row per transfer.
//
// Typical Usage
//
//	repo := transfers.NewSQLiteRepository(db)
//	_ = repo.Create(ctx, t)
//	t, _ := repo.GetByID(ctx, id)
//	_ = repo.UpdateStatus(ctx, id, common.StatusCompleted)
//
// GetByID, UpdateStatus and Delete return common.ErrorNotFound for an
// unknown id.
package transfers
