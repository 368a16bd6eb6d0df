package client

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/transferguard/internal/client/migrations"
	"github.com/dmitrijs2005/transferguard/internal/client/repositories/chunks"
	"github.com/dmitrijs2005/transferguard/internal/client/repositories/transfers"
	"github.com/dmitrijs2005/transferguard/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Repositories bundles the manifest repositories over one handle.
type Repositories struct {
	Transfers transfers.Repository
	Chunks    chunks.Repository
}

// NewRepositories binds every repository to db, which may be a *sql.Tx.
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Transfers: transfers.NewSQLiteRepository(db),
		Chunks:    chunks.NewSQLiteRepository(db),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite file at path and
// applies migrations.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
