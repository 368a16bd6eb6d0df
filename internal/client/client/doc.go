// Package client bootstraps the local manifest database: it opens the
// SQLite file, applies the embedded goose migrations (InitDatabase,
// RunMigrations) and binds the manifest repositories (NewRepositories).
package client
