// Package repomanager vends storage repositories for a chosen database
// driver and applies the embedded goose migrations for it.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/repositories/secrets"
	"github.com/dmitrijs2005/cryptify/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

// RepositoryManager binds repositories to a DBTX so the same code runs
// against *sql.DB or inside a *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Secrets(db dbx.DBTX) secrets.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
