package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/migrations"
	"github.com/dmitrijs2005/cryptify/internal/repositories/secrets"
	"github.com/dmitrijs2005/cryptify/internal/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Secrets(db dbx.DBTX) secrets.Repository {
	return secrets.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded sqlite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, "sqlite")
}

func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}
