package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/migrations"
	"github.com/dmitrijs2005/cryptify/internal/repositories/secrets"
	"github.com/dmitrijs2005/cryptify/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Secrets returns a secrets.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Secrets(db dbx.DBTX) secrets.Repository {
	return secrets.NewPostgresRepository(db)
}

// RunMigrations applies the embedded postgres migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, "postgres")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
