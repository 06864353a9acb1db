package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptify/internal/common"
	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX bound to the pgx
// driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and fills ID and CreatedAt. A taken username
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, salt, verification_hash, kdf_time, kdf_memory, kdf_threads)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Salt, user.Verifier,
		int64(user.KDFTime), int64(user.KDFMemoryKiB), int16(user.KDFThreads),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByUsername returns the user or common.ErrorNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, salt, verification_hash, kdf_time, kdf_memory, kdf_threads, created_at
		 FROM users WHERE username = $1`

	var (
		user            = &models.User{}
		kdfTime, kdfMem int64
		kdfThreads      int16
	)
	err := r.db.QueryRowContext(ctx, query, userName).Scan(
		&user.ID, &user.UserName, &user.Salt, &user.Verifier,
		&kdfTime, &kdfMem, &kdfThreads, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.KDFTime = uint32(kdfTime)
	user.KDFMemoryKiB = uint32(kdfMem)
	user.KDFThreads = uint8(kdfThreads)
	return user, nil
}

// UpdateCredentials replaces salt, verifier and KDF parameters in one
// statement.
func (r *PostgresRepository) UpdateCredentials(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET salt = $1, verification_hash = $2, kdf_time = $3, kdf_memory = $4, kdf_threads = $5
		 WHERE id = $6`

	res, err := r.db.ExecContext(ctx, query,
		user.Salt, user.Verifier,
		int64(user.KDFTime), int64(user.KDFMemoryKiB), int16(user.KDFThreads), user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}
