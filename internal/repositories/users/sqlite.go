package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/common"
	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, salt, verification_hash, kdf_time, kdf_memory, kdf_threads)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING
		RETURNING id`

	// RETURNING columns carry no declared type, so the driver would hand
	// back created_at as text.
	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Salt, user.Verifier,
		int64(user.KDFTime), int64(user.KDFMemoryKiB), int64(user.KDFThreads),
	).Scan(&user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = time.Now().UTC()
	return user, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	query := `
		SELECT id, username, salt, verification_hash, kdf_time, kdf_memory, kdf_threads, created_at
		FROM users WHERE username = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).Scan(
		&user.ID, &user.UserName, &user.Salt, &user.Verifier,
		&user.KDFTime, &user.KDFMemoryKiB, &user.KDFThreads, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) UpdateCredentials(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET salt = ?, verification_hash = ?, kdf_time = ?, kdf_memory = ?, kdf_threads = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		user.Salt, user.Verifier,
		int64(user.KDFTime), int64(user.KDFMemoryKiB), int64(user.KDFThreads), user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
