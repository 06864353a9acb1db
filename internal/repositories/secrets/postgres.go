package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cryptify/internal/common"
	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/models"
)

// PostgresRepository implements Repository for the pgx driver.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Secret) (*models.Secret, error) {
	query :=
		`INSERT INTO secrets (user_id, service, account, url, ciphertext, nonce, notes, notes_nonce)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, service) DO NOTHING
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Service, s.Account, s.URL, s.Ciphertext, s.Nonce, nullBytes(s.Notes), nullBytes(s.NotesNonce),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByService(ctx context.Context, userID int64, service string) (*models.Secret, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM secrets WHERE user_id = $1 AND service = $2`

	s, err := scanSecret(r.db.QueryRowContext(ctx, query, userID, service))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Secret, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM secrets WHERE user_id = $1 ORDER BY service`

	return listSecrets(ctx, r.db, query, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, ciphertext, nonce []byte) error {
	query :=
		`UPDATE secrets SET ciphertext = $1, nonce = $2, updated_at = now()
		 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, ciphertext, nonce, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) UpdateNotes(ctx context.Context, id int64, notes, notesNonce []byte) error {
	query :=
		`UPDATE secrets SET notes = $1, notes_nonce = $2, updated_at = now()
		 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, nullBytes(notes), nullBytes(notesNonce), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}
