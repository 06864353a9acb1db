package secrets

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

func (r *SQLiteRepository) Create(ctx context.Context, s *models.Secret) (*models.Secret, error) {
	query := `
		INSERT INTO secrets (user_id, service, account, url, ciphertext, nonce, notes, notes_nonce)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, service) DO NOTHING
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Service, s.Account, s.URL, s.Ciphertext, s.Nonce, nullBytes(s.Notes), nullBytes(s.NotesNonce),
	).Scan(&s.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return s, nil
}

func (r *SQLiteRepository) GetByService(ctx context.Context, userID int64, service string) (*models.Secret, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM secrets WHERE user_id = ? AND service = ?`

	s, err := scanSecret(r.db.QueryRowContext(ctx, query, userID, service))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Secret, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM secrets WHERE user_id = ? ORDER BY service`

	return listSecrets(ctx, r.db, query, userID)
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, ciphertext, nonce []byte) error {
	query := `
		UPDATE secrets SET ciphertext = ?, nonce = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, ciphertext, nonce, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) UpdateNotes(ctx context.Context, id int64, notes, notesNonce []byte) error {
	query := `
		UPDATE secrets SET notes = ?, notes_nonce = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, nullBytes(notes), nullBytes(notesNonce), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// nullBytes stores empty notes as NULL.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// selectColumns matches the Scan order of scanSecret.
const selectColumns = `id, user_id, service, account, url, ciphertext, nonce, notes, notes_nonce, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecret(row rowScanner) (*models.Secret, error) {
	s := &models.Secret{}
	err := row.Scan(&s.ID, &s.UserID, &s.Service, &s.Account, &s.URL,
		&s.Ciphertext, &s.Nonce, &s.Notes, &s.NotesNonce, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func listSecrets(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]*models.Secret, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.Secret
	for rows.Next() {
		s, err := scanSecret(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
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
