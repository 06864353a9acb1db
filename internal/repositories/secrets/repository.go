// Package secrets provides persistence for encrypted vault records. Rows
// hold ciphertext and nonces only; plaintext never reaches this layer.
package secrets

import (
	"context"

	"github.com/dmitrijs2005/cryptify/internal/models"
)

// Repository stores secrets owned by a user.
//
// Create returns common.ErrorAlreadyExists when the owner already has a
// record for the service. Lookups and mutations by key return
// common.ErrorNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, secret *models.Secret) (*models.Secret, error)
	GetByService(ctx context.Context, userID int64, service string) (*models.Secret, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Secret, error)
	Update(ctx context.Context, id int64, ciphertext, nonce []byte) error
	UpdateNotes(ctx context.Context, id int64, notes, notesNonce []byte) error
	Delete(ctx context.Context, id int64) error
}
