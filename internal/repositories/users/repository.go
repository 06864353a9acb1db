// Package users provides persistence for vault owners: the username, the
// plaintext salt, the verification hash and the KDF cost parameters.
package users

import (
	"context"

	"github.com/dmitrijs2005/cryptify/internal/models"
)

// Repository stores users.
//
// Create returns common.ErrorAlreadyExists for a taken username;
// GetByUsername and UpdateCredentials return common.ErrorNotFound when no
// row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, userName string) (*models.User, error)
	UpdateCredentials(ctx context.Context, user *models.User) error
}
