// Package users stores account records.
package users

import (
	"context"

	"github.com/VentixeAssignment/authservice/internal/server/models"
)

// Repository is the credential store contract. Lookups return
// common.ErrNotFound on a miss; writes return common.ErrConflict when the
// username or e-mail is taken. Update clears the verified flag when the
// e-mail changes.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id string, digest string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetEmailVerified(ctx context.Context, email string) error
	Delete(ctx context.Context, id string) error
}
