// Package verificationcodes stores pending e-mail verification codes.
package verificationcodes

import (
	"context"
	"time"

	"github.com/VentixeAssignment/authservice/internal/server/models"
)

// Repository keeps at most one pending code per e-mail address.
type Repository interface {
	// Save stores digest for email, replacing any previous code.
	Save(ctx context.Context, email string, digest string, expiresAt time.Time) error

	// Find returns the pending code for email or common.ErrNotFound.
	Find(ctx context.Context, email string) (*models.VerificationCode, error)

	// Delete removes the pending code for email. Deleting a missing code is not an error.
	Delete(ctx context.Context, email string) error
}
