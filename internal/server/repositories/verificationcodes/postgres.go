package verificationcodes

import (
	"context"
	"time"

	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, email string, digest string, expiresAt time.Time) error {
	query := `
		INSERT INTO verification_codes (email, code_digest, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET code_digest = EXCLUDED.code_digest, expires_at = EXCLUDED.expires_at, created_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, email, digest, expiresAt); err != nil {
		return dbx.Translate(err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, email string) (*models.VerificationCode, error) {
	query := `
		SELECT email, code_digest, expires_at, created_at
		FROM verification_codes
		WHERE email = $1
	`
	code := &models.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&code.Email, &code.CodeDigest, &code.ExpiresAt, &code.CreatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return code, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	query := `
		DELETE FROM verification_codes
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return dbx.Translate(err)
	}
	return nil
}
