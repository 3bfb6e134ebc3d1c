package users

import (
	"context"
	"fmt"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/models"
)

const userColumns = `id, username, email, password_digest, first_name, last_name, is_active, email_verified, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, email, password_digest, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING is_active, email_verified, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordDigest, user.FirstName, user.LastName).
		Scan(&user.IsActive, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, dbx.Translate(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, "username", userName)
}

// getOne selects a user by a unique column. column is never user input.
func (r *PostgresRepository) getOne(ctx context.Context, column string, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordDigest,
		&user.FirstName, &user.LastName, &user.IsActive, &user.EmailVerified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dbx.Translate(err)
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, dbx.Translate(err)
	}
	return exists, nil
}

// Update writes the profile fields. A changed e-mail is no longer verified.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET username = $2, email = $3, first_name = $4, last_name = $5,
		     email_verified = CASE WHEN email = $3 THEN email_verified ELSE FALSE END,
		     updated_at = NOW()
		 WHERE id = $1`

	return r.execOne(ctx, query, user.ID, user.UserName, user.Email, user.FirstName, user.LastName)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, digest string) error {
	query :=
		`UPDATE users SET password_digest = $2, updated_at = NOW()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, digest)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query :=
		`UPDATE users SET is_active = $2, updated_at = NOW()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, active)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, email string) error {
	query :=
		`UPDATE users SET email_verified = TRUE, updated_at = NOW()
		 WHERE email = $1`

	return r.execOne(ctx, query, email)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// execOne runs a statement that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbx.Translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.Translate(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
