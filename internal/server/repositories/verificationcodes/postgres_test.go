package verificationcodes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	saveQ   = `(?s)^\s*INSERT\s+INTO\s+verification_codes\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(email\)\s*DO\s+UPDATE.*$`
	findQ   = `(?s)^\s*SELECT\s+email,\s*code_digest,\s*expires_at,\s*created_at\s+FROM\s+verification_codes\s+WHERE\s+email\s*=\s*\$1\s*$`
	deleteQ = `(?s)^\s*DELETE\s+FROM\s+verification_codes\s+WHERE\s+email\s*=\s*\$1\s*$`
)

func TestSave_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(15 * time.Minute)
	mock.ExpectExec(saveQ).
		WithArgs("a@b.com", "digest", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), "a@b.com", "digest", exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSave_UnknownEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// foreign key violation is neither a conflict nor bad input
	mock.ExpectExec(saveQ).
		WithArgs("ghost@b.com", "digest", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Save(context.Background(), "ghost@b.com", "digest", time.Now())
	if err == nil || !regexp.MustCompile(`db error:`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Minute)
	created := time.Now()
	mock.ExpectQuery(findQ).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "code_digest", "expires_at", "created_at"}).
			AddRow("a@b.com", "digest", exp, created))

	got, err := repo.Find(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "a@b.com" || got.CodeDigest != "digest" || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("ghost@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "ghost@b.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQ).
		WithArgs("b@b.com").
		WillReturnError(errors.New("db down"))

	if err := repo.Delete(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("deleting a missing code must not fail: %v", err)
	}
	err := repo.Delete(context.Background(), "b@b.com")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
