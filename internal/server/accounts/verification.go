package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/models"
)

const codeRejected = "Verification code is invalid or has expired."

// SaveVerificationCode stores a digest of code for email, replacing any
// pending code. It returns the expiry of the new code.
func (s *Store) SaveVerificationCode(ctx context.Context, scope *dbx.Scope, email, code string) (time.Time, models.AuthResult) {
	if blank(email) || blank(code) {
		return time.Time{}, models.Fail(common.KindInvalidInput, "Invalid email or verification code.")
	}

	if user, res := s.load(ctx, scope, Lookup{Email: email}); user == nil {
		return time.Time{}, res
	}

	digest, err := s.hasher.Hash(code)
	if err != nil {
		return time.Time{}, s.fail(ctx, "save_verification_code", err, "Unable to create verification code.")
	}

	expiresAt := s.now().Add(s.codeLifetime)
	if err := s.repos.VerificationCodes(scope.DBTX()).Save(ctx, email, digest, expiresAt); err != nil {
		return time.Time{}, s.fail(ctx, "save_verification_code", err, "Unable to create verification code.")
	}

	return expiresAt, models.Ok("Verification code was sent.")
}

// VerifyEmail marks email as verified when code matches the pending,
// unexpired code. The code is checked even when the address is already
// verified.
func (s *Store) VerifyEmail(ctx context.Context, scope *dbx.Scope, email, code string) models.AuthResult {
	if blank(email) || blank(code) {
		return models.Fail(common.KindInvalidInput, "Invalid email or verification code.")
	}

	user, res := s.load(ctx, scope, Lookup{Email: email})
	if user == nil {
		return res
	}

	if err := s.checkCode(ctx, scope, email, code); err != nil {
		if common.KindOf(err) == common.KindInvalidInput {
			return models.Fail(common.KindInvalidInput, codeRejected)
		}
		return s.fail(ctx, "verify_email", err, "Unable to verify email.")
	}

	if !user.EmailVerified {
		if err := s.repos.Users(scope.DBTX()).SetEmailVerified(ctx, email); err != nil {
			return s.fail(ctx, "verify_email", err, "Unable to verify email.")
		}
	}
	if err := s.repos.VerificationCodes(scope.DBTX()).Delete(ctx, email); err != nil {
		return s.fail(ctx, "verify_email", err, "Unable to verify email.")
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return models.Ok("Email was successfully verified.")
}

func (s *Store) checkCode(ctx context.Context, scope *dbx.Scope, email, code string) error {
	pending, err := s.repos.VerificationCodes(scope.DBTX()).Find(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no pending code", common.ErrCodeMismatch)
		}
		return err
	}

	if pending.Expired(s.now()) {
		return common.ErrCodeExpired
	}

	ok, err := s.hasher.Verify(code, pending.CodeDigest)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrCodeMismatch
	}
	return nil
}
