package common

import "errors"

var (
	// repository specific errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// caller errors
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrInternal     = errors.New("internal error")

	// transaction scope misuse
	ErrAlreadyInProgress   = errors.New("transaction already in progress")
	ErrNoActiveTransaction = errors.New("no active transaction")

	// startup
	ErrMissingSigningKey = errors.New("token signing key is not configured")
)
