package models

import "time"

// VerificationCode is the pending e-mail verification for one address.
// Only a digest of the mailed code is stored.
type VerificationCode struct {
	Email      string    `db:"email"`
	CodeDigest string    `db:"code_digest"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}

// Expired reports whether the code is no longer usable at now.
func (c *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
