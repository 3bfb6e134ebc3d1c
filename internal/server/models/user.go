// Package models holds the records the auth service stores and returns.
package models

import "time"

// User is an account row. PasswordDigest never leaves the server: it is
// excluded from JSON and from UserView.
type User struct {
	ID             string    `db:"id"`
	UserName       string    `db:"username"`
	Email          string    `db:"email"`
	PasswordDigest string    `db:"password_digest" json:"-"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	IsActive       bool      `db:"is_active"`
	EmailVerified  bool      `db:"email_verified"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// UserView is the transport-safe snapshot of a User.
type UserView struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// View returns the transport-safe snapshot of u, or nil for a nil user.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
