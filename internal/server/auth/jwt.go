// Package auth issues and validates session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 60 * time.Minute

// Claims is the token payload: registered claims with sub = user id, plus
// the user's e-mail.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer signs HS256 tokens. It is immutable after construction and
// safe for concurrent use.
type TokenIssuer struct {
	key      []byte
	issuer   string
	audience []string
	now      func() time.Time
}

// NewTokenIssuer fails with common.ErrMissingSigningKey when key is empty.
func NewTokenIssuer(key []byte, issuer string, audience []string) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, common.ErrMissingSigningKey
	}
	return &TokenIssuer{
		key:      key,
		issuer:   issuer,
		audience: append([]string(nil), audience...),
		now:      time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *i
	c.now = now
	return &c
}

// CreateToken builds a signed token for user. The user must have an id and
// an e-mail.
func (i *TokenIssuer) CreateToken(user *models.User) (string, error) {
	if user == nil || user.ID == "" || user.Email == "" {
		return "", fmt.Errorf("%w: token subject needs id and email", common.ErrInvalidInput)
	}

	issuedAt := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings(i.audience),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenLifetime)),
		},
		Email: user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("%w: signing token", common.ErrInternal)
	}
	return signed, nil
}

// ParseToken validates signature, issuer, audience and expiry and returns
// the claims.
func (i *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if len(i.audience) > 0 {
		opts = append(opts, jwt.WithAudience(i.audience[0]))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
