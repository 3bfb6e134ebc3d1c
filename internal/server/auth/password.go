package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns passwords into one-way digests and checks them.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

const (
	HasherBcrypt = "bcrypt"
	HasherArgon2 = "argon2"

	bcryptMaxLen = 72
)

// BcryptHasher hashes with golang.org/x/crypto/bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > bcryptMaxLen {
		return "", fmt.Errorf("%w: password must be %d bytes or fewer", common.ErrInvalidInput, bcryptMaxLen)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("comparing password hash: %w", err)
	}
}

// Argon2Hasher hashes with argon2id in the PHC encoded format.
type Argon2Hasher struct {
	cfg argon2.Config
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{cfg: argon2.DefaultConfig()}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	encoded, err := h.cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(encoded), nil
}

func (h *Argon2Hasher) Verify(password, digest string) (bool, error) {
	ok, err := argon2.VerifyEncoded([]byte(password), []byte(digest))
	if err != nil {
		return false, fmt.Errorf("comparing password hash: %w", err)
	}
	return ok, nil
}

// PrefixHasher hashes with the configured algorithm but verifies digests of
// any supported algorithm, picked by the digest prefix. Switching algorithms
// therefore keeps existing accounts able to sign in.
type PrefixHasher struct {
	primary Hasher
	bcrypt  Hasher
	argon2  Hasher
}

// NewHasher returns a PrefixHasher hashing with the named algorithm.
func NewHasher(name string, bcryptCost int) (*PrefixHasher, error) {
	h := &PrefixHasher{
		bcrypt: NewBcryptHasher(bcryptCost),
		argon2: NewArgon2Hasher(),
	}
	switch strings.ToLower(name) {
	case "", HasherBcrypt:
		h.primary = h.bcrypt
	case HasherArgon2:
		h.primary = h.argon2
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
	return h, nil
}

func (h *PrefixHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *PrefixHasher) Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2"):
		return h.argon2.Verify(password, digest)
	case strings.HasPrefix(digest, "$2"):
		return h.bcrypt.Verify(password, digest)
	default:
		return false, errors.New("unrecognised password digest format")
	}
}
