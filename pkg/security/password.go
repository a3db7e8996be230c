package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt ignores everything past 72 bytes, so longer
// passwords are refused instead of silently truncated.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

var (
	ErrHashingFailed    = errors.New("password hashing failed")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrMismatch         = errors.New("password does not match")
)

// PasswordHasher hashes operator passwords and checks login attempts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt hasher. A cost outside bcrypt's range,
// including 0, selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// CheckLength applies the length bounds without hashing.
func CheckLength(password string) error {
	switch {
	case len(password) < MinPasswordLen:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if err := CheckLength(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

// Compare returns ErrMismatch for a wrong password and the bcrypt error for a
// malformed hash.
func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
