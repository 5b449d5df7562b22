package repository

import (
	"errors"
	"time"

	"taskvault-api/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository defines the persistence operations of the credential store.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)

	// GetByVerificationToken looks a user up by their pending email
	// verification token.
	GetByVerificationToken(token string) (*entity.User, error)

	// GetByResetToken looks a user up by reset token, honouring the token
	// expiry: rows whose reset_token_expiry <= now are not returned.
	GetByResetToken(token string, now time.Time) (*entity.User, error)

	Update(u *entity.User) error

	// SetVerificationToken stores a fresh verification token on the user.
	SetVerificationToken(id, token string) error

	// MarkVerified flips email_verified and clears the verification token in
	// one update (one-shot consumption).
	MarkVerified(id string) error

	// SetResetToken stores a reset token and its expiry on the user.
	SetResetToken(id, token string, expiry time.Time) error

	// ResetPassword replaces the password hash and clears the reset token and
	// expiry in one update (one-shot consumption).
	ResetPassword(id, passwordHash string) error

	// UpdatePassword replaces the password hash only.
	UpdatePassword(id, passwordHash string) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(id string, at time.Time) error
}
