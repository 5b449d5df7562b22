package repository

import (
	"time"

	"taskvault-api/internal/domain/entity"
)

// RefreshTokenRepository persists the refresh-token ledger, one row per session.
type RefreshTokenRepository interface {
	Create(t *entity.RefreshToken) error

	// Get fetches a ledger row by exact token match regardless of its
	// revocation or expiry state. Returns ErrNotFound when absent.
	Get(token string) (*entity.RefreshToken, error)

	// Revoke sets is_revoked on the row. Returns ErrNotFound when absent.
	Revoke(token string) error

	// RevokeAllForUser bulk-revokes every non-revoked token owned by the user
	// and reports how many rows changed.
	RevokeAllForUser(userID string) (int64, error)

	// DeleteExpired removes rows that are expired or revoked and reports the
	// count. Advisory garbage collection; not required for correctness.
	DeleteExpired(now time.Time) (int64, error)
}
