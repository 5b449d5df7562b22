package entity

import "time"

// RefreshToken is one row of the refresh-token ledger: a single session.
// Token is an opaque random string; UserAgent and IPAddress are audit
// metadata only and never take part in the auth decision.
type RefreshToken struct {
	ID         int64
	Token      string
	UserID     string
	ExpiryDate time.Time
	IsRevoked  bool
	UserAgent  *string
	IPAddress  *string
	CreatedAt  time.Time
}

// Valid reports whether the token is usable at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && t.ExpiryDate.After(now)
}
