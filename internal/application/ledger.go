package application

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/pkg/helpers"
)

// Internal failure kinds of ledger validation. Handlers never see these
// directly; the session manager collapses them into ErrInvalidRefreshToken so
// callers cannot probe which tokens exist.
var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
)

// SessionMetadata is audit-only context captured at login.
type SessionMetadata struct {
	UserAgent string
	IPAddress string
}

// TokenLedger owns the persistent record of issued refresh tokens. A token is
// valid iff it is not revoked and its expiry lies in the future.
type TokenLedger struct {
	Tokens repository.RefreshTokenRepository
	Users  repository.UserRepository
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewTokenLedger(tokens repository.RefreshTokenRepository, users repository.UserRepository, ttl time.Duration, logger *logrus.Logger) *TokenLedger {
	return &TokenLedger{Tokens: tokens, Users: users, TTL: ttl, Logger: logger}
}

// Issue creates a fresh ledger row for the user and returns it.
func (l *TokenLedger) Issue(user *entity.User, meta SessionMetadata) (*entity.RefreshToken, error) {
	token, err := helpers.GenerateOpaqueToken(helpers.RefreshTokenBytes)
	if err != nil {
		return nil, err
	}
	rec := &entity.RefreshToken{
		Token:      token,
		UserID:     user.ID,
		ExpiryDate: time.Now().Add(l.TTL),
	}
	if meta.UserAgent != "" {
		rec.UserAgent = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		rec.IPAddress = &meta.IPAddress
	}
	if err := l.Tokens.Create(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks a token in a single snapshot read: existence, revocation,
// and expiry. The returned error distinguishes the three failure kinds for
// telemetry only.
func (l *TokenLedger) Validate(token string) (*entity.User, *entity.RefreshToken, error) {
	rec, err := l.Tokens.Get(token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, err
	}
	if rec.IsRevoked {
		return nil, nil, ErrTokenRevoked
	}
	if !rec.ExpiryDate.After(time.Now()) {
		return nil, nil, ErrTokenExpired
	}
	user, err := l.Users.GetByID(rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, err
	}
	return user, rec, nil
}

// Revoke marks the token revoked. Revoking an already-revoked token is not an
// error as long as the row still exists.
func (l *TokenLedger) Revoke(token string) error {
	if err := l.Tokens.Revoke(token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenNotFound
		}
		return err
	}
	return nil
}

// RevokeAll revokes every live token owned by the user ("logout everywhere").
func (l *TokenLedger) RevokeAll(userID string) (int64, error) {
	return l.Tokens.RevokeAllForUser(userID)
}

// SweepExpired garbage-collects expired and revoked rows. Safe to run
// concurrently with issuance and validation.
func (l *TokenLedger) SweepExpired() (int64, error) {
	n, err := l.Tokens.DeleteExpired(time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 && l.Logger != nil {
		l.Logger.WithField("count", n).Debug("swept expired refresh tokens")
	}
	return n, nil
}
