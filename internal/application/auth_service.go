package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"taskvault-api/config"
	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/pkg/helpers"
	"taskvault-api/pkg/mailer"
	tpl "taskvault-api/pkg/mailer/templates"
)

// TokenPair is what a successful login hands back: a stateless access token
// and a ledger-backed refresh token.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// AuthService is the session manager: login, refresh, logout, logout-all.
type AuthService struct {
	Users  repository.UserRepository
	Ledger *TokenLedger
	JWT    *helpers.JWTManager
	Mail   *MailDispatcher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewAuthService(users repository.UserRepository, ledger *TokenLedger, jwt *helpers.JWTManager, mail *MailDispatcher, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Ledger: ledger, JWT: jwt, Mail: mail, Cfg: cfg, Logger: logger}
}

// Login validates credentials and, for an active verified account, issues one
// access token and creates one ledger session. An unverified account gets a
// fresh verification email as a side effect of the rejection.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMetadata) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByEmail(email)
	if err != nil {
		// Only a confirmed miss is a credential problem; an unreachable
		// store must not masquerade as a 401.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrAccountDeactivated
	}
	if !u.EmailVerified {
		s.resendVerification(ctx, u)
		return nil, TokenPair{}, ErrEmailNotVerified
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.Users.TouchLastLogin(u.ID, now); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to record last login")
	}
	u.LastLogin = &now

	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, TokenPair{}, err
	}
	rec, err := s.Ledger.Issue(u, meta)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue refresh token failed")
		return nil, TokenPair{}, err
	}

	pair := TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       rec.Token,
		RefreshTokenExpiry: rec.ExpiryDate,
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated: it stays valid until natural expiry or an
// explicit revoke.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	u, _, err := s.Ledger.Validate(refreshToken)
	if err != nil {
		// The distinct kinds stay in the logs; the caller only learns that
		// the token no longer works.
		s.Logger.WithError(err).Debug("refresh token rejected")
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	return s.JWT.GenerateAccessToken(u.ID, u.Email, u.Role)
}

// Logout revokes the supplied refresh token. Unknown tokens are treated as
// already logged out rather than an enumeration signal.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingToken
	}
	if err := s.Ledger.Revoke(refreshToken); err != nil {
		if err == ErrTokenNotFound {
			s.Logger.WithField("reason", "not_found").Debug("logout for unknown refresh token")
			return nil
		}
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token owned by the user. The identity must
// come from a verified access token, never from the request body.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return s.Ledger.RevokeAll(userID)
}

func (s *AuthService) resendVerification(ctx context.Context, u *entity.User) {
	token, err := helpers.GenerateOpaqueToken(helpers.OneShotTokenBytes)
	if err != nil {
		s.Logger.WithError(err).Error("verification token generation failed")
		return
	}
	if err := s.Users.SetVerificationToken(u.ID, token); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("failed to store verification token")
		return
	}
	s.Mail.SendAsync(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.VerifyEmail,
		Data: map[string]any{
			"Name":      u.FullName(),
			"Token":     token,
			"VerifyURL": s.Cfg.VerifyEmailLink(token),
		},
	})
}
