package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"taskvault-api/config"
	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/pkg/helpers"
	"taskvault-api/pkg/mailer"
	tpl "taskvault-api/pkg/mailer/templates"
)

// AccountService drives the account lifecycle: registration, email
// verification, and the password reset/change flows. Verification and reset
// tokens are one-shot; they are cleared on successful consumption.
type AccountService struct {
	Users  repository.UserRepository
	JWT    *helpers.JWTManager
	Mail   *MailDispatcher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewAccountService(users repository.UserRepository, jwt *helpers.JWTManager, mail *MailDispatcher, cfg *config.Config, logger *logrus.Logger) *AccountService {
	return &AccountService{Users: users, JWT: jwt, Mail: mail, Cfg: cfg, Logger: logger}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a new unverified account and dispatches the verification
// email. Unlike every other flow, the dispatch is awaited: a publish failure
// surfaces to the caller even though the account row already exists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*entity.User, string, error) {
	existing, err := s.Users.GetByEmail(in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}
	if err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	token, err := helpers.GenerateOpaqueToken(helpers.OneShotTokenBytes)
	if err != nil {
		return nil, "", err
	}

	u := &entity.User{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		Password:          hash,
		Role:              entity.RoleUser,
		IsActive:          true,
		EmailVerified:     false,
		VerificationToken: &token,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, "", err
	}

	if err := s.Mail.Send(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.VerifyEmail,
		Data: map[string]any{
			"Name":      u.FullName(),
			"Token":     token,
			"VerifyURL": s.Cfg.VerifyEmailLink(token),
		},
	}); err != nil {
		return nil, "", fmt.Errorf("send verification email: %w", err)
	}

	// Registration-scoped convenience token, not a full session: no ledger row.
	access, _, err := s.JWT.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

// VerifyEmail consumes a verification token: sets emailVerified and clears
// the token in one update, then notifies the user best-effort.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.Users.GetByVerificationToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if err := s.Users.MarkVerified(u.ID); err != nil {
		return err
	}
	s.Mail.SendAsync(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.VerifySuccess,
		Data:     map[string]any{"Name": u.FullName()},
	})
	return nil
}

// ResendVerification issues a fresh verification token when the account
// exists and is unverified. It never reports whether that was the case:
// every outcome is a generic success.
func (s *AccountService) ResendVerification(ctx context.Context, email string) {
	u, err := s.Users.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.WithError(err).Error("account lookup failed")
		}
		return
	}
	if u.EmailVerified {
		return
	}
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

// RequestPasswordReset stores a one-hour reset token and emails it when the
// account exists. Like ResendVerification it never leaks account existence.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) {
	u, err := s.Users.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.WithError(err).Error("account lookup failed")
		}
		return
	}
	token, err := helpers.GenerateOpaqueToken(helpers.OneShotTokenBytes)
	if err != nil {
		s.Logger.WithError(err).Error("reset token generation failed")
		return
	}
	expiry := time.Now().Add(s.Cfg.ResetTokenTTL)
	if err := s.Users.SetResetToken(u.ID, token, expiry); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("failed to store reset token")
		return
	}
	s.Mail.SendAsync(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.ResetPassword,
		Data: map[string]any{
			"Name":     u.FullName(),
			"Token":    token,
			"ResetURL": s.Cfg.ResetPasswordLink(token),
		},
	})
}

// ResetPassword consumes a reset token: replaces the hash and clears the
// token and its expiry in one update. A second use of the same token fails.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.Users.GetByResetToken(token, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Users.ResetPassword(u.ID, hash)
}

// ChangePassword replaces the hash after verifying the current password.
// Existing refresh tokens stay valid.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, currentPassword) {
		return ErrIncorrectPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(u.ID, hash); err != nil {
		return err
	}
	s.Mail.SendAsync(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.PasswordChanged,
		Data:     map[string]any{"Name": u.FullName()},
	})
	return nil
}

// GetProfile returns the user for an authenticated identity.
func (s *AccountService) GetProfile(userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
}

// UpdateProfile changes the display names; empty fields keep their value.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if err := s.Users.Update(u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
