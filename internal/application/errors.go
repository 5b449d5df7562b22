package application

import "errors"

// Sentinel errors surfaced to handlers. Credential failures are deliberately
// collapsed: a caller cannot tell "no such account" from "wrong password".
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDeactivated  = errors.New("account deactivated")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrMissingToken        = errors.New("refresh token is required")

	ErrEmailTaken            = errors.New("email already in use")
	ErrInvalidToken          = errors.New("invalid verification token")
	ErrInvalidOrExpiredToken = errors.New("reset token is invalid or has expired")
	ErrIncorrectPassword     = errors.New("current password is incorrect")
	ErrUserNotFound          = errors.New("user not found")

	ErrTaskNotFound = errors.New("task not found")
	ErrForbidden    = errors.New("not authorized for this resource")
)
