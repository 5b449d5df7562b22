package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskvault-api/config"
	"taskvault-api/internal/application"
	"taskvault-api/internal/interface/middleware"
	"taskvault-api/pkg/response"
	"taskvault-api/pkg/validation"
)

// Generic messages returned by the anti-enumeration endpoints. Both the
// account-exists and account-missing branches reply with exactly these.
const (
	msgResendGeneric = "If your email is registered and not verified, you will receive a verification email"
	msgResetGeneric  = "If your email is registered, you will receive a password reset link"
)

// AccountHandler exposes the account lifecycle: verification, password
// reset/change, and profile.
type AccountHandler struct {
	Accounts *application.AccountService
	Logger   *logrus.Logger
	Cfg      *config.Config
}

func NewAccountHandler(accounts *application.AccountService, logger *logrus.Logger, cfg *config.Config) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Logger: logger, Cfg: cfg}
}

// VerifyEmail GET /auth/verify-email/:token
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")
	if err := h.Accounts.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, application.ErrInvalidToken) {
			response.Error[any](c, http.StatusBadRequest, "Invalid verification token", nil)
			return
		}
		h.Logger.WithError(err).Error("email verification failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred during email verification", errDetail(h.Cfg, err))
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Email verified successfully", nil)
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendVerification POST /auth/resend-verification-email
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	h.Accounts.ResendVerification(c.Request.Context(), req.Email)
	response.Success[any](c, http.StatusOK, nil, msgResendGeneric, nil)
}

// RequestPasswordReset POST /auth/request-password-reset
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	h.Accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	response.Success[any](c, http.StatusOK, nil, msgResetGeneric, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ResetPassword POST /auth/reset-password
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, application.ErrInvalidOrExpiredToken) {
			response.Error[any](c, http.StatusBadRequest, "Password reset token is invalid or has expired", nil)
			return
		}
		h.Logger.WithError(err).Error("password reset failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred while resetting your password", errDetail(h.Cfg, err))
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password has been reset successfully", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

// ChangePassword POST /auth/change-password (bearer)
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Accounts.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, application.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "User not found", nil)
		case errors.Is(err, application.ErrIncorrectPassword):
			response.Error[any](c, http.StatusUnauthorized, "Current password is incorrect", nil)
		default:
			h.Logger.WithError(err).Error("change password failed")
			response.Error[any](c, http.StatusInternalServerError, "An error occurred while changing your password", errDetail(h.Cfg, err))
		}
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password changed successfully", nil)
}

// GetProfile GET /auth/profile (bearer)
func (h *AccountHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Accounts.GetProfile(uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "profile", nil)
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateProfile PUT /auth/profile (bearer)
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Accounts.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "User not found", nil)
			return
		}
		h.Logger.WithError(err).Error("profile update failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred while updating your profile", errDetail(h.Cfg, err))
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "Profile updated successfully", nil)
}
