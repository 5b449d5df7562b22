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

// AuthHandler exposes the session lifecycle: register, login, refresh,
// logout, logout-all.
type AuthHandler struct {
	Auth     *application.AuthService
	Accounts *application.AccountService
	Logger   *logrus.Logger
	Cfg      *config.Config
}

func NewAuthHandler(auth *application.AuthService, accounts *application.AccountService, logger *logrus.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, Accounts: accounts, Logger: logger, Cfg: cfg}
}

// errDetail hides internal error detail outside development.
func errDetail(cfg *config.Config, err error) interface{} {
	if cfg != nil && cfg.Env == "development" && err != nil {
		return err.Error()
	}
	return nil
}

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}

	u, token, err := h.Accounts.Register(c.Request.Context(), application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Error[any](c, http.StatusBadRequest, "Email already in use", nil)
			return
		}
		h.Logger.WithError(err).Error("registration failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred during registration", errDetail(h.Cfg, err))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":  u.Public(),
		"token": token,
	}, "Registration successful. Please check your email to verify your account.", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}

	meta := application.SessionMetadata{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: middleware.ClientIP(c),
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, meta)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAccountDeactivated):
			response.Error[any](c, http.StatusUnauthorized, "Your account has been deactivated. Please contact an administrator.", nil)
		case errors.Is(err, application.ErrEmailNotVerified):
			response.Error[any](c, http.StatusUnauthorized, "Your email address is not verified. A new verification email has been sent to your inbox.", nil)
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Error[any](c, http.StatusUnauthorized, "Invalid email or password", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error[any](c, http.StatusInternalServerError, "An error occurred during login", errDetail(h.Cfg, err))
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":          u.Public(),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "Login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh POST /auth/refresh-token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.Error[any](c, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		return
	}

	access, exp, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"access_token": access}, "token refreshed", gin.H{"access_expires_at": exp})
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.Error[any](c, http.StatusBadRequest, "Refresh token is required", nil)
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.Logger.WithError(err).Error("logout failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred during logout", errDetail(h.Cfg, err))
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Logged out successfully", nil)
}

// LogoutAll POST /auth/logout-all (bearer). The identity comes from the
// verified access token, never from the body.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	count, err := h.Auth.LogoutAll(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("logout-all failed")
		response.Error[any](c, http.StatusInternalServerError, "An error occurred during logout from all devices", errDetail(h.Cfg, err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": count}, "Logged out from all devices successfully", nil)
}
