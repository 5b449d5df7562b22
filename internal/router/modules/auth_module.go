package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"taskvault-api/internal/container"
	handlers "taskvault-api/internal/interface/http"
	"taskvault-api/internal/interface/middleware"
	"taskvault-api/pkg/helpers"
)

type AuthModule struct {
	Auth     *handlers.AuthHandler
	Accounts *handlers.AccountHandler
	JWT      *helpers.JWTManager
}

func NewAuthModule(auth *handlers.AuthHandler, accounts *handlers.AccountHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Auth: auth, Accounts: accounts, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP())
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())
	mailLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/auth/register", m.Auth.Register)
	rg.POST("/auth/login", loginLimiter, m.Auth.Login)
	rg.POST("/auth/refresh-token", refreshLimiter, m.Auth.Refresh)
	rg.POST("/auth/logout", m.Auth.Logout)
	rg.GET("/auth/verify-email/:token", m.Accounts.VerifyEmail)
	rg.POST("/auth/resend-verification-email", mailLimiter, m.Accounts.ResendVerification)
	rg.POST("/auth/request-password-reset", mailLimiter, m.Accounts.RequestPasswordReset)
	rg.POST("/auth/reset-password", m.Accounts.ResetPassword)

	// Endpoints that require a valid access token
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()))
	{
		auth.POST("/auth/logout-all", m.Auth.LogoutAll)
		auth.POST("/auth/change-password", m.Accounts.ChangePassword)
		auth.GET("/auth/profile", m.Accounts.GetProfile)
		auth.PUT("/auth/profile", m.Accounts.UpdateProfile)
	}
}
