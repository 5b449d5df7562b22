package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"taskvault-api/config"
	"taskvault-api/internal/application"
	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/internal/interface/middleware"
	"taskvault-api/pkg/helpers"
	"taskvault-api/pkg/validation"
)

// In-memory repositories for exercising the full handler stack without
// Postgres. Tests run requests serially, so no locking.

type memUserRepo struct {
	seq   int
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]*entity.User{}} }

func cloneUser(u *entity.User) *entity.User { cp := *u; return &cp }

func (r *memUserRepo) Create(u *entity.User) error {
	r.seq++
	u.ID = fmt.Sprintf("user-%04d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByVerificationToken(token string) (*entity.User, error) {
	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByResetToken(token string, now time.Time) (*entity.User, error) {
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(u *entity.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) SetVerificationToken(id, token string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.VerificationToken = &token
	return nil
}

func (r *memUserRepo) MarkVerified(id string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationToken = nil
	return nil
}

func (r *memUserRepo) SetResetToken(id, token string, expiry time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *memUserRepo) ResetPassword(id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *memUserRepo) UpdatePassword(id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (r *memUserRepo) TouchLastLogin(id string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

type memTokenRepo struct {
	seq  int64
	rows map[string]*entity.RefreshToken
}

func newMemTokenRepo() *memTokenRepo { return &memTokenRepo{rows: map[string]*entity.RefreshToken{}} }

func (r *memTokenRepo) Create(t *entity.RefreshToken) error {
	r.seq++
	t.ID = r.seq
	t.CreatedAt = time.Now()
	cp := *t
	r.rows[t.Token] = &cp
	return nil
}

func (r *memTokenRepo) Get(token string) (*entity.RefreshToken, error) {
	if t, ok := r.rows[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) Revoke(token string) error {
	t, ok := r.rows[token]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsRevoked = true
	return nil
}

func (r *memTokenRepo) RevokeAllForUser(userID string) (int64, error) {
	var n int64
	for _, t := range r.rows {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) DeleteExpired(now time.Time) (int64, error) {
	var n int64
	for token, t := range r.rows {
		if t.IsRevoked || !t.ExpiryDate.After(now) {
			delete(r.rows, token)
			n++
		}
	}
	return n, nil
}

type memTaskRepo struct {
	seq   int
	tasks map[string]*entity.Task
}

func newMemTaskRepo() *memTaskRepo { return &memTaskRepo{tasks: map[string]*entity.Task{}} }

func (r *memTaskRepo) Create(t *entity.Task) error {
	r.seq++
	t.ID = fmt.Sprintf("task-%04d", r.seq)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memTaskRepo) GetByID(id string) (*entity.Task, error) {
	if t, ok := r.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memTaskRepo) List(f repository.TaskFilter) ([]*entity.Task, error) {
	out := []*entity.Task{}
	for _, t := range r.tasks {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memTaskRepo) Update(t *entity.Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memTaskRepo) Delete(id string) error {
	if _, ok := r.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

type memPublisher struct {
	jobs []json.RawMessage
}

func (p *memPublisher) PublishJSON(_ context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.jobs = append(p.jobs, b)
	return nil
}

// testServer wires the real handlers, services, and middleware over the
// in-memory repositories, mirroring the route layout of the running API.
type testServer struct {
	router *gin.Engine
	users  *memUserRepo
	tokens *memTokenRepo
	tasks  *memTaskRepo
	pub    *memPublisher
	jwt    *helpers.JWTManager
	auth   *application.AuthService
	acct   *application.AccountService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cfg := &config.Config{
		AppName:       "taskvault",
		Env:           "test",
		JWTSecret:     "test-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTokenTTL: time.Hour,
		FrontendURL:   "http://localhost:3000",
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	tasks := newMemTaskRepo()
	pub := &memPublisher{}
	mail := application.NewMailDispatcher(pub, true, cfg.AppName, logger)
	jwt := helpers.NewJWTManager(cfg.JWTSecret, cfg.AccessTTL)
	ledger := application.NewTokenLedger(tokens, users, cfg.RefreshTTL, logger)
	authSvc := application.NewAuthService(users, ledger, jwt, mail, cfg, logger)
	acctSvc := application.NewAccountService(users, jwt, mail, cfg, logger)
	taskSvc := application.NewTaskService(tasks, users, logger, nil, "")

	authHandler := NewAuthHandler(authSvc, acctSvc, logger, cfg)
	acctHandler := NewAccountHandler(acctSvc, logger, cfg)
	taskHandler := NewTaskHandler(taskSvc, logger, cfg)

	r := gin.New()
	api := r.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh-token", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/verify-email/:token", acctHandler.VerifyEmail)
	api.POST("/auth/resend-verification-email", acctHandler.ResendVerification)
	api.POST("/auth/request-password-reset", acctHandler.RequestPasswordReset)
	api.POST("/auth/reset-password", acctHandler.ResetPassword)

	authed := api.Group("/")
	authed.Use(middleware.Auth(jwt))
	authed.POST("/auth/logout-all", authHandler.LogoutAll)
	authed.POST("/auth/change-password", acctHandler.ChangePassword)
	authed.GET("/auth/profile", acctHandler.GetProfile)
	authed.PUT("/auth/profile", acctHandler.UpdateProfile)

	tasksGrp := api.Group("/tasks")
	tasksGrp.Use(middleware.Auth(jwt))
	tasksGrp.POST("", taskHandler.Create)
	tasksGrp.GET("", taskHandler.List)
	tasksGrp.GET("/search", taskHandler.Search)
	tasksGrp.GET("/:id", taskHandler.Get)
	tasksGrp.PUT("/:id", taskHandler.Update)
	tasksGrp.DELETE("/:id", taskHandler.Delete)

	return &testServer{
		router: r,
		users:  users,
		tokens: tokens,
		tasks:  tasks,
		pub:    pub,
		jwt:    jwt,
		auth:   authSvc,
		acct:   acctSvc,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope decodes a response body without its generic data typing.
type envelope struct {
	Status    int             `json:"status"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Meta      json.RawMessage `json:"meta"`
	Error     json.RawMessage `json:"error"`
	RequestID string          `json:"request_id"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

// seedVerifiedUser creates a verified active account and returns it with a
// fresh bearer token.
func (s *testServer) seedVerifiedUser(t *testing.T, email, password, role string) (*entity.User, string) {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	require.NoError(t, err)
	u := &entity.User{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         email,
		Password:      hash,
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
	}
	require.NoError(t, s.users.Create(u))
	token, _, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return u, token
}
