package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
	"taskvault-api/pkg/mailer"
)

// In-memory repositories backing the service tests. They mirror the SQL
// implementations' contracts, including ErrNotFound and one-shot token
// clearing.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User // by id

	// failWith, when set, makes every lookup fail with it, simulating an
	// unreachable store.
	failWith error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) clone(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%04d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = r.clone(u)
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.clone(u), nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByVerificationToken(token string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return r.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByResetToken(token string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			return r.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = r.clone(u)
	return nil
}

func (r *fakeUserRepo) SetVerificationToken(id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.VerificationToken = &token
	return nil
}

func (r *fakeUserRepo) MarkVerified(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationToken = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(id, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ResetPassword(id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *fakeUserRepo) UpdatePassword(id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

// setResetExpiry backdates or advances a stored reset token expiry.
func (r *fakeUserRepo) setResetExpiry(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.ResetTokenExpiry = &at
	}
}

type fakeTokenRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[string]*entity.RefreshToken // by token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: map[string]*entity.RefreshToken{}}
}

func (r *fakeTokenRepo) clone(t *entity.RefreshToken) *entity.RefreshToken {
	cp := *t
	return &cp
}

func (r *fakeTokenRepo) Create(t *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[t.Token]; ok {
		return errors.New("duplicate token")
	}
	r.seq++
	t.ID = r.seq
	t.CreatedAt = time.Now()
	r.rows[t.Token] = r.clone(t)
	return nil
}

func (r *fakeTokenRepo) Get(token string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.clone(t), nil
}

func (r *fakeTokenRepo) Revoke(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[token]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsRevoked = true
	return nil
}

func (r *fakeTokenRepo) RevokeAllForUser(userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.rows {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) DeleteExpired(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, t := range r.rows {
		if t.IsRevoked || !t.ExpiryDate.After(now) {
			delete(r.rows, token)
			n++
		}
	}
	return n, nil
}

// backdate rewrites a token's expiry without touching anything else.
func (r *fakeTokenRepo) backdate(token string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.rows[token]; ok {
		t.ExpiryDate = at
	}
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]*entity.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*entity.Task{}}
}

func (r *fakeTaskRepo) clone(t *entity.Task) *entity.Task {
	cp := *t
	return &cp
}

func (r *fakeTaskRepo) Create(t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = fmt.Sprintf("task-%04d", r.seq)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.tasks[t.ID] = r.clone(t)
	return nil
}

func (r *fakeTaskRepo) GetByID(id string) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.clone(t), nil
}

func (r *fakeTaskRepo) List(f repository.TaskFilter) ([]*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
		out = append(out, r.clone(t))
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	r.tasks[t.ID] = r.clone(t)
	return nil
}

func (r *fakeTaskRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

// capturePublisher records published email jobs instead of hitting RabbitMQ.
type capturePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error // when set, PublishJSON fails with it
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var job mailer.EmailJob
	if err := json.Unmarshal(b, &job); err != nil {
		return err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *capturePublisher) sent() []mailer.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]mailer.EmailJob, len(p.jobs))
	copy(out, p.jobs)
	return out
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
