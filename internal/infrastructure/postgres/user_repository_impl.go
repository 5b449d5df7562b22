package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, is_active,
	email_verified, email_verification_token, reset_token, reset_token_expiry,
	last_login, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password,
		&u.Role, &u.IsActive, &u.EmailVerified, &u.VerificationToken,
		&u.ResetToken, &u.ResetTokenExpiry, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role,
			is_active, email_verified, email_verification_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, u.FirstName, u.LastName, u.Email, u.Password, u.Role,
		u.IsActive, u.EmailVerified, u.VerificationToken)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
}

func (r *UserRepository) GetByVerificationToken(token string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+`
		FROM users
		WHERE email_verification_token = $1
	`, token))
}

func (r *UserRepository) GetByResetToken(token string, now time.Time) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+`
		FROM users
		WHERE reset_token = $1 AND reset_token_expiry > $2
	`, token, now))
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, role = $4,
			is_active = $5, updated_at = $6
		WHERE id = $7
	`, u.FirstName, u.LastName, u.Email, u.Role, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetVerificationToken(id, token string) error {
	return r.exec(`
		UPDATE users
		SET email_verification_token = $1, updated_at = now()
		WHERE id = $2
	`, token, id)
}

func (r *UserRepository) MarkVerified(id string) error {
	return r.exec(`
		UPDATE users
		SET email_verified = true, email_verification_token = NULL, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *UserRepository) SetResetToken(id, token string, expiry time.Time) error {
	return r.exec(`
		UPDATE users
		SET reset_token = $1, reset_token_expiry = $2, updated_at = now()
		WHERE id = $3
	`, token, expiry, id)
}

func (r *UserRepository) ResetPassword(id, passwordHash string) error {
	return r.exec(`
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE id = $2
	`, passwordHash, id)
}

func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	return r.exec(`
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE id = $2
	`, passwordHash, id)
}

func (r *UserRepository) TouchLastLogin(id string, at time.Time) error {
	return r.exec(`
		UPDATE users
		SET last_login = $1
		WHERE id = $2
	`, at, id)
}

func (r *UserRepository) exec(sql string, args ...any) error {
	res, err := r.pool.Exec(context.Background(), sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
