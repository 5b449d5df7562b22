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

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(t *entity.RefreshToken) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expiry_date, is_revoked, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, t.Token, t.UserID, t.ExpiryDate, t.IsRevoked, t.UserAgent, t.IPAddress)

	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *RefreshTokenRepository) Get(token string) (*entity.RefreshToken, error) {
	t := &entity.RefreshToken{}
	row := r.pool.QueryRow(context.Background(), `
		SELECT id, token, user_id, expiry_date, is_revoked, user_agent, ip_address, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, token)

	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiryDate, &t.IsRevoked,
		&t.UserAgent, &t.IPAddress, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *RefreshTokenRepository) Revoke(token string) error {
	res, err := r.pool.Exec(context.Background(), `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE token = $1
	`, token)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(userID string) (int64, error) {
	res, err := r.pool.Exec(context.Background(), `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE user_id = $1 AND is_revoked = false
	`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *RefreshTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	// Single bounded delete; validation excludes these rows already, so the
	// sweep can run concurrently with issuance and validation.
	res, err := r.pool.Exec(context.Background(), `
		DELETE FROM refresh_tokens
		WHERE expiry_date < $1 OR is_revoked = true
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
