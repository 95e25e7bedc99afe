package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository stores one-time tokens, at most one per (purpose, email).
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Upsert stores a token, replacing any earlier token for the same purpose and email.
func (r *TokenRepository) Upsert(ctx context.Context, t *model.OneTimeToken) error {
	query := `INSERT INTO one_time_tokens (purpose, email, token, expires_at) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token), expires_at = VALUES(expires_at), created_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, t.Purpose, t.Email, t.Value, t.ExpiresAt.UTC())
	return err
}

// Get retrieves the active token for a purpose and email.
func (r *TokenRepository) Get(ctx context.Context, purpose model.TokenPurpose, email string) (*model.OneTimeToken, error) {
	return r.getOne(ctx, `SELECT purpose, email, token, expires_at, created_at
		FROM one_time_tokens WHERE purpose = ? AND email = ?`, purpose, email)
}

// GetByValue retrieves a token by its secret value.
func (r *TokenRepository) GetByValue(ctx context.Context, purpose model.TokenPurpose, value string) (*model.OneTimeToken, error) {
	return r.getOne(ctx, `SELECT purpose, email, token, expires_at, created_at
		FROM one_time_tokens WHERE purpose = ? AND token = ?`, purpose, value)
}

// Delete consumes the token for a purpose and email. Deleting a missing token is a no-op.
func (r *TokenRepository) Delete(ctx context.Context, purpose model.TokenPurpose, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM one_time_tokens WHERE purpose = ? AND email = ?`, purpose, email)
	return err
}

// Claim deletes the token for (purpose, email) only if it still holds value and
// has not expired at now. Exactly one of several concurrent callers wins; the
// others get ErrTokenNotFound.
func (r *TokenRepository) Claim(ctx context.Context, purpose model.TokenPurpose, email, value string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM one_time_tokens WHERE purpose = ? AND email = ? AND token = ? AND expires_at >= ?`,
		purpose, email, value, now.UTC())
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes tokens that expired before now and returns how many were removed.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM one_time_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TokenRepository) getOne(ctx context.Context, query string, args ...any) (*model.OneTimeToken, error) {
	var t model.OneTimeToken
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.Purpose, &t.Email, &t.Value, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}
