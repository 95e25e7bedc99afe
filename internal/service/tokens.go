package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

// Lifetimes of one-time tokens by purpose.
const (
	VerificationCodeTTL = 10 * time.Minute
	PasswordResetTTL    = 24 * time.Hour
	MagicLinkTTL        = 15 * time.Minute
)

// TTLFor returns the lifetime of a token purpose.
func TTLFor(purpose model.TokenPurpose) time.Duration {
	switch purpose {
	case model.PurposeEmailVerification:
		return VerificationCodeTTL
	case model.PurposePasswordReset:
		return PasswordResetTTL
	case model.PurposeMagicLink:
		return MagicLinkTTL
	}
	return 0
}

var (
	errTokenMissing  = errors.New("one-time token missing")
	errTokenMismatch = errors.New("one-time token mismatch")
	errTokenExpired  = errors.New("one-time token expired")
)

// OneTimeTokens issues and checks single-use, time-boxed secrets. Each flow
// maps the generic failures onto its own errors.
type OneTimeTokens struct {
	store TokenStore
	now   func() time.Time
}

// NewOneTimeTokens creates a OneTimeTokens over store.
func NewOneTimeTokens(store TokenStore) *OneTimeTokens {
	return &OneTimeTokens{store: store, now: time.Now}
}

// Issue stores value for (purpose, email), replacing any earlier token.
func (t *OneTimeTokens) Issue(ctx context.Context, purpose model.TokenPurpose, email, value string) error {
	return t.store.Upsert(ctx, &model.OneTimeToken{
		Purpose:   purpose,
		Email:     email,
		Value:     value,
		ExpiresAt: t.now().Add(TTLFor(purpose)),
	})
}

// Check verifies value against the stored token without consuming it.
func (t *OneTimeTokens) Check(ctx context.Context, purpose model.TokenPurpose, email, value string) error {
	tok, err := t.store.Get(ctx, purpose, email)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return errTokenMissing
		}
		return err
	}
	if tok.Value != value {
		return errTokenMismatch
	}
	if tok.Expired(t.now()) {
		return errTokenExpired
	}
	return nil
}

// Lookup finds an unexpired token by its value.
func (t *OneTimeTokens) Lookup(ctx context.Context, purpose model.TokenPurpose, value string) (*model.OneTimeToken, error) {
	tok, err := t.store.GetByValue(ctx, purpose, value)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, errTokenMissing
		}
		return nil, err
	}
	if tok.Expired(t.now()) {
		return nil, errTokenExpired
	}
	return tok, nil
}

// Redeem atomically consumes the token for (purpose, email) if it still holds
// value. A token can be redeemed once even under concurrent requests.
func (t *OneTimeTokens) Redeem(ctx context.Context, purpose model.TokenPurpose, email, value string) error {
	if err := t.Check(ctx, purpose, email, value); err != nil {
		return err
	}
	if err := t.store.Claim(ctx, purpose, email, value, t.now()); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return errTokenMissing
		}
		return err
	}
	return nil
}

// Consume deletes the token for (purpose, email).
func (t *OneTimeTokens) Consume(ctx context.Context, purpose model.TokenPurpose, email string) error {
	return t.store.Delete(ctx, purpose, email)
}

// Purge deletes every expired token.
func (t *OneTimeTokens) Purge(ctx context.Context) (int64, error) {
	return t.store.DeleteExpired(ctx, t.now())
}

// RunPurger purges expired tokens every interval until ctx is done.
func (t *OneTimeTokens) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.Purge(ctx)
			if err != nil {
				slog.Error("failed to purge expired tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired tokens", "count", n)
			}
		}
	}
}
