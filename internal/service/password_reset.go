package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
)

// PasswordResetService issues and redeems password reset links.
type PasswordResetService struct {
	users  UserStore
	tokens *OneTimeTokens
	notify *Notifier
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(users UserStore, tokens *OneTimeTokens, notify *Notifier) *PasswordResetService {
	return &PasswordResetService{users: users, tokens: tokens, notify: notify}
}

// RequestReset mails a reset link if email belongs to an account. Unknown
// addresses succeed silently so the response never reveals registration.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := s.tokens.Issue(ctx, model.PurposePasswordReset, email, token); err != nil {
		return err
	}
	return s.notify.SendPasswordReset(email, token)
}

// ResetPassword redeems token and sets a new password for the account bound
// to it. All existing sessions of the account are invalidated.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password string) error {
	tok, err := s.tokens.Lookup(ctx, model.PurposePasswordReset, token)
	switch {
	case errors.Is(err, errTokenMissing):
		return ErrInvalidResetToken
	case errors.Is(err, errTokenExpired):
		return ErrResetTokenExpired
	case err != nil:
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.tokens.Redeem(ctx, model.PurposePasswordReset, tok.Email, token); err != nil {
		switch {
		case errors.Is(err, errTokenExpired):
			return ErrResetTokenExpired
		case isTokenFailure(err):
			return ErrInvalidResetToken
		}
		return err
	}
	if err := s.users.SetPasswordByEmail(ctx, tok.Email, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	return nil
}
