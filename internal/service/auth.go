package service

import (
	"context"
	"errors"

	"github.com/fullcourse/fullcourse-api/internal/crypto"
	"github.com/fullcourse/fullcourse-api/internal/metrics"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidMagicLink   = errors.New("invalid or expired sign-in link")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles sign-in by password and by magic link.
type AuthService struct {
	users    UserStore
	tokens   *OneTimeTokens
	notify   *Notifier
	sessions *Sessions
	secret   string
}

// NewAuthService creates a new AuthService. secret signs magic-link tokens.
func NewAuthService(users UserStore, tokens *OneTimeTokens, notify *Notifier, sessions *Sessions, secret string) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		notify:   notify,
		sessions: sessions,
		secret:   secret,
	}
}

// Login authenticates a user by password and returns a session.
// Unknown email, passwordless account and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.SessionResponse, error) {
	resp, err := s.login(ctx, req)
	metrics.AuthAttempts.WithLabelValues("password", metrics.Result(err)).Inc()
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req model.LoginRequest) (model.SessionResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.SessionResponse{}, ErrInvalidCredentials
		}
		return model.SessionResponse{}, err
	}

	if !user.HasPassword() {
		return model.SessionResponse{}, ErrInvalidCredentials
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.SessionResponse{}, err
	}
	if !match {
		return model.SessionResponse{}, ErrInvalidCredentials
	}

	return s.sessions.Issue(user)
}

// RequestMagicLink mails a single-use sign-in link to email. The caller
// answers uniformly whatever the outcome.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	nonce, err := crypto.GenerateNonce(32)
	if err != nil {
		return err
	}
	if err := s.tokens.Issue(ctx, model.PurposeMagicLink, email, nonce); err != nil {
		return err
	}

	token, err := crypto.GenerateMagicLinkToken(email, nonce, s.secret, MagicLinkTTL)
	if err != nil {
		return err
	}
	return s.notify.SendMagicLink(email, token)
}

// ConsumeMagicLink signs in the email bound to token, creating the account on
// first use. Accounts created here have no name or password until onboarding.
func (s *AuthService) ConsumeMagicLink(ctx context.Context, token string) (model.SessionResponse, error) {
	resp, err := s.consumeMagicLink(ctx, token)
	metrics.AuthAttempts.WithLabelValues("magic_link", metrics.Result(err)).Inc()
	return resp, err
}

func (s *AuthService) consumeMagicLink(ctx context.Context, token string) (model.SessionResponse, error) {
	claims, err := crypto.ValidateMagicLinkToken(token, s.secret)
	if err != nil {
		return model.SessionResponse{}, ErrInvalidMagicLink
	}

	if err := s.tokens.Redeem(ctx, model.PurposeMagicLink, claims.Email, claims.Nonce); err != nil {
		if isTokenFailure(err) {
			return model.SessionResponse{}, ErrInvalidMagicLink
		}
		return model.SessionResponse{}, err
	}

	user, err := s.findOrCreate(ctx, claims.Email)
	if err != nil {
		return model.SessionResponse{}, err
	}
	return s.sessions.Issue(user)
}

func (s *AuthService) findOrCreate(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if err := s.users.Create(ctx, &model.User{Email: email}); err != nil && !errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, err
	}
	return s.users.GetByEmail(ctx, email)
}

// RefreshSession reissues the caller's session from the current user row so
// profile changes reach the token.
func (s *AuthService) RefreshSession(ctx context.Context, id model.Identity) (model.SessionResponse, error) {
	user, err := s.getUser(ctx, id.UserID)
	if err != nil {
		return model.SessionResponse{}, err
	}
	return s.sessions.Issue(user)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, id model.Identity) (model.UserResponse, error) {
	user, err := s.getUser(ctx, id.UserID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(user), nil
}

func (s *AuthService) getUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func isTokenFailure(err error) bool {
	return errors.Is(err, errTokenMissing) || errors.Is(err, errTokenMismatch) || errors.Is(err, errTokenExpired)
}
