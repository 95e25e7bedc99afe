package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fullcourse/fullcourse-api/internal/crypto"
	"github.com/fullcourse/fullcourse-api/internal/metrics"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrHandleTaken            = errors.New("handle already taken")
	ErrCodeNotFound           = errors.New("verification code not found, request a new one")
	ErrCodeMismatch           = errors.New("verification code does not match")
	ErrCodeExpired            = errors.New("verification code has expired")
)

// RegistrationService runs the email-code registration flow:
// send code, verify code, then register with the same code.
type RegistrationService struct {
	users    UserStore
	tokens   *OneTimeTokens
	notify   *Notifier
	sessions *Sessions
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(users UserStore, tokens *OneTimeTokens, notify *Notifier, sessions *Sessions) *RegistrationService {
	return &RegistrationService{
		users:    users,
		tokens:   tokens,
		notify:   notify,
		sessions: sessions,
	}
}

// SendCode mails a fresh 6-digit code to an unregistered email, replacing any earlier code.
func (s *RegistrationService) SendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if err := s.ensureUnregistered(ctx, email); err != nil {
		return err
	}

	code, err := crypto.GenerateCode(crypto.CodeLength)
	if err != nil {
		return err
	}
	if err := s.tokens.Issue(ctx, model.PurposeEmailVerification, email, code); err != nil {
		return err
	}
	return s.notify.SendVerificationCode(email, code)
}

// VerifyCode checks a code without consuming it.
func (s *RegistrationService) VerifyCode(ctx context.Context, email, code string) error {
	return s.checkCode(ctx, normalizeEmail(email), code)
}

// Register re-validates the code, creates the account, consumes the code and
// signs the new user in.
func (s *RegistrationService) Register(ctx context.Context, req model.RegisterRequest) (model.SessionResponse, error) {
	resp, err := s.register(ctx, req)
	metrics.AuthAttempts.WithLabelValues("register", metrics.Result(err)).Inc()
	return resp, err
}

func (s *RegistrationService) register(ctx context.Context, req model.RegisterRequest) (model.SessionResponse, error) {
	email := normalizeEmail(req.Email)

	if err := s.checkCode(ctx, email, req.Code); err != nil {
		return model.SessionResponse{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.SessionResponse{}, err
	}

	user := &model.User{
		Email:        email,
		Handle:       req.Handle,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateHandle):
			return model.SessionResponse{}, ErrHandleTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.SessionResponse{}, ErrEmailAlreadyRegistered
		}
		return model.SessionResponse{}, err
	}

	if err := s.tokens.Consume(ctx, model.PurposeEmailVerification, email); err != nil {
		return model.SessionResponse{}, err
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return model.SessionResponse{}, err
	}
	return s.sessions.Issue(created)
}

func (s *RegistrationService) ensureUnregistered(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailAlreadyRegistered
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	}
	return err
}

func (s *RegistrationService) checkCode(ctx context.Context, email, code string) error {
	err := s.tokens.Check(ctx, model.PurposeEmailVerification, email, code)
	switch {
	case errors.Is(err, errTokenMissing):
		return ErrCodeNotFound
	case errors.Is(err, errTokenMismatch):
		return ErrCodeMismatch
	case errors.Is(err, errTokenExpired):
		return ErrCodeExpired
	}
	return err
}
