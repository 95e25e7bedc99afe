package service

import (
	"errors"
	"strings"
	"time"

	"github.com/fullcourse/fullcourse-api/internal/crypto"
	"github.com/fullcourse/fullcourse-api/internal/model"
)

// Sessions signs stateless session tokens from current user rows.
type Sessions struct {
	secret string
	ttl    time.Duration
}

// NewSessions creates a session issuer.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl}
}

// TTL is the lifetime of issued tokens.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session for u carrying its current name, avatar and session version.
func (s *Sessions) Issue(u *model.User) (model.SessionResponse, error) {
	token, err := crypto.GenerateSessionToken(crypto.SessionSubject{
		UserID:         u.ID,
		IsAdmin:        u.IsAdmin,
		Name:           u.Name,
		Image:          u.Image,
		SessionVersion: u.SessionVersion,
	}, s.secret, s.ttl)
	if err != nil {
		return model.SessionResponse{}, err
	}
	return model.SessionResponse{Token: token, User: model.NewUserResponse(u)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword hashes a new password, reporting an over-long one as a
// validation failure on the password field.
func hashPassword(password string) (string, error) {
	hash, err := crypto.HashPassword(password)
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return "", &model.ValidationError{Field: "password", Rule: "password"}
	}
	return hash, err
}
