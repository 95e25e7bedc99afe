package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer            = "fullcourse"
	sessionAudience   = "fullcourse-session"
	magicLinkAudience = "fullcourse-magic-link"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// SessionClaims is the stateless session. Name and Image ride along so that
// profile edits reach the client without a fresh login.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID         int64  `json:"user_id"`
	IsAdmin        bool   `json:"is_admin"`
	Name           string `json:"name,omitempty"`
	Image          string `json:"picture,omitempty"`
	SessionVersion int    `json:"sv"`
}

// SessionSubject is what a session asserts about its user.
type SessionSubject struct {
	UserID         int64
	IsAdmin        bool
	Name           string
	Image          string
	SessionVersion int
}

// MagicLinkClaims wraps the stored one-time value of a sign-in link.
type MagicLinkClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

// GenerateSessionToken creates a signed session token for the given subject.
func GenerateSessionToken(sub SessionSubject, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:         sub.UserID,
		IsAdmin:        sub.IsAdmin,
		Name:           sub.Name,
		Image:          sub.Image,
		SessionVersion: sub.SessionVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken parses and validates a session token, returning the claims if valid.
func ValidateSessionToken(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parse(tokenString, secret, sessionAudience, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateMagicLinkToken signs the stored nonce of a magic link.
func GenerateMagicLinkToken(email, nonce, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := MagicLinkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{magicLinkAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
		Nonce: nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateMagicLinkToken parses a magic link token.
func ValidateMagicLinkToken(tokenString, secret string) (*MagicLinkClaims, error) {
	claims := &MagicLinkClaims{}
	if err := parse(tokenString, secret, magicLinkAudience, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenString, secret, audience string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
