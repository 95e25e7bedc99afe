package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fullcourse/fullcourse-api/internal/crypto"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

type contextKey string

const identityKey contextKey = "identity"

var errNoSession = errors.New("no session")

// SessionVersions reports the current session version of a user. Tokens
// minted before the last bump are rejected.
type SessionVersions interface {
	SessionVersion(ctx context.Context, userID int64) (int, error)
}

// Authenticate returns middleware that requires a valid, current session
// from the session cookie or an Authorization: Bearer header.
func Authenticate(secret string, versions SessionVersions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, secret, versions)
			if err != nil {
				if errors.Is(err, errNoSession) || errors.Is(err, crypto.ErrInvalidToken) {
					writeJSONError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				slog.Error("failed to check session", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid session is
// present and lets anonymous requests through unchanged.
func OptionalAuth(secret string, versions SessionVersions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, secret, versions)
			if err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProfile rejects sessions of accounts that have not finished onboarding.
// It must run after Authenticate.
func RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if id.NeedsOnboarding() {
			writeJSONError(w, http.StatusForbidden, "profile setup required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-administrators. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !id.IsAdmin {
			writeJSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

func identify(r *http.Request, secret string, versions SessionVersions) (model.Identity, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return model.Identity{}, errNoSession
	}

	claims, err := crypto.ValidateSessionToken(token, secret)
	if err != nil {
		return model.Identity{}, err
	}

	current, err := versions.SessionVersion(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Identity{}, errNoSession
		}
		return model.Identity{}, err
	}
	if claims.SessionVersion != current {
		return model.Identity{}, errNoSession
	}

	return model.Identity{
		UserID:  claims.UserID,
		IsAdmin: claims.IsAdmin,
		Name:    claims.Name,
		Image:   claims.Image,
	}, nil
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
