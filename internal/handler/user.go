package handler

import (
	"errors"
	"net/http"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// UserHandler handles onboarding and profile requests.
type UserHandler struct {
	profile *service.ProfileService
	cookies Cookies
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profile *service.ProfileService, cookies Cookies) *UserHandler {
	return &UserHandler{profile: profile, cookies: cookies}
}

// HandleSetup handles POST /user/setup requests. Setup invalidates every
// session of the account, so the cookie is cleared and the client signs in again.
func (h *UserHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profile.CompleteSetup(r.Context(), id, req); err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired), isValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrAlreadyOnboarded):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			internalError(w, "complete setup", err)
		}
		return
	}

	h.cookies.clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"reauthRequired": true})
}

// HandleGetProfile handles GET /user/profile requests.
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.profile.Profile(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, "get profile", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateProfile handles PATCH /user/profile requests.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.profile.UpdateProfile(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrInvalidImage):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			internalError(w, "update profile", err)
		}
		return
	}

	h.cookies.set(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// HandlePublicProfile handles GET /users/{id} requests.
func (h *UserHandler) HandlePublicProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.profile.PublicProfile(r.Context(), viewer(r), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, "public profile", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
