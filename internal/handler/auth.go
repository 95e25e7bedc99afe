package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// AuthHandler handles HTTP requests for sign-in, registration and password reset.
type AuthHandler struct {
	auth         *service.AuthService
	registration *service.RegistrationService
	reset        *service.PasswordResetService
	cookies      Cookies
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, registration *service.RegistrationService, reset *service.PasswordResetService, cookies Cookies) *AuthHandler {
	return &AuthHandler{auth: auth, registration: registration, reset: reset, cookies: cookies}
}

// HandleLogin handles POST /auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
			return
		}
		internalError(w, "login", err)
		return
	}

	h.cookies.set(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogout handles POST /auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMagicLink handles POST /auth/magic-link requests. The answer is the
// same whether or not the email is known or the mail went out.
func (h *AuthHandler) HandleMagicLink(w http.ResponseWriter, r *http.Request) {
	var req model.MagicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.RequestMagicLink(r.Context(), req.Email); err != nil {
		slog.Error("failed to send magic link", "error", err)
	}

	writeJSON(w, http.StatusOK, messageResponse("if the address can sign in, a link is on its way"))
}

// HandleMagicCallback handles GET /auth/magic?token= requests.
func (h *AuthHandler) HandleMagicCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(service.ErrInvalidMagicLink.Error()))
		return
	}

	resp, err := h.auth.ConsumeMagicLink(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMagicLink) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		internalError(w, "magic link", err)
		return
	}

	h.cookies.set(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// HandleSendCode handles POST /auth/send-otp requests.
func (h *AuthHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	var req model.SendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.registration.SendCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
			return
		}
		internalError(w, "send code", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("verification code sent"))
}

// HandleVerifyCode handles POST /auth/verify-otp requests.
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.registration.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		if isCodeError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		internalError(w, "verify code", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// HandleRegister handles POST /register requests. A successful registration
// signs the new user in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.registration.Register(r.Context(), req)
	if err != nil {
		switch {
		case isCodeError(err), isValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailAlreadyRegistered), errors.Is(err, service.ErrHandleTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			internalError(w, "register", err)
		}
		return
	}

	h.cookies.set(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// HandleForgotPassword handles POST /auth/forgot-password requests.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		slog.Error("failed to request password reset", "error", err)
	}

	writeJSON(w, http.StatusOK, messageResponse("if the address is registered, a reset link is on its way"))
}

// HandleResetPassword handles POST /auth/reset-password requests.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.reset.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrResetTokenExpired), isValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w, "reset password", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("password updated"))
}

// HandleMe handles GET /auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.auth.Me(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, "me", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleRefresh handles POST /auth/refresh requests.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.auth.RefreshSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, "refresh session", err)
		return
	}

	h.cookies.set(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

func isCodeError(err error) bool {
	return errors.Is(err, service.ErrCodeNotFound) ||
		errors.Is(err, service.ErrCodeMismatch) ||
		errors.Is(err, service.ErrCodeExpired)
}
