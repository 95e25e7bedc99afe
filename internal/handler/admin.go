package handler

import (
	"errors"
	"net/http"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// AdminHandler handles moderation requests. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleListSubmissions handles GET /admin/submissions?status= requests.
func (h *AdminHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := model.SubmissionStatus(r.URL.Query().Get("status"))

	list, err := h.admin.Submissions(r.Context(), status)
	if err != nil {
		writeAdminError(w, "list submissions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSetSubmissionStatus handles PATCH /admin/submissions/{id} requests.
func (h *AdminHandler) HandleSetSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.SubmissionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.admin.SetSubmissionStatus(r.Context(), admin, id, req.Status); err != nil {
		writeAdminError(w, "set submission status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.SubmissionStatus{"status": req.Status})
}

// HandleListUsers handles GET /admin/users requests.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		internalError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDeleteUser handles DELETE /admin/users/{id} requests.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(r.Context(), admin, userID); err != nil {
		writeAdminError(w, "delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse("user deleted"))
}

// HandleToggleRole handles POST /admin/users/{id}/role requests.
func (h *AdminHandler) HandleToggleRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	isAdmin, err := h.admin.ToggleRole(r.Context(), admin, userID)
	if err != nil {
		writeAdminError(w, "toggle role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": isAdmin})
}

// HandleDeleteComment handles DELETE /admin/comments/{id} requests.
func (h *AdminHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.admin.DeleteComment(r.Context(), admin, commentID); err != nil {
		writeAdminError(w, "delete comment", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse("comment deleted"))
}

// HandleStats handles GET /admin/stats requests.
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		internalError(w, "admin stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeAdminError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCannotModifySelf):
		writeJSON(w, http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		internalError(w, op, err)
	}
}
