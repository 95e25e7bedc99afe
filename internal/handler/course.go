package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// CourseHandler handles course composition, engagement and comment requests.
type CourseHandler struct {
	courses    *service.CourseService
	engagement *service.EngagementService
	comments   *service.CommentService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courses *service.CourseService, engagement *service.EngagementService, comments *service.CommentService) *CourseHandler {
	return &CourseHandler{courses: courses, engagement: engagement, comments: comments}
}

// HandleList handles GET /courses?page=&limit= requests.
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	resp, err := h.courses.List(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		internalError(w, "list courses", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /courses/{id} requests.
func (h *CourseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.engagement.CourseDetail(r.Context(), viewer(r), courseID)
	if err != nil {
		writeCourseError(w, "get course", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /courses requests. ?strict=true also enforces
// the mandatory slots.
func (h *CourseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	courseID, err := h.courses.Create(r.Context(), id, req, strict(r))
	if err != nil {
		writeCourseError(w, "create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, model.CreateCourseResponse{CourseID: courseID})
}

// HandleUpdate handles PUT /courses/{id} requests.
func (h *CourseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	// Ownership is settled before the body so non-owners never see validation detail.
	if err := h.courses.Authorize(r.Context(), id, courseID); err != nil {
		writeCourseError(w, "update course", err)
		return
	}

	var req model.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.courses.Update(r.Context(), id, courseID, req, strict(r)); err != nil {
		writeCourseError(w, "update course", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse("course updated"))
}

// HandleDelete handles DELETE /courses/{id} requests.
func (h *CourseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.courses.Delete(r.Context(), id, courseID); err != nil {
		writeCourseError(w, "delete course", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse("course deleted"))
}

// HandleWantsToEat handles POST /courses/{id}/wants-to-eat requests.
func (h *CourseHandler) HandleWantsToEat(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.engagement.ToggleWantsToEat)
}

// HandleTried handles POST /courses/{id}/tried requests.
func (h *CourseHandler) HandleTried(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.engagement.ToggleTried)
}

type toggleFunc func(ctx context.Context, id model.Identity, courseID int64) (model.ToggleResponse, error)

func (h *CourseHandler) toggle(w http.ResponseWriter, r *http.Request, fn toggleFunc) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := fn(r.Context(), id, courseID)
	if err != nil {
		writeCourseError(w, "toggle", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRate handles POST /courses/{id}/rating requests.
func (h *CourseHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.RateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.engagement.Rate(r.Context(), id, courseID, req.Score)
	if err != nil {
		writeCourseError(w, "rate course", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUnrate handles DELETE /courses/{id}/rating requests.
func (h *CourseHandler) HandleUnrate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.engagement.Unrate(r.Context(), id, courseID)
	if err != nil {
		writeCourseError(w, "unrate course", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleListComments handles GET /courses/{id}/comments requests.
func (h *CourseHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.comments.List(r.Context(), courseID)
	if err != nil {
		writeCourseError(w, "list comments", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandlePostComment handles POST /courses/{id}/comments requests.
func (h *CourseHandler) HandlePostComment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	courseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Post(r.Context(), id, courseID, req.Content)
	if err != nil {
		writeCourseError(w, "post comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func strict(r *http.Request) bool {
	return r.URL.Query().Get("strict") == "true"
}

// writeCourseError maps course, engagement and comment failures to statuses.
func writeCourseError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrDescriptionMissing),
		errors.Is(err, service.ErrItemsRequired),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrMissingSlots),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, service.ErrContentTooLong):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	default:
		internalError(w, op, err)
	}
}
