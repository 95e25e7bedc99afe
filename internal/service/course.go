package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fullcourse/fullcourse-api/internal/metrics"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title must be at most 100 characters")
	ErrDescriptionMissing = errors.New("description is required")
	ErrItemsRequired      = errors.New("at least one course item is required")
	ErrInvalidItem        = errors.New("course item needs a product and a known role")
	ErrProductNotFound    = errors.New("product not found")
	ErrMissingSlots       = errors.New("course is missing mandatory slots")
)

const (
	DefaultCoursePageSize = 10
	MaxCoursePageSize     = 50
	maxTitleLength        = 100
)

var knownRoles = map[string]bool{
	model.RoleAppetizer: true,
	model.RoleSnack:     true,
	model.RoleMain:      true,
	model.RoleDessert:   true,
	model.RoleDrink:     true,
	model.RoleOther:     true,
}

// CourseService handles course composition and listing.
type CourseService struct {
	courses CourseStore
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses CourseStore) *CourseService {
	return &CourseService{courses: courses}
}

// Create stores a new course owned by the caller. With strict set the
// five mandatory slots must be filled as well.
func (s *CourseService) Create(ctx context.Context, id model.Identity, req model.CourseRequest, strict bool) (int64, error) {
	req, err := normalizeCourse(req, strict)
	if err != nil {
		return 0, err
	}

	course := &model.Course{UserID: id.UserID, Title: req.Title, Description: req.Description}
	if err := s.courses.Create(ctx, course, req.Items); err != nil {
		return 0, mapProductErr(err)
	}
	metrics.CourseWrites.WithLabelValues("create").Inc()

	return course.ID, nil
}

// Update replaces the caller's course wholesale, including its items.
func (s *CourseService) Update(ctx context.Context, id model.Identity, courseID int64, req model.CourseRequest, strict bool) error {
	if err := s.Authorize(ctx, id, courseID); err != nil {
		return err
	}

	req, err := normalizeCourse(req, strict)
	if err != nil {
		return err
	}

	course := &model.Course{ID: courseID, UserID: id.UserID, Title: req.Title, Description: req.Description}
	if err := s.courses.Update(ctx, course, req.Items); err != nil {
		return mapProductErr(mapCourseErr(err))
	}
	metrics.CourseWrites.WithLabelValues("update").Inc()
	return nil
}

// Delete removes the caller's course.
func (s *CourseService) Delete(ctx context.Context, id model.Identity, courseID int64) error {
	if err := s.Authorize(ctx, id, courseID); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, courseID, id.UserID); err != nil {
		return mapCourseErr(err)
	}
	metrics.CourseWrites.WithLabelValues("delete").Inc()
	return nil
}

// List returns one page of courses, newest first. Out-of-range paging is clamped.
func (s *CourseService) List(ctx context.Context, page, limit int) (model.CoursePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultCoursePageSize
	}
	if limit > MaxCoursePageSize {
		limit = MaxCoursePageSize
	}

	total, err := s.courses.Count(ctx)
	if err != nil {
		return model.CoursePage{}, err
	}
	courses, err := s.courses.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return model.CoursePage{}, err
	}

	return model.CoursePage{
		Courses:    courses,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

// Authorize reports ErrCourseNotFound or ErrForbidden unless the caller owns courseID.
func (s *CourseService) Authorize(ctx context.Context, id model.Identity, courseID int64) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return mapCourseErr(err)
	}
	if course.User.ID != id.UserID {
		return ErrForbidden
	}
	return nil
}

// ValidateMandatorySlots checks that items cover appetizer, snack, two mains
// and dessert. Extra items of any role are allowed.
func ValidateMandatorySlots(items []model.CourseItemRequest) error {
	have := make(map[string]int)
	for _, it := range items {
		have[it.Role]++
	}

	need := make(map[string]int)
	for _, role := range model.MandatorySlots {
		need[role]++
	}

	var missing []string
	for _, role := range []string{model.RoleAppetizer, model.RoleSnack, model.RoleMain, model.RoleDessert} {
		if have[role] < need[role] {
			missing = append(missing, fmt.Sprintf("%s x%d", role, need[role]-have[role]))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSlots, strings.Join(missing, ", "))
	}
	return nil
}

func normalizeCourse(req model.CourseRequest, strict bool) (model.CourseRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	switch {
	case req.Title == "":
		return req, ErrTitleRequired
	case utf8.RuneCountInString(req.Title) > maxTitleLength:
		return req, ErrTitleTooLong
	case req.Description == "":
		return req, ErrDescriptionMissing
	case len(req.Items) == 0:
		return req, ErrItemsRequired
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 || !knownRoles[it.Role] {
			return req, ErrInvalidItem
		}
	}
	if strict {
		if err := ValidateMandatorySlots(req.Items); err != nil {
			return req, err
		}
	}
	return req, nil
}

func mapProductErr(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return err
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
