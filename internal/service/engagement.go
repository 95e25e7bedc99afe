package service

import (
	"context"
	"errors"

	"github.com/fullcourse/fullcourse-api/internal/metrics"
	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrInvalidScore   = errors.New("score must be an integer from 1 to 5")
)

// EngagementService handles reactions, ratings and the course detail view
// that reflects them.
type EngagementService struct {
	courses    CourseStore
	engagement EngagementStore
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(courses CourseStore, engagement EngagementStore) *EngagementService {
	return &EngagementService{courses: courses, engagement: engagement}
}

// ToggleWantsToEat flips the caller's want-to-try mark on a course.
func (s *EngagementService) ToggleWantsToEat(ctx context.Context, id model.Identity, courseID int64) (model.ToggleResponse, error) {
	return s.toggle(ctx, model.ReactionWantsToEat, id, courseID)
}

// ToggleTried flips the caller's tried mark on a course.
func (s *EngagementService) ToggleTried(ctx context.Context, id model.Identity, courseID int64) (model.ToggleResponse, error) {
	return s.toggle(ctx, model.ReactionTried, id, courseID)
}

func (s *EngagementService) toggle(ctx context.Context, r model.Reaction, id model.Identity, courseID int64) (model.ToggleResponse, error) {
	added, count, err := s.engagement.Toggle(ctx, r, courseID, id.UserID)
	if err != nil {
		return model.ToggleResponse{}, mapCourseErr(err)
	}

	state := "removed"
	if added {
		state = "added"
	}
	metrics.ReactionToggles.WithLabelValues(string(r), state).Inc()

	return model.ToggleResponse{Added: added, Count: count}, nil
}

// Rate creates or replaces the caller's score and returns the new aggregate.
func (s *EngagementService) Rate(ctx context.Context, id model.Identity, courseID int64, score int) (model.RatingResponse, error) {
	if score < 1 || score > 5 {
		return model.RatingResponse{}, ErrInvalidScore
	}

	agg, err := s.engagement.UpsertRating(ctx, courseID, id.UserID, score)
	if err != nil {
		return model.RatingResponse{}, mapCourseErr(err)
	}
	metrics.RatingWrites.WithLabelValues("rate").Inc()

	return model.RatingResponse{
		Score:             score,
		AverageRating:     agg.Average,
		TotalRatingsCount: agg.Count,
	}, nil
}

// Unrate removes the caller's score if any and returns the new aggregate.
func (s *EngagementService) Unrate(ctx context.Context, id model.Identity, courseID int64) (model.UnrateResponse, error) {
	agg, err := s.engagement.DeleteRating(ctx, courseID, id.UserID)
	if err != nil {
		return model.UnrateResponse{}, mapCourseErr(err)
	}
	metrics.RatingWrites.WithLabelValues("unrate").Inc()

	return model.UnrateResponse{
		AverageRating:     agg.Average,
		TotalRatingsCount: agg.Count,
	}, nil
}

// CourseDetail returns a course with items, aggregates and, for a signed-in
// viewer, their own reactions. viewer may be nil.
func (s *EngagementService) CourseDetail(ctx context.Context, viewer *model.Identity, courseID int64) (model.CourseDetail, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return model.CourseDetail{}, mapCourseErr(err)
	}

	items, err := s.courses.Items(ctx, courseID)
	if err != nil {
		return model.CourseDetail{}, err
	}

	detail := model.CourseDetail{
		ID:                course.ID,
		Title:             course.Title,
		Description:       course.Description,
		User:              course.User,
		Items:             items,
		AverageRating:     course.AverageRating,
		TotalRatingsCount: course.TotalRatingsCount,
		WantsToEatCount:   course.WantsToEatCount,
		TriedCount:        course.TriedCount,
		CommentCount:      course.CommentCount,
		CreatedAt:         course.CreatedAt,
	}

	if viewer != nil {
		state, err := s.engagement.ViewerState(ctx, courseID, viewer.UserID)
		if err != nil {
			return model.CourseDetail{}, err
		}
		detail.IsWantsToEat = state.WantsToEat
		detail.IsTried = state.Tried
		detail.UserRatingScore = state.Score
	}

	return detail, nil
}

func mapCourseErr(err error) error {
	if errors.Is(err, repository.ErrCourseNotFound) {
		return ErrCourseNotFound
	}
	return err
}
