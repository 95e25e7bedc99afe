package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fullcourse/fullcourse-api/internal/metrics"
	"github.com/fullcourse/fullcourse-api/internal/model"
)

const maxCommentLength = 1000

var (
	ErrInvalidContent = errors.New("comment must not be empty")
	ErrContentTooLong = fmt.Errorf("comment must be at most %d characters", maxCommentLength)
)

// CommentService handles course comments.
type CommentService struct {
	comments CommentStore
	courses  CourseStore
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentStore, courses CourseStore) *CommentService {
	return &CommentService{comments: comments, courses: courses}
}

// Post adds a comment by the caller to a course.
func (s *CommentService) Post(ctx context.Context, id model.Identity, courseID int64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidContent
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, ErrContentTooLong
	}

	c, err := s.comments.Create(ctx, courseID, id.UserID, content)
	if err != nil {
		return nil, mapCourseErr(err)
	}
	metrics.CommentsPosted.Inc()
	return c, nil
}

// List returns a course's comments, newest first.
func (s *CommentService) List(ctx context.Context, courseID int64) ([]model.Comment, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, mapCourseErr(err)
	}
	return s.comments.ListByCourse(ctx, courseID)
}
