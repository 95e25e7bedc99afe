package service

import (
	"context"
	"time"

	"github.com/fullcourse/fullcourse-api/internal/mailer"
	"github.com/fullcourse/fullcourse-api/internal/model"
)

// The interfaces below are the persistence operations services depend on.
// The repository package satisfies them against MySQL.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	CompleteSetup(ctx context.Context, id int64, name, passwordHash string) error
	SetPasswordByEmail(ctx context.Context, email, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, name, bio, image string) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

type TokenStore interface {
	Upsert(ctx context.Context, t *model.OneTimeToken) error
	Get(ctx context.Context, purpose model.TokenPurpose, email string) (*model.OneTimeToken, error)
	Delete(ctx context.Context, purpose model.TokenPurpose, email string) error
	Claim(ctx context.Context, purpose model.TokenPurpose, email, value string, now time.Time) error
	GetByValue(ctx context.Context, purpose model.TokenPurpose, value string) (*model.OneTimeToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CourseStore interface {
	Create(ctx context.Context, course *model.Course, items []model.CourseItemRequest) error
	Update(ctx context.Context, course *model.Course, items []model.CourseItemRequest) error
	Delete(ctx context.Context, courseID, ownerID int64) error
	GetByID(ctx context.Context, id int64) (*model.CourseSummary, error)
	Items(ctx context.Context, courseID int64) ([]model.CourseItem, error)
	List(ctx context.Context, limit, offset int) ([]model.CourseSummary, error)
	ListByUser(ctx context.Context, userID int64) ([]model.CourseSummary, error)
	Count(ctx context.Context) (int, error)
}

type EngagementStore interface {
	Toggle(ctx context.Context, reaction model.Reaction, courseID, userID int64) (bool, int, error)
	UpsertRating(ctx context.Context, courseID, userID int64, score int) (model.RatingAggregate, error)
	DeleteRating(ctx context.Context, courseID, userID int64) (model.RatingAggregate, error)
	ViewerState(ctx context.Context, courseID, userID int64) (model.ViewerState, error)
}

type CommentStore interface {
	Create(ctx context.Context, courseID, userID int64, content string) (*model.Comment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.Comment, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	Search(ctx context.Context, q model.ProductQuery) ([]model.Product, int, error)
}

type SubmissionStore interface {
	List(ctx context.Context, status model.SubmissionStatus) ([]model.Submission, error)
	UpdateStatus(ctx context.Context, id int64, status model.SubmissionStatus) error
	CountByStatus(ctx context.Context, status model.SubmissionStatus) (int, error)
}

// Sender delivers a single email.
type Sender interface {
	Send(email mailer.Email) error
}
