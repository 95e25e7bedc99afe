package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrCannotModifySelf   = errors.New("administrators cannot modify their own account")
	ErrInvalidStatus      = errors.New("unknown submission status")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCommentNotFound    = errors.New("comment not found")
)

// AdminService holds moderation operations. Callers must be administrators;
// the HTTP layer enforces that before any method runs.
type AdminService struct {
	users       UserStore
	courses     CourseStore
	comments    CommentStore
	submissions SubmissionStore
}

// NewAdminService creates a new AdminService.
func NewAdminService(users UserStore, courses CourseStore, comments CommentStore, submissions SubmissionStore) *AdminService {
	return &AdminService{users: users, courses: courses, comments: comments, submissions: submissions}
}

// Submissions lists contact submissions, optionally filtered by status.
func (s *AdminService) Submissions(ctx context.Context, status model.SubmissionStatus) ([]model.Submission, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.submissions.List(ctx, status)
}

// SetSubmissionStatus relabels a submission. Any status may follow any other.
func (s *AdminService) SetSubmissionStatus(ctx context.Context, admin model.Identity, id int64, status model.SubmissionStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.submissions.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}
	slog.Info("submission status changed", "admin_id", admin.UserID, "submission_id", id, "status", status)
	return nil
}

// Users lists every account.
func (s *AdminService) Users(ctx context.Context) ([]model.AdminUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, model.AdminUser{
			ID:          u.ID,
			Email:       u.Email,
			Name:        u.Name,
			IsAdmin:     u.IsAdmin,
			CourseCount: u.CourseCount,
			CreatedAt:   u.CreatedAt,
		})
	}
	return out, nil
}

// DeleteUser removes an account and everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, admin model.Identity, userID int64) error {
	if admin.UserID == userID {
		return ErrCannotModifySelf
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	slog.Info("user deleted", "admin_id", admin.UserID, "user_id", userID)
	return nil
}

// ToggleRole flips the admin flag of another account and returns the new value.
func (s *AdminService) ToggleRole(ctx context.Context, admin model.Identity, userID int64) (bool, error) {
	if admin.UserID == userID {
		return false, ErrCannotModifySelf
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	isAdmin := !user.IsAdmin
	if err := s.users.SetAdmin(ctx, userID, isAdmin); err != nil {
		return false, err
	}
	slog.Info("user role changed", "admin_id", admin.UserID, "user_id", userID, "is_admin", isAdmin)
	return isAdmin, nil
}

// Promote grants administrator rights to the account registered under email.
// It reports false when the account is already an administrator.
func (s *AdminService) Promote(ctx context.Context, email string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if user.IsAdmin {
		return false, nil
	}

	if err := s.users.SetAdmin(ctx, user.ID, true); err != nil {
		return false, err
	}
	slog.Info("user promoted to admin", "user_id", user.ID)
	return true, nil
}

// BootstrapAdmins promotes each listed email that has an account. Unknown
// emails are skipped so an operator can list an address before it registers.
func (s *AdminService) BootstrapAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		if _, err := s.Promote(ctx, email); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				slog.Warn("admin email has no account yet", "email", email)
				continue
			}
			return fmt.Errorf("promoting %s: %w", email, err)
		}
	}
	return nil
}

// DeleteComment removes any comment and refreshes its course's count.
func (s *AdminService) DeleteComment(ctx context.Context, admin model.Identity, commentID int64) error {
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	slog.Info("comment deleted", "admin_id", admin.UserID, "comment_id", commentID)
	return nil
}

// Stats summarizes the dashboard counts.
func (s *AdminService) Stats(ctx context.Context) (model.AdminStats, error) {
	var (
		stats model.AdminStats
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Courses, err = s.courses.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Comments, err = s.comments.Count(ctx); err != nil {
		return stats, err
	}
	if stats.OpenSubmissions, err = s.submissions.CountByStatus(ctx, model.StatusOpen); err != nil {
		return stats, err
	}
	return stats, nil
}
