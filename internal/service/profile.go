package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidImage     = errors.New("image must be an http(s) URL")
	ErrAlreadyOnboarded = errors.New("profile setup already completed")
)

// ProfileService covers onboarding and profile reads and edits.
type ProfileService struct {
	users    UserStore
	courses  CourseStore
	sessions *Sessions
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users UserStore, courses CourseStore, sessions *Sessions) *ProfileService {
	return &ProfileService{users: users, courses: courses, sessions: sessions}
}

// CompleteSetup sets the display name and password of an account that has
// neither. Every session of the account is invalidated and the caller must
// sign in again with the new password.
func (s *ProfileService) CompleteSetup(ctx context.Context, id model.Identity, req model.SetupRequest) error {
	user, err := s.getUser(ctx, id.UserID)
	if err != nil {
		return err
	}
	if !user.NeedsOnboarding() {
		return ErrAlreadyOnboarded
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrNameRequired
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	return s.users.CompleteSetup(ctx, user.ID, name, hash)
}

// Profile returns the caller's own account.
func (s *ProfileService) Profile(ctx context.Context, id model.Identity) (model.UserResponse, error) {
	user, err := s.getUser(ctx, id.UserID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(user), nil
}

// UpdateProfile applies a partial edit and reissues the session so the new
// name and avatar take effect immediately.
func (s *ProfileService) UpdateProfile(ctx context.Context, id model.Identity, req model.UpdateProfileRequest) (model.SessionResponse, error) {
	user, err := s.getUser(ctx, id.UserID)
	if err != nil {
		return model.SessionResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.SessionResponse{}, ErrNameRequired
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Image != nil {
		image := strings.TrimSpace(*req.Image)
		if image != "" && !strings.HasPrefix(image, "http") {
			return model.SessionResponse{}, ErrInvalidImage
		}
		user.Image = image
	}

	if err := s.users.UpdateProfile(ctx, user.ID, user.Name, user.Bio, user.Image); err != nil {
		return model.SessionResponse{}, err
	}
	return s.sessions.Issue(user)
}

// PublicProfile returns another user's profile with their courses. viewer
// may be nil for anonymous callers.
func (s *ProfileService) PublicProfile(ctx context.Context, viewer *model.Identity, userID int64) (model.PublicProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.PublicProfile{}, err
	}

	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return model.PublicProfile{}, err
	}

	return model.PublicProfile{
		User: model.PublicUser{
			ID:          user.ID,
			Handle:      user.Handle,
			Name:        user.Name,
			Image:       user.Image,
			Bio:         user.Bio,
			CourseCount: user.CourseCount,
			CreatedAt:   user.CreatedAt,
		},
		Courses:      courses,
		IsOwnProfile: viewer != nil && viewer.UserID == userID,
	}, nil
}

func (s *ProfileService) getUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
