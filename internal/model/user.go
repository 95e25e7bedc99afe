package model

import "time"

// User represents a user in the database.
// Name and PasswordHash are empty for accounts created through a magic link
// until onboarding completes.
type User struct {
	ID             int64
	Email          string
	Handle         string
	Name           string
	PasswordHash   string
	Image          string
	Bio            string
	IsAdmin        bool
	CourseCount    int
	SessionVersion int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NeedsOnboarding reports whether the account must complete its profile first.
func (u *User) NeedsOnboarding() bool {
	return u.Name == ""
}

// LoginRequest represents a password login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MagicLinkRequest asks for a sign-in link to be mailed.
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SendCodeRequest starts registration for an email address.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest checks an emailed verification code.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// RegisterRequest completes OTP-gated registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Handle   string `json:"userId" validate:"required,min=3,max=30,handle"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,password"`
}

// ForgotPasswordRequest asks for a password reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest applies a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,password"`
}

// SetupRequest completes onboarding for an account without a display name.
type SetupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,password"`
}

// UpdateProfileRequest is a partial profile update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Bio   *string `json:"bio" validate:"omitempty,max=500"`
	Image *string `json:"image" validate:"omitempty,max=2048"`
}

// SessionResponse is returned by every operation that signs a user in.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Handle          string    `json:"userId,omitempty"`
	Name            string    `json:"name"`
	Image           string    `json:"image,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	IsAdmin         bool      `json:"isAdmin"`
	CourseCount     int       `json:"courseCount"`
	NeedsOnboarding bool      `json:"needsOnboarding"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewUserResponse strips credentials from a user.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Handle:          u.Handle,
		Name:            u.Name,
		Image:           u.Image,
		Bio:             u.Bio,
		IsAdmin:         u.IsAdmin,
		CourseCount:     u.CourseCount,
		NeedsOnboarding: u.NeedsOnboarding(),
		CreatedAt:       u.CreatedAt,
	}
}

// UserSummary is the author block embedded in courses and comments.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// PublicProfile is another user's profile with their courses.
type PublicProfile struct {
	User         PublicUser      `json:"user"`
	Courses      []CourseSummary `json:"courses"`
	IsOwnProfile bool            `json:"isOwnProfile"`
}

// PublicUser omits email and admin flags.
type PublicUser struct {
	ID          int64     `json:"id"`
	Handle      string    `json:"userId,omitempty"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CourseCount int       `json:"courseCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
