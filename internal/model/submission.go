package model

import "time"

// SubmissionStatus is a triage label; any status may follow any other.
type SubmissionStatus string

const (
	StatusOpen       SubmissionStatus = "OPEN"
	StatusInProgress SubmissionStatus = "IN_PROGRESS"
	StatusResolved   SubmissionStatus = "RESOLVED"
	StatusClosed     SubmissionStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Submission is a contact form or product request.
type Submission struct {
	ID             int64            `json:"id"`
	UserID         *int64           `json:"userId,omitempty"`
	SubmitterName  string           `json:"submitterName,omitempty"`
	SubmitterEmail string           `json:"submitterEmail"`
	Type           string           `json:"type"`
	Title          string           `json:"title"`
	Details        string           `json:"details"`
	Status         SubmissionStatus `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// SubmissionStatusRequest is the body of a status change.
type SubmissionStatusRequest struct {
	Status SubmissionStatus `json:"status"`
}

// AdminStats is the dashboard summary.
type AdminStats struct {
	Users           int `json:"users"`
	Courses         int `json:"courses"`
	Comments        int `json:"comments"`
	OpenSubmissions int `json:"openSubmissions"`
}

// AdminUser is a user row as shown to administrators.
type AdminUser struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsAdmin     bool      `json:"isAdmin"`
	CourseCount int       `json:"courseCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
