package model

import "time"

// Reaction names a presence-only join table.
type Reaction string

const (
	ReactionWantsToEat Reaction = "wants_to_eat"
	ReactionTried      Reaction = "tried"
)

// ViewerState is what a single user has done to a course.
type ViewerState struct {
	WantsToEat bool
	Tried      bool
	Score      *int
}

// RatingAggregate is the average and count over all ratings of a course.
// Average is nil when the course has no ratings.
type RatingAggregate struct {
	Average *float64
	Count   int
}

// ToggleResponse reports the state after a toggle.
type ToggleResponse struct {
	Added bool `json:"added"`
	Count int  `json:"count"`
}

// RateRequest carries a 1-5 score.
type RateRequest struct {
	Score int `json:"score"`
}

// RatingResponse is returned after a rating is written.
type RatingResponse struct {
	Score             int      `json:"score"`
	AverageRating     *float64 `json:"averageRating"`
	TotalRatingsCount int      `json:"totalRatingsCount"`
}

// UnrateResponse is returned after a rating is removed.
type UnrateResponse struct {
	AverageRating     *float64 `json:"averageRating"`
	TotalRatingsCount int      `json:"totalRatingsCount"`
}

// Comment is free text left by a user on a course.
type Comment struct {
	ID        int64       `json:"id"`
	CourseID  int64       `json:"courseId"`
	UserID    int64       `json:"userId"`
	Content   string      `json:"content"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CommentRequest is the body of a comment post.
type CommentRequest struct {
	Content string `json:"content"`
}
