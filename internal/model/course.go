package model

import "time"

// Course roles. Role is a free-form tag in storage; these are the values the API accepts.
const (
	RoleAppetizer = "appetizer"
	RoleSnack     = "snack"
	RoleMain      = "main"
	RoleDessert   = "dessert"
	RoleDrink     = "drink"
	RoleOther     = "other"
)

// MandatorySlots is the five-slot composition the front end requires before submission.
var MandatorySlots = []string{RoleAppetizer, RoleSnack, RoleMain, RoleMain, RoleDessert}

// Course is a user-authored ordered collection of products.
type Course struct {
	ID              int64
	UserID          int64
	Title           string
	Description     string
	WantsToEatCount int
	TriedCount      int
	CommentCount    int
	AverageRating   *float64
	RatingsCount    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CourseItem is one (product, role, order) entry of a course.
type CourseItem struct {
	ID        int64   `json:"id"`
	CourseID  int64   `json:"courseId"`
	ProductID int64   `json:"productId"`
	Role      string  `json:"role"`
	Order     int     `json:"order"`
	Product   Product `json:"product"`
}

// CourseItemRequest binds a product to a role.
type CourseItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Role      string `json:"role" validate:"required,oneof=appetizer snack main dessert drink other"`
}

// CourseRequest is the body of course create and update.
type CourseRequest struct {
	Title       string              `json:"title" validate:"required,max=100"`
	Description string              `json:"description" validate:"required,max=2000"`
	Items       []CourseItemRequest `json:"courseItems" validate:"required,min=1,max=20,dive"`
}

// CreateCourseResponse is returned on 201.
type CreateCourseResponse struct {
	CourseID int64 `json:"courseId"`
}

// CourseSummary is a course in a listing.
type CourseSummary struct {
	ID                int64       `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	AverageRating     *float64    `json:"averageRating"`
	TotalRatingsCount int         `json:"totalRatingsCount"`
	WantsToEatCount   int         `json:"wantsToEatCount"`
	TriedCount        int         `json:"triedCount"`
	CommentCount      int         `json:"commentCount"`
	ItemCount         int         `json:"itemCount"`
	User              UserSummary `json:"user"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// CoursePage is one page of the course listing.
type CoursePage struct {
	Courses    []CourseSummary `json:"courses"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// CourseDetail is a course with its items, aggregates and the viewer's own reactions.
type CourseDetail struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	User              UserSummary  `json:"user"`
	Items             []CourseItem `json:"courseItems"`
	AverageRating     *float64     `json:"averageRating"`
	TotalRatingsCount int          `json:"totalRatingsCount"`
	WantsToEatCount   int          `json:"wantsToEatCount"`
	TriedCount        int          `json:"triedCount"`
	CommentCount      int          `json:"commentCount"`
	IsWantsToEat      bool         `json:"isWantsToEat"`
	IsTried           bool         `json:"isTried"`
	UserRatingScore   *int         `json:"userRatingScore"`
	CreatedAt         time.Time    `json:"createdAt"`
}
