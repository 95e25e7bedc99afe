package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

// CourseRepository handles course and course item persistence.
type CourseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `c.id, c.user_id, c.title, c.description, c.wants_to_eat_count, c.tried_count,
	c.comment_count, c.average_rating, c.ratings_count, c.created_at, c.updated_at`

// summaryQuery selects a course with its author and item count for listings.
const summaryQuery = `SELECT ` + courseColumns + `,
	u.name, u.image, (SELECT COUNT(*) FROM course_items ci WHERE ci.course_id = c.id)
	FROM courses c JOIN users u ON u.id = c.user_id`

// Create inserts a course and its items in one transaction and refreshes the
// owner's course count. Items are numbered from 1 in request order.
func (r *CourseRepository) Create(ctx context.Context, course *model.Course, items []model.CourseItemRequest) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO courses (user_id, title, description) VALUES (?, ?, ?)`,
			course.UserID, course.Title, course.Description)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}

		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}
		if err := recomputeCourseCount(ctx, tx, course.UserID); err != nil {
			return err
		}

		course.ID = id
		return nil
	})
}

// Update replaces title, description and the full item set.
func (r *CourseRepository) Update(ctx context.Context, course *model.Course, items []model.CourseItemRequest) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCourse(ctx, tx, course.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE courses SET title = ?, description = ? WHERE id = ?`,
			course.Title, course.Description, course.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_items WHERE course_id = ?`, course.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, course.ID, items)
	})
}

// Delete removes a course; items, reactions, ratings and comments cascade.
func (r *CourseRepository) Delete(ctx context.Context, courseID, ownerID int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, courseID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrCourseNotFound
		}
		return recomputeCourseCount(ctx, tx, ownerID)
	})
}

// GetByID retrieves a course with its author summary.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.CourseSummary, error) {
	summary, err := scanSummary(r.db.QueryRowContext(ctx, summaryQuery+` WHERE c.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return summary, nil
}

// Items returns the course items in order with their products.
func (r *CourseRepository) Items(ctx context.Context, courseID int64) ([]model.CourseItem, error) {
	query := `SELECT ci.id, ci.course_id, ci.product_id, ci.role, ci.sort_order, ` + productColumns + `
		FROM course_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.course_id = ? ORDER BY ci.sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.CourseItem{}
	for rows.Next() {
		var it model.CourseItem
		p, err := scanProduct(rows, &it.ID, &it.CourseID, &it.ProductID, &it.Role, &it.Order)
		if err != nil {
			return nil, err
		}
		it.Product = *p
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns one page of courses, newest first.
func (r *CourseRepository) List(ctx context.Context, limit, offset int) ([]model.CourseSummary, error) {
	return r.querySummaries(ctx, summaryQuery+` ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`, limit, offset)
}

// ListByUser returns every course authored by userID, newest first.
func (r *CourseRepository) ListByUser(ctx context.Context, userID int64) ([]model.CourseSummary, error) {
	return r.querySummaries(ctx, summaryQuery+` WHERE c.user_id = ? ORDER BY c.created_at DESC, c.id DESC`, userID)
}

// Count returns the number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n)
	return n, err
}

func (r *CourseRepository) querySummaries(ctx context.Context, query string, args ...any) ([]model.CourseSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []model.CourseSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, courseID int64, items []model.CourseItemRequest) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO course_items (course_id, product_id, role, sort_order) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, courseID, it.ProductID, it.Role, i+1); err != nil {
			if isForeignKeyError(err, "fk_course_items_product") {
				return ErrProductNotFound
			}
			return err
		}
	}
	return nil
}

func scanSummary(row rowScanner) (*model.CourseSummary, error) {
	var (
		c           model.Course
		avg         sql.NullFloat64
		name, image sql.NullString
		itemCount   int
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Description, &c.WantsToEatCount, &c.TriedCount,
		&c.CommentCount, &avg, &c.RatingsCount, &c.CreatedAt, &c.UpdatedAt,
		&name, &image, &itemCount,
	)
	if err != nil {
		return nil, err
	}
	c.AverageRating = floatPtr(avg)

	return &model.CourseSummary{
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		AverageRating:     c.AverageRating,
		TotalRatingsCount: c.RatingsCount,
		WantsToEatCount:   c.WantsToEatCount,
		TriedCount:        c.TriedCount,
		CommentCount:      c.CommentCount,
		ItemCount:         itemCount,
		User:              model.UserSummary{ID: c.UserID, Name: name.String, Image: image.String},
		CreatedAt:         c.CreatedAt,
	}, nil
}
