package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository handles comment persistence.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and refreshes the course's comment count. The
// returned comment carries the author summary.
func (r *CommentRepository) Create(ctx context.Context, courseID, userID int64, content string) (*model.Comment, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO comments (course_id, user_id, content) VALUES (?, ?, ?)`, courseID, userID, content)
		if err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}
		return recomputeComments(ctx, tx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a comment with its author summary.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentQuery+` WHERE c.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByCourse returns a course's comments, newest first.
func (r *CommentRepository) ListByCourse(ctx context.Context, courseID int64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		commentQuery+` WHERE c.course_id = ? ORDER BY c.created_at DESC, c.id DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Delete removes a comment and refreshes its course's comment count.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var courseID int64
		err := tx.QueryRowContext(ctx, `SELECT course_id FROM comments WHERE id = ?`, id).Scan(&courseID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCommentNotFound
		}
		if err != nil {
			return err
		}
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
			return err
		}
		return recomputeComments(ctx, tx, courseID)
	})
}

// Count returns the number of comments.
func (r *CommentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	return n, err
}

const commentQuery = `SELECT c.id, c.course_id, c.user_id, c.content, c.created_at, u.name, u.image
	FROM comments c JOIN users u ON u.id = c.user_id`

func scanComment(row rowScanner) (*model.Comment, error) {
	var (
		c           model.Comment
		name, image sql.NullString
	)
	if err := row.Scan(&c.ID, &c.CourseID, &c.UserID, &c.Content, &c.CreatedAt, &name, &image); err != nil {
		return nil, err
	}
	c.User = model.UserSummary{ID: c.UserID, Name: name.String, Image: image.String}
	return &c, nil
}
