package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionRepository handles contact submissions. Rows are written by the
// contact intake; this service only triages them.
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission with status OPEN.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	var userID sql.NullInt64
	if s.UserID != nil {
		userID = sql.NullInt64{Int64: *s.UserID, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, `INSERT INTO contact_submissions
		(user_id, submitter_name, submitter_email, type, title, details) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, s.SubmitterName, s.SubmitterEmail, s.Type, s.Title, s.Details)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	s.Status = model.StatusOpen
	return nil
}

// List returns submissions newest first, optionally filtered by status.
func (r *SubmissionRepository) List(ctx context.Context, status model.SubmissionStatus) ([]model.Submission, error) {
	query := `SELECT id, user_id, submitter_name, submitter_email, type, title, details, status, created_at
		FROM contact_submissions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var (
			s      model.Submission
			userID sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &userID, &s.SubmitterName, &s.SubmitterEmail,
			&s.Type, &s.Title, &s.Details, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			s.UserID = &userID.Int64
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// UpdateStatus sets the triage status of a submission.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id int64, status model.SubmissionStatus) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM contact_submissions WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSubmissionNotFound
	}
	_, err = r.db.ExecContext(ctx, `UPDATE contact_submissions SET status = ? WHERE id = ?`, status, id)
	return err
}

// CountByStatus returns the number of submissions in a status.
func (r *SubmissionRepository) CountByStatus(ctx context.Context, status model.SubmissionStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_submissions WHERE status = ?`, status).Scan(&n)
	return n, err
}
