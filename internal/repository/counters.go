package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var ErrCourseNotFound = errors.New("course not found")

// Denormalized course fields are never adjusted by +1/-1. Every write that
// touches a source table recomputes the field from that table inside the
// same transaction, so the stored value always equals the live row count.

// reactionTable maps a reaction to its join table and course counter column.
func reactionTable(r model.Reaction) (table, column string, err error) {
	switch r {
	case model.ReactionWantsToEat:
		return "wants_to_eat", "wants_to_eat_count", nil
	case model.ReactionTried:
		return "tried", "tried_count", nil
	}
	return "", "", fmt.Errorf("unknown reaction %q", r)
}

// lockCourse takes a row lock on the course, serializing writers per course.
func lockCourse(ctx context.Context, tx *sql.Tx, courseID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ? FOR UPDATE`, courseID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCourseNotFound
	}
	return err
}

func recomputeReaction(ctx context.Context, tx *sql.Tx, r model.Reaction, courseID int64) (int, error) {
	table, column, err := reactionTable(r)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE courses SET %s = (SELECT COUNT(*) FROM %s WHERE course_id = ?) WHERE id = ?`, column, table)
	if _, err := tx.ExecContext(ctx, query, courseID, courseID); err != nil {
		return 0, err
	}

	var count int
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM courses WHERE id = ?`, column), courseID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCourseNotFound
	}
	return count, err
}

func recomputeRatings(ctx context.Context, tx *sql.Tx, courseID int64) (model.RatingAggregate, error) {
	const query = `UPDATE courses SET
		ratings_count  = (SELECT COUNT(*) FROM ratings WHERE course_id = ?),
		average_rating = (SELECT ROUND(AVG(score), 2) FROM ratings WHERE course_id = ?)
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, courseID, courseID, courseID); err != nil {
		return model.RatingAggregate{}, err
	}

	var avg sql.NullFloat64
	var agg model.RatingAggregate
	err := tx.QueryRowContext(ctx, `SELECT average_rating, ratings_count FROM courses WHERE id = ?`, courseID).Scan(&avg, &agg.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RatingAggregate{}, ErrCourseNotFound
	}
	if err != nil {
		return model.RatingAggregate{}, err
	}
	agg.Average = floatPtr(avg)
	return agg, nil
}

func recomputeComments(ctx context.Context, tx *sql.Tx, courseID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE courses SET comment_count = (SELECT COUNT(*) FROM comments WHERE course_id = ?) WHERE id = ?`,
		courseID, courseID)
	return err
}

func recomputeCourseCount(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET course_count = (SELECT COUNT(*) FROM courses WHERE user_id = ?) WHERE id = ?`,
		userID, userID)
	return err
}

// recomputeAll refreshes every denormalized field of a course. Missing courses are skipped.
func recomputeAll(ctx context.Context, tx *sql.Tx, courseID int64) error {
	for _, r := range []model.Reaction{model.ReactionWantsToEat, model.ReactionTried} {
		if _, err := recomputeReaction(ctx, tx, r, courseID); err != nil && !errors.Is(err, ErrCourseNotFound) {
			return err
		}
	}
	if _, err := recomputeRatings(ctx, tx, courseID); err != nil && !errors.Is(err, ErrCourseNotFound) {
		return err
	}
	return recomputeComments(ctx, tx, courseID)
}
