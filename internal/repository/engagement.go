package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

// EngagementRepository persists reactions and ratings. Every write locks the
// course row and recomputes the affected counters before committing.
type EngagementRepository struct {
	db *sql.DB
}

// NewEngagementRepository creates a new EngagementRepository.
func NewEngagementRepository(db *sql.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// Toggle flips the user's reaction on a course and returns the new state and
// the recomputed counter.
func (r *EngagementRepository) Toggle(ctx context.Context, reaction model.Reaction, courseID, userID int64) (added bool, count int, err error) {
	table, _, err := reactionTable(reaction)
	if err != nil {
		return false, 0, err
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE course_id = ? AND user_id = ?`, table), courseID, userID)
		if err != nil {
			return err
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if removed == 0 {
			// The primary key absorbs a concurrent duplicate insert.
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT IGNORE INTO %s (course_id, user_id) VALUES (?, ?)`, table), courseID, userID); err != nil {
				return err
			}
			added = true
		}

		count, err = recomputeReaction(ctx, tx, reaction, courseID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return added, count, nil
}

// UpsertRating creates or replaces the user's score for a course.
func (r *EngagementRepository) UpsertRating(ctx context.Context, courseID, userID int64, score int) (model.RatingAggregate, error) {
	var agg model.RatingAggregate
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ratings (course_id, user_id, score) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE score = VALUES(score)`, courseID, userID, score); err != nil {
			return err
		}

		var err error
		agg, err = recomputeRatings(ctx, tx, courseID)
		return err
	})
	return agg, err
}

// DeleteRating removes the user's score if present. Removing a missing rating
// is not an error; the aggregate is returned either way.
func (r *EngagementRepository) DeleteRating(ctx context.Context, courseID, userID int64) (model.RatingAggregate, error) {
	var agg model.RatingAggregate
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ratings WHERE course_id = ? AND user_id = ?`, courseID, userID); err != nil {
			return err
		}

		var err error
		agg, err = recomputeRatings(ctx, tx, courseID)
		return err
	})
	return agg, err
}

// ViewerState reports which reactions and score userID has on a course.
func (r *EngagementRepository) ViewerState(ctx context.Context, courseID, userID int64) (model.ViewerState, error) {
	var (
		state model.ViewerState
		score sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `SELECT
		EXISTS(SELECT 1 FROM wants_to_eat WHERE course_id = ? AND user_id = ?),
		EXISTS(SELECT 1 FROM tried WHERE course_id = ? AND user_id = ?),
		(SELECT score FROM ratings WHERE course_id = ? AND user_id = ?)`,
		courseID, userID, courseID, userID, courseID, userID,
	).Scan(&state.WantsToEat, &state.Tried, &score)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ViewerState{}, err
	}
	state.Score = intPtr(score)
	return state, nil
}
