package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateHandle = errors.New("handle already exists")
)

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, handle, name, password_hash, image, bio, is_admin, course_count, session_version, created_at, updated_at`

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, handle, name, password_hash, image) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Email, nullString(user.Handle), nullString(user.Name), nullString(user.PasswordHash), nullString(user.Image),
	)
	if err != nil {
		switch {
		case isDuplicateEntryError(err, "uq_users_handle"):
			return ErrDuplicateHandle
		case isDuplicateEntryError(err, ""):
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// HandleExists reports whether a handle is already taken.
func (r *UserRepository) HandleExists(ctx context.Context, handle string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE handle = ?`, handle).Scan(&n)
	return n > 0, err
}

// SessionVersion returns the counter that invalidates older sessions when bumped.
func (r *UserRepository) SessionVersion(ctx context.Context, id int64) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, `SELECT session_version FROM users WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return v, err
}

// CompleteSetup sets display name and password and invalidates existing sessions.
func (r *UserRepository) CompleteSetup(ctx context.Context, id int64, name, passwordHash string) error {
	query := `UPDATE users SET name = ?, password_hash = ?, session_version = session_version + 1 WHERE id = ?`
	return r.execOne(ctx, query, name, passwordHash, id)
}

// SetPasswordByEmail replaces the password hash and invalidates existing sessions.
func (r *UserRepository) SetPasswordByEmail(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, session_version = session_version + 1 WHERE email = ?`
	return r.execOne(ctx, query, passwordHash, email)
}

// UpdateProfile writes name, bio and image; callers pass the merged values.
// An unchanged row affects zero rows, so existence is left to the caller.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, bio, image string) error {
	query := `UPDATE users SET name = ?, bio = ?, image = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, nullString(name), nullString(bio), nullString(image), id)
	return err
}

// SetAdmin sets the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return r.execOne(ctx, `UPDATE users SET is_admin = ?, session_version = session_version + 1 WHERE id = ?`, isAdmin, id)
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// Delete removes a user. Owned courses, reactions, ratings and comments go with
// it by cascade; the counters of other users' courses they touched are recomputed
// in the same transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT course_id FROM wants_to_eat WHERE user_id = ?
			UNION SELECT course_id FROM tried WHERE user_id = ?
			UNION SELECT course_id FROM ratings WHERE user_id = ?
			UNION SELECT course_id FROM comments WHERE user_id = ?`, id, id, id, id)
		if err != nil {
			return err
		}
		var touched []int64
		for rows.Next() {
			var courseID int64
			if err := rows.Scan(&courseID); err != nil {
				rows.Close()
				return err
			}
			touched = append(touched, courseID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrUserNotFound
		}

		for _, courseID := range touched {
			if err := recomputeAll(ctx, tx, courseID); err != nil {
				return fmt.Errorf("recomputing course %d: %w", courseID, err)
			}
		}
		return nil
	})
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// execOne runs an update that bumps session_version, so an existing row always
// reports one affected row.
func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                              model.User
		handle, name, hash, image, bio sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Email, &handle, &name, &hash, &image, &bio,
		&u.IsAdmin, &u.CourseCount, &u.SessionVersion, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Handle = handle.String
	u.Name = name.String
	u.PasswordHash = hash.String
	u.Image = image.String
	u.Bio = bio.String
	return &u, nil
}
