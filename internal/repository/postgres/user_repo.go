package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_hash, role,
first_name, last_name, gender, student_no,
failed_login_attempts, is_locked, lockout_until, is_active, deactivated_at,
created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Profile.FirstName, &u.Profile.LastName, &u.Profile.Gender, &u.Profile.StudentNo,
		&u.FailedLoginAttempts, &u.IsLocked, &u.LockoutUntil, &u.IsActive, &u.DeactivatedAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, role,
                   first_name, last_name, gender, student_no, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,true)`
	_, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Gender, u.Profile.StudentNo,
	)
	if isUniqueViolation(err) {
		return errs.ErrEmailTaken
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return u, nil
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return u, nil
}

// RecordFailedLogin increments the failure counter in a single statement so
// concurrent failed attempts cannot undercount.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, id uuid.UUID) (int, error) {
	const q = `
UPDATE users
SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
WHERE id = $1
RETURNING failed_login_attempts`
	var attempts int
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

// SetLockout sets a temporary lockout deadline.
func (r *UserRepo) SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error {
	const q = `UPDATE users SET lockout_until=$2, updated_at=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, until)
	return err
}

// Lock sets the permanent lock flag.
func (r *UserRepo) Lock(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET is_locked=true, updated_at=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// ResetLoginState zeroes counters after a successful login.
func (r *UserRepo) ResetLoginState(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE users SET failed_login_attempts=0, lockout_until=NULL, updated_at=now()
WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// Unlock clears the permanent lock and resets counters.
func (r *UserRepo) Unlock(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE users
SET is_locked=false, failed_login_attempts=0, lockout_until=NULL, updated_at=now()
WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// SetActive toggles account activation.
func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, deactivatedAt *time.Time) error {
	const q = `UPDATE users SET is_active=$2, deactivated_at=$3, updated_at=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, active, deactivatedAt)
	return err
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, hash)
	return err
}

// UpdateProfile replaces the profile attributes.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, p model.Profile) error {
	const q = `
UPDATE users
SET first_name=$2, last_name=$3, gender=$4, student_no=$5, updated_at=now()
WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, p.FirstName, p.LastName, p.Gender, p.StudentNo)
	return err
}

// ListByRole returns all users holding the role.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY username`
	return r.list(ctx, q, role)
}

// ListNonAdmins returns every student and counselor.
func (r *UserRepo) ListNonAdmins(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE role <> 'admin' ORDER BY role, username`
	return r.list(ctx, q)
}

func (r *UserRepo) list(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
