// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/model"
)

// UserRepository provides CRUD access for accounts and their security state.
type UserRepository interface {
	// Create inserts a new user. Duplicate email/username maps to ErrEmailTaken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// RecordFailedLogin atomically increments the failure counter and
	// returns the new value. Concurrent failures must not undercount.
	RecordFailedLogin(ctx context.Context, id uuid.UUID) (int, error)
	// SetLockout places a temporary lockout deadline on the account.
	SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error
	// Lock sets the permanent lock flag.
	Lock(ctx context.Context, id uuid.UUID) error
	// ResetLoginState zeroes the failure counter and clears any lockout deadline.
	ResetLoginState(ctx context.Context, id uuid.UUID) error
	// Unlock clears the permanent lock and resets the login state. Idempotent.
	Unlock(ctx context.Context, id uuid.UUID) error

	// SetActive toggles account activation; deactivatedAt is nil on reactivation.
	SetActive(ctx context.Context, id uuid.UUID, active bool, deactivatedAt *time.Time) error
	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateProfile replaces the profile attributes.
	UpdateProfile(ctx context.Context, id uuid.UUID, p model.Profile) error

	// ListByRole returns all users holding the role, ordered by username.
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	// ListNonAdmins returns every student and counselor for the admin panel.
	ListNonAdmins(ctx context.Context) ([]model.User, error)
}
