// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates wrong role or wrong owner. Handlers collapse it
	// with ErrNotFound where revealing existence would leak information.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials covers both unknown identifier and wrong password
	// so that login responses do not betray which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked indicates a permanent lock requiring admin action.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled indicates a deactivated account.
	ErrAccountDisabled = errors.New("account deactivated")

	// ErrSlotTaken indicates an active appointment already holds the slot.
	ErrSlotTaken = errors.New("time slot unavailable")

	// ErrAlreadySubmitted indicates feedback already exists for the appointment.
	ErrAlreadySubmitted = errors.New("feedback already submitted")

	// ErrEmailTaken indicates a unique violation on the email column.
	ErrEmailTaken = errors.New("email already registered")

	// ErrPastDate indicates a booking time in the past.
	ErrPastDate = errors.New("appointment time is in the past")

	// ErrCannotModifyAdmin indicates an admin-targeted deactivate/reactivate.
	ErrCannotModifyAdmin = errors.New("cannot modify admin accounts")
)

// ThrottledError is a temporary login rejection that self-clears once the
// clock passes the lockout deadline.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds.
func (e *ThrottledError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
