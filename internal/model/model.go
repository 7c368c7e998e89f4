// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is a closed set of account roles.
type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// AppointmentStatus is the appointment state machine's state set.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Active reports whether the status occupies a slot (blocks double booking).
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo reports whether the state machine permits s -> next.
// Allowed edges: pending->approved, approved->completed, and
// pending/approved -> canceled. Completed and canceled are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusCanceled
	case StatusApproved:
		return next == StatusCompleted || next == StatusCanceled
	}
	return false
}

// NotificationStatus marks a notification as read or not.
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Profile holds the optional descriptive attributes of an account.
// Named fields instead of a free-form blob so missing data is visible
// at compile time.
type Profile struct {
	FirstName string
	LastName  string
	Gender    string
	StudentNo string // populated for students only
}

// FullName joins first and last name, tolerating either being empty.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// User is an account with its security state. The security columns
// (FailedLoginAttempts, IsLocked, LockoutUntil) are owned by the
// credential guard and mutated only through atomic repository calls.
type User struct {
	ID                  uuid.UUID
	Username            string // unique; equals email for self-registered accounts
	Email               string // unique
	PasswordHash        string // bcrypt
	Role                Role
	Profile             Profile
	FailedLoginAttempts int
	IsLocked            bool
	LockoutUntil        *time.Time
	IsActive            bool
	DeactivatedAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Appointment is a booking between exactly one student and one counselor.
type Appointment struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	CounselorID uuid.UUID
	DateTime    time.Time
	Status      AppointmentStatus
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Feedback is a one-shot rating tied to a completed appointment.
// AppointmentID is unique in storage, enforcing at most one per appointment.
type Feedback struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	StudentID     uuid.UUID
	CounselorID   uuid.UUID // denormalized from the appointment
	Rating        int       // 1..5
	Comment       string
	CreatedAt     time.Time
}

// CounselingRecord holds private session notes, 1:1 with an appointment.
// SessionNotes is ciphertext at rest; plaintext exists only in memory
// while serving an authorized request.
type CounselingRecord struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	SessionNotes  string // hex-encoded AEAD ciphertext
	ProgressNote  string // plaintext, shared with the student via notification
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Notification is a durable event record delivered at most once in real
// time and discoverable on next page load regardless.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Message   string
	Status    NotificationStatus
	CreatedAt time.Time
}

// CounselorRating aggregates feedback received by one counselor.
type CounselorRating struct {
	CounselorID   uuid.UUID
	CounselorName string
	AverageRating float64
	TotalRatings  int
}

// DailyLoad is the number of appointments a counselor has on a given day.
type DailyLoad struct {
	CounselorID   uuid.UUID
	CounselorName string
	Appointments  int
}

// AdminStats backs the admin dashboard counters.
type AdminStats struct {
	Students            int
	Counselors          int
	Appointments        int
	PendingAppointments int
	ByStatus            map[AppointmentStatus]int
}
