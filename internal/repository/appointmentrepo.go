package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/model"
)

// AppointmentRepository provides access to bookings and their status machine.
type AppointmentRepository interface {
	// Create inserts a pending appointment. A concurrent booking of the same
	// (counselor, date_time) slot maps to ErrSlotTaken via the partial unique
	// index; the service-level availability check alone is advisory.
	Create(ctx context.Context, a *model.Appointment) error
	// GetByID loads an appointment by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// HasActiveAt reports whether a pending/approved appointment occupies the
	// exact slot.
	HasActiveAt(ctx context.Context, counselorID uuid.UUID, at time.Time) (bool, error)
	// TransitionStatus moves id from `from` to `to` in one conditional update.
	// ErrNotFound if the row no longer holds `from` (lost race or bad id).
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
	// ListByStudent returns the student's appointments, newest slot first.
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Appointment, error)
	// ListByCounselor returns the counselor's appointments, newest slot first.
	ListByCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Appointment, error)
}

// FeedbackRepository stores one-shot ratings for completed appointments.
type FeedbackRepository interface {
	// Create inserts feedback. A second insert for the same appointment maps
	// to ErrAlreadySubmitted via the unique index on appointment_id.
	Create(ctx context.Context, f *model.Feedback) error
	// GetByAppointment loads feedback for an appointment, if any.
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Feedback, error)
	// ListByCounselor returns all feedback received by a counselor, newest first.
	ListByCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Feedback, error)
}

// RecordRepository stores encrypted counseling notes, one per appointment.
type RecordRepository interface {
	// Upsert inserts or replaces the record keyed by appointment_id.
	Upsert(ctx context.Context, r *model.CounselingRecord) error
	// GetByAppointment loads the record for an appointment.
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.CounselingRecord, error)
}

// NotificationRepository stores durable notification records.
type NotificationRepository interface {
	// Create inserts an unread notification.
	Create(ctx context.Context, n *model.Notification) error
	// ListUnread returns up to limit unread notifications, newest first.
	ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	// MarkAllRead flips every unread notification of the user to read.
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// ReportRepository serves the admin aggregate queries.
type ReportRepository interface {
	// FeedbackOverview returns per-counselor rating aggregates, best first.
	FeedbackOverview(ctx context.Context) ([]model.CounselorRating, error)
	// DailyLoad counts appointments per counselor within the given day.
	DailyLoad(ctx context.Context, day time.Time) ([]model.DailyLoad, error)
	// Stats returns the admin dashboard counters.
	Stats(ctx context.Context) (*model.AdminStats, error)
}
