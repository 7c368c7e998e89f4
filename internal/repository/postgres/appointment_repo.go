package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
)

// AppointmentRepo implements AppointmentRepository using PostgreSQL.
type AppointmentRepo struct{ db *DB }

// NewAppointmentRepo constructs an appointment repository.
func NewAppointmentRepo(db *DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// Create inserts a new appointment. The partial unique index
// appointments_active_slot catches the booking race: two inserts for the
// same active slot cannot both commit.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	const q = `
INSERT INTO appointments (id, student_id, counselor_id, date_time, status, reason)
VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.StudentID, a.CounselorID, a.DateTime, a.Status, a.Reason)
	if isUniqueViolation(err) {
		return errs.ErrSlotTaken
	}
	return err
}

// GetByID selects an appointment by ID.
func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	const q = `
SELECT id, student_id, counselor_id, date_time, status, reason, created_at, updated_at
FROM appointments WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var a model.Appointment
	if err := row.Scan(&a.ID, &a.StudentID, &a.CounselorID, &a.DateTime, &a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// HasActiveAt reports whether a pending/approved appointment holds the slot.
// Exact timestamp equality: slots are fixed-duration by convention.
func (r *AppointmentRepo) HasActiveAt(ctx context.Context, counselorID uuid.UUID, at time.Time) (bool, error) {
	const q = `
SELECT EXISTS(
  SELECT 1 FROM appointments
  WHERE counselor_id=$1 AND date_time=$2 AND status IN ('pending','approved'))`
	var exists bool
	err := r.db.Pool.QueryRow(ctx, q, counselorID, at).Scan(&exists)
	return exists, err
}

// TransitionStatus applies a conditional status update. Zero rows affected
// means the appointment is gone or no longer in `from`; both collapse to
// ErrNotFound so callers cannot distinguish a lost race from a bad id.
func (r *AppointmentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	const q = `UPDATE appointments SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListByStudent returns the student's appointments, newest slot first.
func (r *AppointmentRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Appointment, error) {
	const q = `
SELECT id, student_id, counselor_id, date_time, status, reason, created_at, updated_at
FROM appointments WHERE student_id=$1 ORDER BY date_time DESC`
	return r.list(ctx, q, studentID)
}

// ListByCounselor returns the counselor's appointments, newest slot first.
func (r *AppointmentRepo) ListByCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Appointment, error) {
	const q = `
SELECT id, student_id, counselor_id, date_time, status, reason, created_at, updated_at
FROM appointments WHERE counselor_id=$1 ORDER BY date_time DESC`
	return r.list(ctx, q, counselorID)
}

func (r *AppointmentRepo) list(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.StudentID, &a.CounselorID, &a.DateTime, &a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
