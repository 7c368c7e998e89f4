package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
)

// FeedbackRepo implements FeedbackRepository using PostgreSQL.
type FeedbackRepo struct{ db *DB }

// NewFeedbackRepo constructs a feedback repository.
func NewFeedbackRepo(db *DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts feedback. The unique index on appointment_id resolves
// concurrent submissions to exactly one winner.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	const q = `
INSERT INTO feedback (id, appointment_id, student_id, counselor_id, rating, comment)
VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Pool.Exec(ctx, q, f.ID, f.AppointmentID, f.StudentID, f.CounselorID, f.Rating, f.Comment)
	if isUniqueViolation(err) {
		return errs.ErrAlreadySubmitted
	}
	return err
}

// GetByAppointment selects feedback for an appointment.
func (r *FeedbackRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Feedback, error) {
	const q = `
SELECT id, appointment_id, student_id, counselor_id, rating, comment, created_at
FROM feedback WHERE appointment_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, appointmentID)
	var f model.Feedback
	if err := row.Scan(&f.ID, &f.AppointmentID, &f.StudentID, &f.CounselorID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &f, nil
}

// ListByCounselor returns all feedback received by a counselor, newest first.
func (r *FeedbackRepo) ListByCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Feedback, error) {
	const q = `
SELECT id, appointment_id, student_id, counselor_id, rating, comment, created_at
FROM feedback WHERE counselor_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.AppointmentID, &f.StudentID, &f.CounselorID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
