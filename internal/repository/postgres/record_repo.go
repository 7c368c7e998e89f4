package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
)

// RecordRepo implements RecordRepository using PostgreSQL.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a counseling record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

// Upsert inserts or replaces the record keyed by appointment_id.
func (r *RecordRepo) Upsert(ctx context.Context, rec *model.CounselingRecord) error {
	const q = `
INSERT INTO counseling_records (id, appointment_id, session_notes, progress_note)
VALUES ($1,$2,$3,$4)
ON CONFLICT (appointment_id)
DO UPDATE SET session_notes=EXCLUDED.session_notes,
              progress_note=EXCLUDED.progress_note,
              updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, rec.ID, rec.AppointmentID, rec.SessionNotes, rec.ProgressNote)
	return err
}

// GetByAppointment selects the record for an appointment.
func (r *RecordRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.CounselingRecord, error) {
	const q = `
SELECT id, appointment_id, session_notes, progress_note, created_at, updated_at
FROM counseling_records WHERE appointment_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, appointmentID)
	var rec model.CounselingRecord
	if err := row.Scan(&rec.ID, &rec.AppointmentID, &rec.SessionNotes, &rec.ProgressNote, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &rec, nil
}
