package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/crypto/notecrypto"
	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

// RecordView is a counseling record with notes already decrypted.
// Ciphertext never leaves the service.
type RecordView struct {
	AppointmentID uuid.UUID
	SessionNotes  string
	ProgressNote  string
}

// Records stores encrypted session notes, 1:1 with appointments.
type Records interface {
	// Save encrypts notes and upserts the record. Assigned counselor only.
	Save(ctx context.Context, appointmentID, counselorID uuid.UUID, notes, progress string) error
	// View returns the decrypted record. Assigned counselor or any admin.
	View(ctx context.Context, appointmentID, actorID uuid.UUID, actorRole model.Role) (*RecordView, error)
}

type RecordsImpl struct {
	records      repository.RecordRepository
	appointments repository.AppointmentRepository
	cipher       *notecrypto.Cipher
	notifier     Notifications
}

// NewRecords constructs the counseling record service.
func NewRecords(records repository.RecordRepository, appointments repository.AppointmentRepository, cipher *notecrypto.Cipher, notifier Notifications) *RecordsImpl {
	return &RecordsImpl{records: records, appointments: appointments, cipher: cipher, notifier: notifier}
}

// Save encrypts the session notes and upserts the record. A non-empty
// progress note is shared with the student verbatim via notification.
func (s *RecordsImpl) Save(ctx context.Context, appointmentID, counselorID uuid.UUID, notes, progress string) error {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return errs.ErrNotFound
	}
	if a.CounselorID != counselorID {
		return errs.ErrForbidden
	}

	ciphertext, err := s.cipher.Encrypt(notes)
	if err != nil {
		return err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	progress = strings.TrimSpace(progress)
	if err := s.records.Upsert(ctx, &model.CounselingRecord{
		ID:            id,
		AppointmentID: appointmentID,
		SessionNotes:  ciphertext,
		ProgressNote:  progress,
	}); err != nil {
		return err
	}

	if progress != "" {
		s.notifier.Notify(ctx, a.StudentID,
			fmt.Sprintf("Your counselor left a progress note: %q", progress))
	}
	return nil
}

// View decrypts the record for an authorized reader.
func (s *RecordsImpl) View(ctx context.Context, appointmentID, actorID uuid.UUID, actorRole model.Role) (*RecordView, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	if actorRole != model.RoleAdmin && a.CounselorID != actorID {
		return nil, errs.ErrForbidden
	}

	rec, err := s.records.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	notes, err := s.cipher.Decrypt(rec.SessionNotes)
	if err != nil {
		return nil, err
	}
	return &RecordView{
		AppointmentID: appointmentID,
		SessionNotes:  notes,
		ProgressNote:  rec.ProgressNote,
	}, nil
}
