package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

// Feedback attaches a one-shot rating to a completed appointment.
type Feedback interface {
	// Submit stores the student's rating for their completed appointment.
	Submit(ctx context.Context, appointmentID, studentID uuid.UUID, rating int, comment string) error
	// ForCounselor returns all feedback received by the counselor.
	ForCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Feedback, error)
}

type FeedbackImpl struct {
	feedback     repository.FeedbackRepository
	appointments repository.AppointmentRepository
}

// NewFeedback constructs the feedback service.
func NewFeedback(feedback repository.FeedbackRepository, appointments repository.AppointmentRepository) *FeedbackImpl {
	return &FeedbackImpl{feedback: feedback, appointments: appointments}
}

// Submit validates eligibility and inserts the feedback. The unique index
// on appointment_id resolves concurrent submissions to one winner, so the
// existence check lives in the database, not here.
func (s *FeedbackImpl) Submit(ctx context.Context, appointmentID, studentID uuid.UUID, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", errs.ErrValidation)
	}

	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return errs.ErrNotFound
	}
	if a.StudentID != studentID || a.Status != model.StatusCompleted {
		return errs.ErrForbidden
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	return s.feedback.Create(ctx, &model.Feedback{
		ID:            id,
		AppointmentID: appointmentID,
		StudentID:     studentID,
		CounselorID:   a.CounselorID,
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
	})
}

// ForCounselor returns the counselor's received feedback.
func (s *FeedbackImpl) ForCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Feedback, error) {
	return s.feedback.ListByCounselor(ctx, counselorID)
}
