package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

// Appointments drives the booking lifecycle:
// pending -> approved -> completed, with canceled reachable from
// pending/approved. Completed and canceled are terminal.
type Appointments interface {
	// Book creates a pending appointment for the student.
	Book(ctx context.Context, studentID, counselorID uuid.UUID, dateTime time.Time, reason string) (*model.Appointment, error)
	// Approve moves a pending appointment to approved. Counselor only.
	Approve(ctx context.Context, id, counselorID uuid.UUID) error
	// Complete moves an approved appointment to completed. Counselor only.
	Complete(ctx context.Context, id, counselorID uuid.UUID) error
	// Cancel terminates a pending/approved appointment. The owning student
	// or the assigned counselor may cancel.
	Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole model.Role) error
	// ListForStudent returns the student's appointments, newest slot first.
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Appointment, error)
	// ListForCounselor returns the counselor's appointments, newest slot first.
	ListForCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Appointment, error)
}

type AppointmentsImpl struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	notifier     Notifications
}

// NewAppointments constructs the appointment lifecycle service.
func NewAppointments(appointments repository.AppointmentRepository, users repository.UserRepository, notifier Notifications) *AppointmentsImpl {
	return &AppointmentsImpl{appointments: appointments, users: users, notifier: notifier}
}

// Book validates the request, checks slot availability and persists a
// pending appointment. The availability check is advisory; the partial
// unique index on active slots decides the race, surfacing as ErrSlotTaken.
func (s *AppointmentsImpl) Book(ctx context.Context, studentID, counselorID uuid.UUID, dateTime time.Time, reason string) (*model.Appointment, error) {
	reason = strings.TrimSpace(reason)
	if counselorID == uuid.Nil || dateTime.IsZero() || reason == "" {
		return nil, fmt.Errorf("%w: counselor, date/time and reason are required", errs.ErrValidation)
	}
	if dateTime.Before(time.Now()) {
		return nil, errs.ErrPastDate
	}

	counselor, err := s.users.GetByID(ctx, counselorID)
	if err != nil || counselor.Role != model.RoleCounselor {
		return nil, fmt.Errorf("%w: unknown counselor", errs.ErrValidation)
	}

	taken, err := s.appointments.HasActiveAt(ctx, counselorID, dateTime)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.ErrSlotTaken
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	a := &model.Appointment{
		ID:          id,
		StudentID:   studentID,
		CounselorID: counselorID,
		DateTime:    dateTime,
		Status:      model.StatusPending,
		Reason:      reason,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, counselorID,
		fmt.Sprintf("You have a new appointment request from %s.", s.studentName(ctx, studentID)))
	return a, nil
}

// Approve transitions pending -> approved and notifies the student.
func (s *AppointmentsImpl) Approve(ctx context.Context, id, counselorID uuid.UUID) error {
	a, err := s.authorizedTransition(ctx, id, counselorID, model.StatusPending, model.StatusApproved)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, a.StudentID,
		fmt.Sprintf("Your appointment for %s has been approved.", a.DateTime.Format(time.RFC1123)))
	return nil
}

// Complete transitions approved -> completed and invites feedback.
func (s *AppointmentsImpl) Complete(ctx context.Context, id, counselorID uuid.UUID) error {
	a, err := s.authorizedTransition(ctx, id, counselorID, model.StatusApproved, model.StatusCompleted)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, a.StudentID,
		fmt.Sprintf("Your appointment for %s is complete. You can now submit feedback.", a.DateTime.Format(time.RFC1123)))
	return nil
}

// authorizedTransition loads the appointment, checks ownership and current
// status, and applies the conditional update. Every failure collapses to
// ErrNotFound so callers cannot probe for appointments they do not own.
func (s *AppointmentsImpl) authorizedTransition(ctx context.Context, id, counselorID uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	if a.CounselorID != counselorID || a.Status != from {
		return nil, errs.ErrNotFound
	}
	if err := s.appointments.TransitionStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	a.Status = to
	return a, nil
}

// Cancel terminates an active appointment and notifies the counterpart.
func (s *AppointmentsImpl) Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole model.Role) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return errs.ErrNotFound
	}

	var owns bool
	switch actorRole {
	case model.RoleStudent:
		owns = a.StudentID == actorID
	case model.RoleCounselor:
		owns = a.CounselorID == actorID
	}
	if !owns || !a.Status.CanTransitionTo(model.StatusCanceled) {
		return errs.ErrNotFound
	}

	if err := s.appointments.TransitionStatus(ctx, id, a.Status, model.StatusCanceled); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrNotFound
		}
		return err
	}

	counterpart := a.CounselorID
	if actorRole == model.RoleCounselor {
		counterpart = a.StudentID
	}
	s.notifier.Notify(ctx, counterpart,
		fmt.Sprintf("The appointment for %s has been canceled.", a.DateTime.Format(time.RFC1123)))
	return nil
}

// ListForStudent returns the student's appointments.
func (s *AppointmentsImpl) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Appointment, error) {
	return s.appointments.ListByStudent(ctx, studentID)
}

// ListForCounselor returns the counselor's appointments.
func (s *AppointmentsImpl) ListForCounselor(ctx context.Context, counselorID uuid.UUID) ([]model.Appointment, error) {
	return s.appointments.ListByCounselor(ctx, counselorID)
}

func (s *AppointmentsImpl) studentName(ctx context.Context, studentID uuid.UUID) string {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil || student.Profile.FullName() == "" {
		return "a student"
	}
	return student.Profile.FullName()
}
