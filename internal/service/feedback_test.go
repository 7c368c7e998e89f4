package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

type fakeFeedback struct {
	byAppointment map[uuid.UUID]*model.Feedback
}

var _ repository.FeedbackRepository = (*fakeFeedback)(nil)

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{byAppointment: map[uuid.UUID]*model.Feedback{}}
}

func (f *fakeFeedback) Create(_ context.Context, fb *model.Feedback) error {
	if _, ok := f.byAppointment[fb.AppointmentID]; ok {
		return errs.ErrAlreadySubmitted
	}
	cpy := *fb
	f.byAppointment[fb.AppointmentID] = &cpy
	return nil
}

func (f *fakeFeedback) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.Feedback, error) {
	fb, ok := f.byAppointment[appointmentID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *fb
	return &c, nil
}

func (f *fakeFeedback) ListByCounselor(_ context.Context, counselorID uuid.UUID) ([]model.Feedback, error) {
	var out []model.Feedback
	for _, fb := range f.byAppointment {
		if fb.CounselorID == counselorID {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func TestFeedback_Submit(t *testing.T) {
	t.Parallel()

	studentID := uuid.Must(uuid.NewV4())
	counselorID := uuid.Must(uuid.NewV4())
	completed := seedAppointment(model.StatusCompleted, studentID, counselorID)

	repo := newFakeFeedback()
	s := NewFeedback(repo, newFakeAppointments(completed))

	if err := s.Submit(context.Background(), completed.ID, studentID, 4, "  very helpful  "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored := repo.byAppointment[completed.ID]
	if stored == nil {
		t.Fatalf("feedback not stored")
	}
	if stored.Comment != "very helpful" {
		t.Fatalf("comment not trimmed: %q", stored.Comment)
	}
	if stored.CounselorID != counselorID {
		t.Fatalf("counselor not taken from the appointment: %s", stored.CounselorID)
	}

	if err := s.Submit(context.Background(), completed.ID, studentID, 5, "again"); !errors.Is(err, errs.ErrAlreadySubmitted) {
		t.Fatalf("second submission: want ErrAlreadySubmitted, got %v", err)
	}
}

func TestFeedback_Submit_RatingBounds(t *testing.T) {
	t.Parallel()

	studentID := uuid.Must(uuid.NewV4())
	completed := seedAppointment(model.StatusCompleted, studentID, uuid.Must(uuid.NewV4()))
	s := NewFeedback(newFakeFeedback(), newFakeAppointments(completed))

	for _, rating := range []int{0, -1, 6, 100} {
		if err := s.Submit(context.Background(), completed.ID, studentID, rating, ""); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("rating %d: want ErrValidation, got %v", rating, err)
		}
	}
	for rating := 1; rating <= 5; rating++ {
		repo := newFakeFeedback()
		s := NewFeedback(repo, newFakeAppointments(completed))
		if err := s.Submit(context.Background(), completed.ID, studentID, rating, ""); err != nil {
			t.Fatalf("rating %d: %v", rating, err)
		}
	}
}

func TestFeedback_Submit_Eligibility(t *testing.T) {
	t.Parallel()

	studentID := uuid.Must(uuid.NewV4())
	otherStudent := uuid.Must(uuid.NewV4())
	counselorID := uuid.Must(uuid.NewV4())

	pending := seedAppointment(model.StatusPending, studentID, counselorID)
	approved := seedAppointment(model.StatusApproved, studentID, counselorID)
	canceled := seedAppointment(model.StatusCanceled, studentID, counselorID)
	completed := seedAppointment(model.StatusCompleted, studentID, counselorID)

	s := NewFeedback(newFakeFeedback(), newFakeAppointments(pending, approved, canceled, completed))

	if err := s.Submit(context.Background(), uuid.Must(uuid.NewV4()), studentID, 3, ""); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown appointment: want ErrNotFound, got %v", err)
	}
	for _, a := range []*model.Appointment{pending, approved, canceled} {
		if err := s.Submit(context.Background(), a.ID, studentID, 3, ""); !errors.Is(err, errs.ErrForbidden) {
			t.Fatalf("status %s: want ErrForbidden, got %v", a.Status, err)
		}
	}
	if err := s.Submit(context.Background(), completed.ID, otherStudent, 3, ""); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("foreign student: want ErrForbidden, got %v", err)
	}
}

func TestFeedback_ForCounselor(t *testing.T) {
	t.Parallel()

	counselorID := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	repo := newFakeFeedback()
	for i, cid := range []uuid.UUID{counselorID, counselorID, other} {
		_ = repo.Create(context.Background(), &model.Feedback{
			ID:            uuid.Must(uuid.NewV4()),
			AppointmentID: uuid.Must(uuid.NewV4()),
			StudentID:     uuid.Must(uuid.NewV4()),
			CounselorID:   cid,
			Rating:        i + 1,
		})
	}

	s := NewFeedback(repo, newFakeAppointments())
	list, err := s.ForCounselor(context.Background(), counselorID)
	if err != nil {
		t.Fatalf("ForCounselor: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 feedback rows, got %d", len(list))
	}
}
