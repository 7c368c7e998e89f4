package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/crypto"
	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

// CreateUserInput is the admin user-creation payload.
type CreateUserInput struct {
	Email     string
	Password  string
	Role      model.Role
	FirstName string
	LastName  string
	Gender    string
	StudentNo string
}

// Admin covers user management and reporting, admin role only. Role checks
// happen at the HTTP boundary; these methods assume an admin caller.
type Admin interface {
	// CreateUser creates a student or counselor account.
	CreateUser(ctx context.Context, in CreateUserInput) (uuid.UUID, error)
	// Unlock clears a permanent lock and resets login counters. Idempotent.
	Unlock(ctx context.Context, userID uuid.UUID) error
	// Deactivate disables a non-admin account.
	Deactivate(ctx context.Context, userID uuid.UUID) error
	// Reactivate re-enables a non-admin account.
	Reactivate(ctx context.Context, userID uuid.UUID) error
	// ListUsers returns every student and counselor.
	ListUsers(ctx context.Context) ([]model.User, error)
	// FeedbackOverview aggregates ratings per counselor.
	FeedbackOverview(ctx context.Context) ([]model.CounselorRating, error)
	// DailyReport counts appointments per counselor for the day.
	DailyReport(ctx context.Context, day time.Time) ([]model.DailyLoad, error)
	// DashboardStats returns the admin dashboard counters.
	DashboardStats(ctx context.Context) (*model.AdminStats, error)
}

type AdminImpl struct {
	users   repository.UserRepository
	reports repository.ReportRepository
}

// NewAdmin constructs the admin service.
func NewAdmin(users repository.UserRepository, reports repository.ReportRepository) *AdminImpl {
	return &AdminImpl{users: users, reports: reports}
}

// CreateUser creates a student or counselor. Admin accounts are provisioned
// out of band, never through this path.
func (s *AdminImpl) CreateUser(ctx context.Context, in CreateUserInput) (uuid.UUID, error) {
	if in.Role != model.RoleStudent && in.Role != model.RoleCounselor {
		return uuid.Nil, fmt.Errorf("%w: role must be student or counselor", errs.ErrValidation)
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return uuid.Nil, fmt.Errorf("%w: valid email required", errs.ErrValidation)
	}
	if in.Role == model.RoleStudent && strings.TrimSpace(in.StudentNo) == "" {
		return uuid.Nil, fmt.Errorf("%w: student ID is required for student accounts", errs.ErrValidation)
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return uuid.Nil, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	studentNo := in.StudentNo
	if in.Role != model.RoleStudent {
		studentNo = ""
	}
	u := &model.User{
		ID:           id,
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Profile: model.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Gender:    in.Gender,
			StudentNo: studentNo,
		},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Unlock clears the permanent lock. Safe to repeat.
func (s *AdminImpl) Unlock(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.users.Unlock(ctx, userID)
}

// Deactivate disables the account. Admin accounts are refused.
func (s *AdminImpl) Deactivate(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return errs.ErrCannotModifyAdmin
	}
	now := time.Now()
	return s.users.SetActive(ctx, userID, false, &now)
}

// Reactivate re-enables the account. Admin accounts are refused.
func (s *AdminImpl) Reactivate(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return errs.ErrCannotModifyAdmin
	}
	return s.users.SetActive(ctx, userID, true, nil)
}

// ListUsers returns every non-admin account.
func (s *AdminImpl) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListNonAdmins(ctx)
}

// FeedbackOverview aggregates ratings per counselor.
func (s *AdminImpl) FeedbackOverview(ctx context.Context) ([]model.CounselorRating, error) {
	return s.reports.FeedbackOverview(ctx)
}

// DailyReport counts appointments per counselor for the day.
func (s *AdminImpl) DailyReport(ctx context.Context, day time.Time) ([]model.DailyLoad, error) {
	return s.reports.DailyLoad(ctx, day)
}

// DashboardStats returns the admin dashboard counters.
func (s *AdminImpl) DashboardStats(ctx context.Context) (*model.AdminStats, error) {
	return s.reports.Stats(ctx)
}
