package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/crypto"
	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
	"github.com/counselink/server/internal/token"
)

// Progressive lockout thresholds on the cumulative failure counter.
// Deliberately small: this guards an internal tool, not a public API.
const (
	throttleFirstAt   = 3
	throttleSecondAt  = 6
	lockAt            = 9
	throttleFirstFor  = 30 * time.Second
	throttleSecondFor = 60 * time.Second
)

// Session is the result of a successful authentication.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// RegisterInput is the self-service signup payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Gender    string
	StudentNo string
}

// Auth is the credential guard: it decides whether a login succeeds and
// evolves the account security state under repeated failure.
type Auth interface {
	// Register creates a student account.
	Register(ctx context.Context, in RegisterInput) (uuid.UUID, error)
	// Authenticate evaluates a login attempt.
	Authenticate(ctx context.Context, email, password string) (Session, error)
	// ChangePassword verifies the current password and replaces it.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error
	// UpdateProfile replaces the caller's profile attributes.
	UpdateProfile(ctx context.Context, userID uuid.UUID, p model.Profile) error
	// Me loads the caller's account.
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type AuthImpl struct {
	users     repository.UserRepository
	notifier  Notifications
	signKey   []byte
	accessTTL time.Duration
}

// NewAuth constructs the credential guard.
func NewAuth(users repository.UserRepository, notifier Notifications, signKey []byte, accessTTL time.Duration) *AuthImpl {
	return &AuthImpl{users: users, notifier: notifier, signKey: signKey, accessTTL: accessTTL}
}

// Register creates a student account. The username mirrors the email, as in
// self-service signup there is no separate handle.
func (s *AuthImpl) Register(ctx context.Context, in RegisterInput) (uuid.UUID, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return uuid.Nil, fmt.Errorf("%w: valid email required", errs.ErrValidation)
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

	u := &model.User{
		ID:           id,
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
		Profile: model.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Gender:    in.Gender,
			StudentNo: in.StudentNo,
		},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Authenticate evaluates a login attempt against the account security state.
//
// Rejection order: unknown identifier, deactivated, permanently locked,
// temporarily throttled, then the password check. Unknown email and wrong
// password share one sentinel so responses do not betray which occurred.
func (s *AuthImpl) Authenticate(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Session{}, errs.ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !u.IsActive {
		return Session{}, errs.ErrAccountDisabled
	}
	if u.IsLocked {
		return Session{}, errs.ErrAccountLocked
	}
	now := time.Now()
	if u.LockoutUntil != nil && now.Before(*u.LockoutUntil) {
		return Session{}, &errs.ThrottledError{RetryAfter: u.LockoutUntil.Sub(now)}
	}

	if !crypto.VerifyPassword(password, u.PasswordHash) {
		return Session{}, s.recordFailure(ctx, u)
	}

	if err := s.users.ResetLoginState(ctx, u.ID); err != nil {
		return Session{}, err
	}
	u.FailedLoginAttempts = 0
	u.LockoutUntil = nil

	signed, err := token.Issue(u.ID, u.Role, s.signKey, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ExpiresAt: now.Add(s.accessTTL), User: *u}, nil
}

// recordFailure advances the lockout state machine after a wrong password.
// The counter increment is atomic in storage, so concurrent failures cannot
// undercount and under-trigger a threshold. Highest threshold wins.
func (s *AuthImpl) recordFailure(ctx context.Context, u *model.User) error {
	attempts, err := s.users.RecordFailedLogin(ctx, u.ID)
	if err != nil {
		return err
	}

	switch {
	case attempts >= lockAt:
		if err := s.users.Lock(ctx, u.ID); err != nil {
			return err
		}
		s.notifyAdminsOfLock(ctx, u.Email)
		return errs.ErrAccountLocked
	case attempts == throttleSecondAt:
		if err := s.users.SetLockout(ctx, u.ID, time.Now().Add(throttleSecondFor)); err != nil {
			return err
		}
		return &errs.ThrottledError{RetryAfter: throttleSecondFor}
	case attempts == throttleFirstAt:
		if err := s.users.SetLockout(ctx, u.ID, time.Now().Add(throttleFirstFor)); err != nil {
			return err
		}
		return &errs.ThrottledError{RetryAfter: throttleFirstFor}
	}
	return errs.ErrInvalidCredentials
}

func (s *AuthImpl) notifyAdminsOfLock(ctx context.Context, email string) {
	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		// Lock already persisted; losing the heads-up is acceptable.
		return
	}
	msg := fmt.Sprintf("User account for %s has been locked due to multiple failed login attempts.", email)
	for i := range admins {
		s.notifier.Notify(ctx, admins[i].ID, msg)
	}
}

// ChangePassword owns hash-on-write for the update path, keeping hashing
// uniform with account creation.
func (s *AuthImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(current, u.PasswordHash) {
		return errs.ErrInvalidCredentials
	}
	if err := checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash)
}

// UpdateProfile replaces profile attributes. The student number is only
// meaningful for students and is cleared for other roles.
func (s *AuthImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, p model.Profile) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != model.RoleStudent {
		p.StudentNo = ""
	}
	return s.users.UpdateProfile(ctx, userID, p)
}

// Me loads the caller's account.
func (s *AuthImpl) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// checkPasswordPolicy enforces minimum length plus one digit and one
// uppercase letter.
func checkPasswordPolicy(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", errs.ErrValidation)
	}
	var digit, upper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !digit || !upper {
		return fmt.Errorf("%w: password must contain a digit and an uppercase letter", errs.ErrValidation)
	}
	return nil
}
