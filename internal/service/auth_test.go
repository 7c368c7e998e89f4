package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/crypto"
	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

type fakeUsers struct {
	byID map[uuid.UUID]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		cpy := *u
		f.byID[u.ID] = &cpy
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return errs.ErrEmailTaken
		}
	}
	cpy := *u
	cpy.IsActive = true
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) RecordFailedLogin(_ context.Context, id uuid.UUID) (int, error) {
	u, ok := f.byID[id]
	if !ok {
		return 0, errs.ErrNotFound
	}
	u.FailedLoginAttempts++
	return u.FailedLoginAttempts, nil
}

func (f *fakeUsers) SetLockout(_ context.Context, id uuid.UUID, until time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.LockoutUntil = &until
	return nil
}

func (f *fakeUsers) Lock(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.IsLocked = true
	return nil
}

func (f *fakeUsers) ResetLoginState(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockoutUntil = nil
	return nil
}

func (f *fakeUsers) Unlock(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.IsLocked = false
	u.FailedLoginAttempts = 0
	u.LockoutUntil = nil
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool, deactivatedAt *time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.IsActive = active
	u.DeactivatedAt = deactivatedAt
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, p model.Profile) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.Profile = p
	return nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	var out []model.User
	for _, u := range f.byID {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) ListNonAdmins(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range f.byID {
		if u.Role != model.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	sent []sentNotification
}

type sentNotification struct {
	userID  uuid.UUID
	message string
}

var _ Notifications = (*fakeNotifier)(nil)

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, message string) {
	n.sent = append(n.sent, sentNotification{userID: userID, message: message})
}

func (n *fakeNotifier) ListUnread(context.Context, uuid.UUID) ([]model.Notification, error) {
	return nil, nil
}

func (n *fakeNotifier) MarkAllRead(context.Context, uuid.UUID) error { return nil }

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := crypto.HashPassword(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func activeUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	return &model.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     email,
		Email:        email,
		PasswordHash: mustHash(t, password),
		Role:         model.RoleStudent,
		IsActive:     true,
	}
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewAuth(users, &fakeNotifier{}, []byte("k"), time.Minute)

	cases := []struct {
		name  string
		email string
		pw    string
	}{
		{"empty email", "", "Passw0rdX"},
		{"no at sign", "alice.example.com", "Passw0rdX"},
		{"short password", "alice@example.com", "Ab1"},
		{"no digit", "alice@example.com", "Password"},
		{"no uppercase", "alice@example.com", "password1"},
	}
	for _, tc := range cases {
		if _, err := s.Register(context.Background(), RegisterInput{Email: tc.email, Password: tc.pw}); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}

	id, err := s.Register(context.Background(), RegisterInput{
		Email:     "Alice@Example.com",
		Password:  "Passw0rdX",
		FirstName: "Alice",
		LastName:  "Reyes",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("created user missing: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.Role != model.RoleStudent {
		t.Fatalf("self-registration must produce a student, got %s", u.Role)
	}

	if _, err := s.Register(context.Background(), RegisterInput{Email: "alice@example.com", Password: "Passw0rdX"}); !errors.Is(err, errs.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken on duplicate, got %v", err)
	}
}

func TestAuth_Authenticate_UnknownAndWrongShareSentinel(t *testing.T) {
	t.Parallel()
	u := activeUser(t, "bob@example.com", "Sup3rSecret")
	s := NewAuth(newFakeUsers(u), &fakeNotifier{}, []byte("k"), time.Minute)

	_, unknownErr := s.Authenticate(context.Background(), "nobody@example.com", "whatever")
	_, wrongErr := s.Authenticate(context.Background(), "bob@example.com", "wrong")

	if !errors.Is(unknownErr, errs.ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, errs.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", wrongErr)
	}
}

func TestAuth_Authenticate_AccountStateChecks(t *testing.T) {
	t.Parallel()

	deactivated := activeUser(t, "gone@example.com", "Sup3rSecret")
	deactivated.IsActive = false

	locked := activeUser(t, "locked@example.com", "Sup3rSecret")
	locked.IsLocked = true

	throttled := activeUser(t, "slow@example.com", "Sup3rSecret")
	until := time.Now().Add(45 * time.Second)
	throttled.LockoutUntil = &until

	expired := activeUser(t, "ok@example.com", "Sup3rSecret")
	past := time.Now().Add(-time.Second)
	expired.LockoutUntil = &past

	s := NewAuth(newFakeUsers(deactivated, locked, throttled, expired), &fakeNotifier{}, []byte("k"), time.Minute)

	if _, err := s.Authenticate(context.Background(), "gone@example.com", "Sup3rSecret"); !errors.Is(err, errs.ErrAccountDisabled) {
		t.Fatalf("want ErrAccountDisabled, got %v", err)
	}
	if _, err := s.Authenticate(context.Background(), "locked@example.com", "Sup3rSecret"); !errors.Is(err, errs.ErrAccountLocked) {
		t.Fatalf("want ErrAccountLocked, got %v", err)
	}

	_, err := s.Authenticate(context.Background(), "slow@example.com", "Sup3rSecret")
	var thr *errs.ThrottledError
	if !errors.As(err, &thr) {
		t.Fatalf("want ThrottledError, got %v", err)
	}
	if secs := thr.RetryAfterSeconds(); secs < 1 || secs > 45 {
		t.Fatalf("retry-after out of range: %d", secs)
	}

	// expired lockout must be compared against the clock, not mere presence
	if _, err := s.Authenticate(context.Background(), "ok@example.com", "Sup3rSecret"); err != nil {
		t.Fatalf("expired lockout should not block login: %v", err)
	}
}

func TestAuth_Authenticate_ProgressiveLockout(t *testing.T) {
	t.Parallel()

	u := activeUser(t, "carol@example.com", "Sup3rSecret")
	admin := activeUser(t, "admin1@example.com", "Sup3rSecret")
	admin.Role = model.RoleAdmin
	admin2 := activeUser(t, "admin2@example.com", "Sup3rSecret")
	admin2.Role = model.RoleAdmin

	users := newFakeUsers(u, admin, admin2)
	notifier := &fakeNotifier{}
	s := NewAuth(users, notifier, []byte("k"), time.Minute)

	fail := func() error {
		_, err := s.Authenticate(context.Background(), "carol@example.com", "wrong")
		return err
	}
	clearLockout := func() {
		users.byID[u.ID].LockoutUntil = nil
	}

	// attempts 1,2: plain rejection
	for i := 0; i < 2; i++ {
		if err := fail(); !errors.Is(err, errs.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// attempt 3: 30s throttle
	var thr *errs.ThrottledError
	if err := fail(); !errors.As(err, &thr) || thr.RetryAfterSeconds() != 30 {
		t.Fatalf("attempt 3: want 30s throttle, got %v", err)
	}
	clearLockout()

	// attempts 4,5: plain rejection again
	for i := 0; i < 2; i++ {
		if err := fail(); !errors.Is(err, errs.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i+4, err)
		}
	}

	// attempt 6: 60s throttle
	thr = nil
	if err := fail(); !errors.As(err, &thr) || thr.RetryAfterSeconds() != 60 {
		t.Fatalf("attempt 6: want 60s throttle, got %v", err)
	}
	clearLockout()

	for i := 0; i < 2; i++ {
		if err := fail(); !errors.Is(err, errs.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i+7, err)
		}
	}

	// attempt 9: permanent lock, every admin notified
	if err := fail(); !errors.Is(err, errs.ErrAccountLocked) {
		t.Fatalf("attempt 9: want ErrAccountLocked, got %v", err)
	}
	if !users.byID[u.ID].IsLocked {
		t.Fatalf("account not locked after attempt 9")
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("want a notification per admin, got %d", len(notifier.sent))
	}
	for _, n := range notifier.sent {
		if !strings.Contains(n.message, "carol@example.com") {
			t.Fatalf("lock notification should name the account: %q", n.message)
		}
	}
}

func TestAuth_Authenticate_SuccessResetsCounters(t *testing.T) {
	t.Parallel()

	u := activeUser(t, "dave@example.com", "Sup3rSecret")
	u.FailedLoginAttempts = 2
	until := time.Now().Add(-time.Minute)
	u.LockoutUntil = &until

	users := newFakeUsers(u)
	s := NewAuth(users, &fakeNotifier{}, []byte("secret"), 2*time.Minute)

	sess, err := s.Authenticate(context.Background(), "dave@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Token == "" || !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("bad session: %+v", sess)
	}
	stored := users.byID[u.ID]
	if stored.FailedLoginAttempts != 0 || stored.LockoutUntil != nil {
		t.Fatalf("counters not reset: attempts=%d lockout=%v", stored.FailedLoginAttempts, stored.LockoutUntil)
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()

	u := activeUser(t, "erin@example.com", "Sup3rSecret")
	users := newFakeUsers(u)
	s := NewAuth(users, &fakeNotifier{}, []byte("k"), time.Minute)

	if err := s.ChangePassword(context.Background(), u.ID, "wrong", "NewSecret1"); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on wrong current password, got %v", err)
	}
	if err := s.ChangePassword(context.Background(), u.ID, "Sup3rSecret", "weak"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on weak new password, got %v", err)
	}
	if err := s.ChangePassword(context.Background(), u.ID, "Sup3rSecret", "NewSecret1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !crypto.VerifyPassword("NewSecret1", users.byID[u.ID].PasswordHash) {
		t.Fatalf("new password not stored hashed")
	}
}

func TestAuth_UpdateProfile_ClearsStudentNoForCounselor(t *testing.T) {
	t.Parallel()

	c := activeUser(t, "frank@example.com", "Sup3rSecret")
	c.Role = model.RoleCounselor
	users := newFakeUsers(c)
	s := NewAuth(users, &fakeNotifier{}, []byte("k"), time.Minute)

	err := s.UpdateProfile(context.Background(), c.ID, model.Profile{
		FirstName: "Frank",
		LastName:  "Lim",
		StudentNo: "2020-1234",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got := users.byID[c.ID].Profile.StudentNo; got != "" {
		t.Fatalf("student number must be cleared for counselors, got %q", got)
	}
}
