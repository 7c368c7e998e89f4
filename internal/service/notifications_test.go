package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/repository"
)

type fakeNotificationStore struct {
	rows []model.Notification

	createErr error
}

var _ repository.NotificationRepository = (*fakeNotificationStore)(nil)

func (f *fakeNotificationStore) Create(_ context.Context, n *model.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotificationStore) ListUnread(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		n := f.rows[i]
		if n.UserID == userID && n.Status == model.NotificationUnread {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].Status = model.NotificationRead
		}
	}
	return nil
}

type fakeDispatcher struct {
	published []string
	err       error
}

func (d *fakeDispatcher) Publish(_ context.Context, _ uuid.UUID, message string) error {
	if d.err != nil {
		return d.err
	}
	d.published = append(d.published, message)
	return nil
}

func TestNotifications_NotifyPersistsThenPushes(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	dispatcher := &fakeDispatcher{}
	s := NewNotifications(store, dispatcher, zap.NewNop())

	userID := uuid.Must(uuid.NewV4())
	s.Notify(context.Background(), userID, "hello")

	if len(store.rows) != 1 || store.rows[0].Message != "hello" {
		t.Fatalf("durable record missing: %+v", store.rows)
	}
	if store.rows[0].Status != model.NotificationUnread {
		t.Fatalf("new notification must be unread, got %s", store.rows[0].Status)
	}
	if len(dispatcher.published) != 1 {
		t.Fatalf("push not attempted")
	}
}

func TestNotifications_PushFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	dispatcher := &fakeDispatcher{err: errors.New("redis down")}
	s := NewNotifications(store, dispatcher, zap.NewNop())

	// must not panic or lose the durable record
	s.Notify(context.Background(), uuid.Must(uuid.NewV4()), "hello")
	if len(store.rows) != 1 {
		t.Fatalf("durable record lost on push failure")
	}
}

func TestNotifications_PersistFailureSkipsPush(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{createErr: errors.New("db down")}
	dispatcher := &fakeDispatcher{}
	s := NewNotifications(store, dispatcher, zap.NewNop())

	s.Notify(context.Background(), uuid.Must(uuid.NewV4()), "hello")
	if len(dispatcher.published) != 0 {
		t.Fatalf("pushed without a durable record")
	}
}

func TestNotifications_ListUnreadCapAndMarkRead(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	s := NewNotifications(store, &fakeDispatcher{}, zap.NewNop())

	userID := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	for i := 0; i < 15; i++ {
		s.Notify(context.Background(), userID, "mine")
	}
	s.Notify(context.Background(), other, "theirs")

	list, err := s.ListUnread(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListUnread: %v", err)
	}
	if len(list) != unreadPageSize {
		t.Fatalf("unread list not capped: got %d", len(list))
	}
	for _, n := range list {
		if n.UserID != userID {
			t.Fatalf("foreign notification in list")
		}
	}

	if err := s.MarkAllRead(context.Background(), userID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	list, err = s.ListUnread(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListUnread after mark: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("unread remained after MarkAllRead: %d", len(list))
	}

	// other users' unread state untouched
	theirs, _ := s.ListUnread(context.Background(), other)
	if len(theirs) != 1 {
		t.Fatalf("bulk read leaked across users")
	}
}
