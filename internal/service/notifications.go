// Package service contains application services for accounts, appointments,
// feedback, counseling records and notifications.
package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/notify"
	"github.com/counselink/server/internal/repository"
)

// unreadPageSize caps the unread list surfaced on page load.
const unreadPageSize = 10

// Notifications records durable notifications and pushes them best-effort.
type Notifications interface {
	// Notify persists a notification and attempts a real-time push.
	// Failures are logged and swallowed: a notification is an enhancement
	// to the triggering transition, never a reason to fail it.
	Notify(ctx context.Context, userID uuid.UUID, message string)
	// ListUnread returns the newest unread notifications, capped at 10.
	ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	// MarkAllRead flips every unread notification of the user to read.
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type NotificationsImpl struct {
	repo       repository.NotificationRepository
	dispatcher notify.Dispatcher
	log        *zap.Logger
}

// NewNotifications constructs the notification service.
func NewNotifications(repo repository.NotificationRepository, dispatcher notify.Dispatcher, log *zap.Logger) *NotificationsImpl {
	return &NotificationsImpl{repo: repo, dispatcher: dispatcher, log: log}
}

// Notify stores the durable record, then fires the push. The record is the
// source of truth; the push only shortens discovery time.
func (s *NotificationsImpl) Notify(ctx context.Context, userID uuid.UUID, message string) {
	id, err := uuid.NewV4()
	if err != nil {
		s.log.Error("notification id", zap.Error(err))
		return
	}
	n := &model.Notification{ID: id, UserID: userID, Message: message, Status: model.NotificationUnread}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error("notification persist",
			zap.String("user", userID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.dispatcher.Publish(ctx, userID, message); err != nil {
		s.log.Warn("notification push",
			zap.String("user", userID.String()),
			zap.Error(err),
		)
	}
}

// ListUnread returns up to 10 unread notifications, newest first.
func (s *NotificationsImpl) ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	return s.repo.ListUnread(ctx, userID, unreadPageSize)
}

// MarkAllRead performs the bulk unread->read transition.
func (s *NotificationsImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
