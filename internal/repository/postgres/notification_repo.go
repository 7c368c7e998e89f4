package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/model"
)

// NotificationRepo implements NotificationRepository using PostgreSQL.
type NotificationRepo struct{ db *DB }

// NewNotificationRepo constructs a notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts an unread notification.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, message, status)
VALUES ($1,$2,$3,'unread')`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.UserID, n.Message)
	return err
}

// ListUnread returns up to limit unread notifications, newest first.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	const q = `
SELECT id, user_id, message, status, created_at
FROM notifications
WHERE user_id=$1 AND status='unread'
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkAllRead flips every unread notification of the user to read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE notifications SET status='read' WHERE user_id=$1 AND status='unread'`
	_, err := r.db.Pool.Exec(ctx, q, userID)
	return err
}
