// Package notify defines the best-effort real-time push channel.
//
// The durable notification record is the source of truth; the push only
// shortens the time until a logged-in user sees it. Implementations must
// therefore never let a delivery failure surface to the caller's caller.
package notify

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// Dispatcher publishes a message to a per-user addressable channel.
type Dispatcher interface {
	// Publish pushes message toward userID. No delivery guarantee.
	Publish(ctx context.Context, userID uuid.UUID, message string) error
}

// Noop discards every push. Used when no broker is configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, uuid.UUID, string) error { return nil }
