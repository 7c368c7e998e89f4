package notify

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

// RedisDispatcher publishes to per-user redis channels. A websocket
// gateway subscribed to notify:user:<id> forwards messages to live
// browser sessions; with no subscriber the publish is a no-op, which is
// exactly the fire-and-forget contract.
type RedisDispatcher struct {
	client *redis.Client
}

// NewRedisDispatcher connects a dispatcher to the given redis address.
func NewRedisDispatcher(addr string) *RedisDispatcher {
	return &RedisDispatcher{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Channel returns the per-user channel name.
func Channel(userID uuid.UUID) string {
	return "notify:user:" + userID.String()
}

// Publish sends the message to the user's channel.
func (d *RedisDispatcher) Publish(ctx context.Context, userID uuid.UUID, message string) error {
	return d.client.Publish(ctx, Channel(userID), message).Err()
}

// Close releases the redis connection.
func (d *RedisDispatcher) Close() error { return d.client.Close() }
