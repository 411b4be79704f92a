package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a carrier delivery ID is remembered.
// Carriers retry webhooks for at most a day.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which webhook deliveries have been applied
type IdempotencyStore interface {
	// MarkProcessed atomically claims key for ttl. It returns false when the
	// key was already claimed, meaning the delivery is a replay.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}
