package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already processed: client
// request keys for points registrations and event IDs for event handlers.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false when the key was
	// already claimed and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the key can be retried after a failure
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
