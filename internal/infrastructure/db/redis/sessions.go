package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	defaultSessionTTL = 30 * time.Minute
	scanBatch         = 100
)

// SessionTracker keeps a decaying record of live sessions in Redis.
// Key format: session:<user_id>. A login refreshes the key's TTL, so a
// session disappears from the count on its own once the user goes quiet.
// Tokens themselves stay stateless; this is observability, not revocation.
type SessionTracker struct {
	client *redis.Client
}

// NewSessionTracker creates a SessionTracker wrapping the given Redis client.
func NewSessionTracker(client *redis.Client) *SessionTracker {
	return &SessionTracker{client: client}
}

// Track records a live session for the user, expiring after ttl. A repeated
// login for the same user extends the existing entry rather than adding a
// second one.
func (t *SessionTracker) Track(ctx context.Context, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if err := t.client.Set(ctx, sessionKeyPrefix+userID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("track session: %w", err)
	}
	return nil
}

// Count returns the number of unexpired session entries via SCAN, so large
// keyspaces never block the server the way KEYS would.
func (t *SessionTracker) Count(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := t.client.Scan(ctx, cursor, sessionKeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("count sessions: %w", err)
		}
		total += int64(len(keys))
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
