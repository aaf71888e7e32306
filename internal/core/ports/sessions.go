package ports

import (
	"context"
	"time"
)

// SessionTracker keeps a decaying record of live sessions. Entries expire on
// their own; tokens themselves stay stateless.
type SessionTracker interface {
	Track(ctx context.Context, userID string, ttl time.Duration) error
	Count(ctx context.Context) (int64, error)
}
