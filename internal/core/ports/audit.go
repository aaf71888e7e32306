package ports

import (
	"context"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// AuditRepository persists trail entries (insert-only).
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}

// AuditRecorder is the enqueue side of the audit pipeline. Record must not
// block request handling; persistence happens on the dispatcher's workers.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}
