package domain

import "time"

// AuditAction names a back-office moment worth a trail entry.
type AuditAction string

const (
	AuditUserRegistered   AuditAction = "user.registered"
	AuditUserLoggedIn     AuditAction = "user.logged_in"
	AuditSessionRefreshed AuditAction = "session.refreshed"
	AuditPasswordUpdated  AuditAction = "user.password_updated"
	AuditUserBlocked      AuditAction = "user.blocked"
	AuditUserUnblocked    AuditAction = "user.unblocked"
	AuditTaskCreated      AuditAction = "task.created"
	AuditTaskStatusSet    AuditAction = "task.status_updated"
)

// AuditEntry records who did what to whom.
type AuditEntry struct {
	ActorID    string
	Action     AuditAction
	TargetID   string
	OccurredAt time.Time
}
