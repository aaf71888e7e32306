package ports

import (
	"context"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// TaskRepository defines task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	FindByAssignee(ctx context.Context, userID string) ([]*domain.Task, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error)
}
