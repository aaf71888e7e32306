package ports

import (
	"context"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// CreateTaskInput is the DTO passed from the transport layer to TaskService.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Status      string
}

type TaskService interface {
	Create(ctx context.Context, actorID string, in CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	TasksForUser(ctx context.Context, userID string) ([]*domain.Task, error)
	UpdateStatus(ctx context.Context, actorID, id, status string) (*domain.Task, error)
}
