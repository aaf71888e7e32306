package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

// TaskService implements the task-assignment module.
type TaskService struct {
	repo   ports.TaskRepository
	users  ports.UserRepository
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, users ports.UserRepository, audit ports.AuditRecorder, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, users: users, audit: audit, logger: logger}
}

// Create stores a new task. The assignee must be an existing user; an empty
// status starts the task at TODO.
func (s *TaskService) Create(ctx context.Context, actorID string, in ports.CreateTaskInput) (*domain.Task, error) {
	status := domain.TaskTodo
	if in.Status != "" {
		parsed, err := domain.ParseTaskStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if _, err := s.users.FindByID(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("task_id", created.ID).Str("assigned_to", created.AssignedTo).Msg("task created")
	s.audit.Record(domain.AuditEntry{ActorID: actorID, Action: domain.AuditTaskCreated, TargetID: created.ID, OccurredAt: now})

	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TaskService) TasksForUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.repo.FindByAssignee(ctx, userID)
}

// UpdateStatus sets a task's status after validating it against the closed
// set.
func (s *TaskService) UpdateStatus(ctx context.Context, actorID, id, status string) (*domain.Task, error) {
	parsed, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{ActorID: actorID, Action: domain.AuditTaskStatusSet, TargetID: id, OccurredAt: time.Now().UTC()})

	return updated, nil
}
