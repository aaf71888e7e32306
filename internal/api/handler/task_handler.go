package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskforge/backoffice/internal/api/metrics"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

type TaskHandler struct {
	tasks ports.TaskService
}

func NewTaskHandler(tasks ports.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskResponse struct {
	Task *domain.Task `json:"task"`
}

// Create stores a new task assigned to a user.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  taskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	actor, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), actor, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}

	metrics.TasksCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, taskResponse{Task: task})
}

// MyTasks lists the tasks assigned to the caller.
func (h *TaskHandler) MyTasks(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.TasksForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) GetByID(c echo.Context) error {
	task, err := h.tasks.GetByID(c.Request().Context(), c.Param("taskId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResponse{Task: task})
}

// UpdateStatus sets a task's status.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	var req updateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	actor, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), actor, c.Param("taskId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResponse{Task: task})
}
