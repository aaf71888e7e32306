package handler

type createTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	AssignedTo  string `json:"assigned_to" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE"`
}
