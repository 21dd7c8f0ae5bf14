package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite-api/internal/dto"
	apierrors "github.com/tracklite/tracklite-api/internal/errors"
	"github.com/tracklite/tracklite-api/internal/middleware"
	"github.com/tracklite/tracklite-api/internal/models"
	"github.com/tracklite/tracklite-api/internal/services"
)

// TaskHandler coordinates task CRUD handlers. List/create run under a
// project path parameter; single-task routes run behind RequireTaskAccess,
// which resolves authorization through the parent project's owner.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListProjectTasks returns the tasks of a project owned by the caller,
// optionally filtered by status and priority query parameters. Ownership is
// checked by the service; a project owned by someone else reads as missing.
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	input := services.ListTasksInput{
		ProjectID: projectID,
		OwnerID:   userID,
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		input.Priority = &p
	}

	tasks, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

// GetTask returns the task loaded by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(task)})
}

// CreateTask creates a task under a project owned by the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,min=1,max=200"`
		Description string              `json:"description"`
		AssigneeID  *uint64             `json:"assignee_id"`
		Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
		DueDate     *time.Time          `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   projectID,
		OwnerID:     userID,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// UpdateTask applies a partial update to the task. The body is parsed as a
// raw map so that an explicit null (clear the field) can be told apart from
// an absent field (leave it untouched).
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	project, ok := middleware.ProjectFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := taskUpdateInput(raw)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, project.OwnerID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    dto.ToTaskDTO(*updated),
	})
}

// DeleteTask removes the task loaded by RequireTaskAccess.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.TaskFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	project, ok := middleware.ProjectFromContext(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID, project.OwnerID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// taskUpdateInput translates the raw update body into a service input,
// distinguishing absent fields, explicit nulls, and values.
func taskUpdateInput(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if value, ok := raw["title"]; ok {
		title, ok := value.(string)
		if !ok {
			return input, errors.New("title must be a string")
		}
		input.Title = &title
	}
	if value, ok := raw["description"]; ok {
		description, ok := value.(string)
		if !ok {
			return input, errors.New("description must be a string")
		}
		input.Description = &description
	}
	if value, ok := raw["status"]; ok {
		str, ok := value.(string)
		if !ok {
			return input, errors.New("status must be a string")
		}
		status := models.TaskStatus(str)
		input.Status = &status
	}
	if value, ok := raw["priority"]; ok {
		str, ok := value.(string)
		if !ok {
			return input, errors.New("priority must be a string")
		}
		priority := models.TaskPriority(str)
		input.Priority = &priority
	}
	if value, ok := raw["assignee_id"]; ok {
		if value == nil {
			input.ClearAssignee = true
		} else {
			num, ok := value.(float64)
			if !ok || num < 0 {
				return input, errors.New("assignee_id must be a positive number")
			}
			id := uint64(num)
			input.AssigneeID = &id
		}
	}
	if value, ok := raw["due_date"]; ok {
		if value == nil {
			input.ClearDueDate = true
		} else {
			str, ok := value.(string)
			if !ok {
				return input, errors.New("due_date must be an RFC 3339 timestamp")
			}
			parsed, err := time.Parse(time.RFC3339, str)
			if err != nil {
				return input, errors.New("due_date must be an RFC 3339 timestamp")
			}
			input.DueDate = &parsed
		}
	}

	return input, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskTitleRequired),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
