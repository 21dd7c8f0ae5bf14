package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tracklite/tracklite-api/internal/logger"
	"github.com/tracklite/tracklite-api/internal/models"
	"github.com/tracklite/tracklite-api/internal/repository"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskTitleRequired   = errors.New("title is required")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrInvalidTaskPriority = errors.New("invalid task priority")
	ErrAssigneeNotFound    = errors.New("assignee does not exist")
)

// calendarSyncTimeout bounds each calendar call so a slow external API
// cannot stall the request indefinitely.
const calendarSyncTimeout = 10 * time.Second

// TaskService handles task business logic. Calendar sync is optional: when
// the service is constructed without a CalendarService all sync hooks are
// no-ops.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	calendar    *CalendarService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository, calendar *CalendarService) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		calendar:    calendar,
	}
}

// ListTasksInput represents filters for listing a project's tasks
type ListTasksInput struct {
	ProjectID uint64
	OwnerID   uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
}

// ListTasks returns the tasks of a project owned by the caller, optionally
// filtered by status and priority.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, error) {
	if err := s.ensureProjectOwner(input.ProjectID, input.OwnerID); err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	tasks, err := s.taskRepo.ListByProject(repository.TaskFilter{
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Priority:  input.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   uint64
	OwnerID     uint64
	AssigneeID  *uint64
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// CreateTask creates a task under a project owned by the caller. When the
// task has a due date and the owner has connected their calendar, a calendar
// event is created best-effort and its ID stored on the task.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}

	if err := s.ensureProjectOwner(input.ProjectID, input.OwnerID); err != nil {
		return nil, err
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	if input.AssigneeID != nil {
		if err := s.ensureUserExists(*input.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		Status:      models.TaskStatusTodo,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.syncCreate(ctx, input.OwnerID, task)

	return task, nil
}

// UpdateTaskInput represents input for a partial task update. Only non-nil
// fields are applied. ClearDueDate and ClearAssignee distinguish an explicit
// null from an absent field.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	AssigneeID    *uint64
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// UpdateTask merges the provided fields into the stored task and mirrors the
// result to the owner's calendar best-effort. The task must already have
// passed the access gate; ownerID is the parent project's owner.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, ownerID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTaskTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if err := s.ensureUserExists(*input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.syncUpdate(ctx, ownerID, task)

	return task, nil
}

// DeleteTask removes a task and its calendar event, if any.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, ownerID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.syncDelete(ctx, ownerID, task)

	return nil
}

func (s *TaskService) ensureProjectOwner(projectID, ownerID uint64) error {
	_, err := s.projectRepo.FindByIDAndOwner(projectID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to verify project ownership: %w", err)
	}
	return nil
}

func (s *TaskService) ensureUserExists(userID uint64) error {
	_, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

// Calendar sync hooks. Every hook is best-effort: failures are logged and
// swallowed, the CRUD result stays authoritative. One attempt, no retry.

func (s *TaskService) syncCreate(ctx context.Context, ownerID uint64, task *models.Task) {
	owner, ok := s.calendarOwner(ownerID)
	if !ok || task.DueDate == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, calendarSyncTimeout)
	defer cancel()

	eventID, err := s.calendar.CreateEvent(ctx, owner, task)
	if err != nil {
		logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("calendar event creation failed")
		return
	}

	task.GoogleEventID = eventID
	if err := s.taskRepo.Update(task); err != nil {
		logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("failed to store calendar event id")
	}
}

func (s *TaskService) syncUpdate(ctx context.Context, ownerID uint64, task *models.Task) {
	owner, ok := s.calendarOwner(ownerID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, calendarSyncTimeout)
	defer cancel()

	switch {
	case task.DueDate == nil && task.GoogleEventID != "":
		// Due date cleared: the event no longer has a date to live on
		if err := s.calendar.DeleteEvent(ctx, owner, task.GoogleEventID); err != nil {
			logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("calendar event deletion failed")
			return
		}
		task.GoogleEventID = ""
		if err := s.taskRepo.Update(task); err != nil {
			logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("failed to clear calendar event id")
		}
	case task.DueDate != nil && task.GoogleEventID == "":
		eventID, err := s.calendar.CreateEvent(ctx, owner, task)
		if err != nil {
			logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("calendar event creation failed")
			return
		}
		task.GoogleEventID = eventID
		if err := s.taskRepo.Update(task); err != nil {
			logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("failed to store calendar event id")
		}
	case task.DueDate != nil:
		if err := s.calendar.UpdateEvent(ctx, owner, task); err != nil {
			logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("calendar event update failed")
		}
	}
}

func (s *TaskService) syncDelete(ctx context.Context, ownerID uint64, task *models.Task) {
	owner, ok := s.calendarOwner(ownerID)
	if !ok || task.GoogleEventID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, calendarSyncTimeout)
	defer cancel()

	if err := s.calendar.DeleteEvent(ctx, owner, task.GoogleEventID); err != nil {
		logger.L().Warn().Err(err).Uint64("task_id", task.ID).Msg("calendar event deletion failed")
	}
}

// calendarOwner resolves the project owner when calendar sync is possible:
// the service is configured and the owner has connected their calendar.
func (s *TaskService) calendarOwner(ownerID uint64) (*models.User, bool) {
	if s.calendar == nil {
		return nil, false
	}

	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		logger.L().Warn().Err(err).Uint64("user_id", ownerID).Msg("failed to load owner for calendar sync")
		return nil, false
	}

	if !s.calendar.Connected(owner) {
		return nil, false
	}

	return owner, true
}
