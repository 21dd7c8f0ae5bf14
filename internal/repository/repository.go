package repository

import (
	"github.com/tracklite/tracklite-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Update persists changes to an existing user
	Update(user *models.User) error

	// Delete removes a user together with their projects and those
	// projects' tasks in a single transaction
	Delete(id uint64) error
}

// ProjectFilter holds filtering and pagination options for listing projects
type ProjectFilter struct {
	OwnerID uint64
	Page    int
	PerPage int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByIDAndOwner finds a project by ID scoped to its owner
	FindByIDAndOwner(id, ownerID uint64) (*models.Project, error)

	// ListByOwner retrieves the owner's projects with pagination,
	// returning the page of projects and the total count
	ListByOwner(filter ProjectFilter) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete removes a project and its tasks in a single transaction
	Delete(id uint64) error

	// CountTasks returns the number of tasks per project for the given
	// project IDs
	CountTasks(projectIDs []uint64) (map[uint64]int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// ListByProject retrieves the tasks of a project with optional
	// status/priority filters
	ListByProject(filter TaskFilter) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error
}
