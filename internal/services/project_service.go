package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tracklite/tracklite-api/internal/models"
	"github.com/tracklite/tracklite-api/internal/repository"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameRequired  = errors.New("name is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)

// ProjectService handles project business logic. Every operation is scoped
// to the owning user; there is no sharing model.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// ListProjectsInput represents pagination for listing an owner's projects
type ListProjectsInput struct {
	OwnerID uint64
	Page    int
	PerPage int
}

// ListProjects returns one page of the owner's projects, the total count,
// and the per-project task counts.
func (s *ProjectService) ListProjects(input ListProjectsInput) ([]models.Project, int64, map[uint64]int64, error) {
	projects, total, err := s.projectRepo.ListByOwner(repository.ProjectFilter{
		OwnerID: input.OwnerID,
		Page:    input.Page,
		PerPage: input.PerPage,
	})
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projectIDs := make([]uint64, len(projects))
	for i, p := range projects {
		projectIDs[i] = p.ID
	}

	taskCounts, err := s.projectRepo.CountTasks(projectIDs)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return projects, total, taskCounts, nil
}

// GetProject returns a project scoped to its owner. A project owned by
// someone else is indistinguishable from a missing one.
func (s *ProjectService) GetProject(projectID, ownerID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByIDAndOwner(projectID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     uint64
}

// CreateProject creates a new project owned by the caller.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		Status:      models.ProjectStatusActive,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// UpdateProjectInput represents input for a partial project update. Only
// non-nil fields are applied; the owner is immutable.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

// UpdateProject merges the provided fields into the stored project.
func (s *ProjectService) UpdateProject(projectID, ownerID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.GetProject(projectID, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project and all its tasks.
func (s *ProjectService) DeleteProject(projectID, ownerID uint64) error {
	if _, err := s.GetProject(projectID, ownerID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// CountProjectTasks returns the task count for a single project.
func (s *ProjectService) CountProjectTasks(projectID uint64) (int64, error) {
	counts, err := s.projectRepo.CountTasks([]uint64{projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return counts[projectID], nil
}
