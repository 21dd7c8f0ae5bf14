package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite-api/internal/constants"
	"github.com/tracklite/tracklite-api/internal/database"
	apierrors "github.com/tracklite/tracklite-api/internal/errors"
	"github.com/tracklite/tracklite-api/internal/models"
)

// RequireTaskAccess loads the task addressed by the :id parameter and checks
// access through its parent project's owner. A missing task is 404. A task
// whose parent project belongs to another user is 403: the task exists but
// the caller may not touch it.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var task models.Task
		if err := database.GetDB().First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().
			Where("id = ? AND owner_id = ?", task.ProjectID, userID).
			First(&project).Error; err != nil {
			apierrors.Forbidden(c, "You do not have access to this task")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// TaskFromContext retrieves the task loaded by RequireTaskAccess.
func TaskFromContext(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}

	task, ok := value.(models.Task)
	return task, ok
}
