package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite-api/internal/constants"
	"github.com/tracklite/tracklite-api/internal/database"
	apierrors "github.com/tracklite/tracklite-api/internal/errors"
	"github.com/tracklite/tracklite-api/internal/models"
)

// RequireProjectOwnership loads the project addressed by the :id parameter
// and verifies the caller owns it. A project that is missing or owned by
// another user yields 404 either way, so existence is never leaked.
func RequireProjectOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().
			Where("id = ? AND owner_id = ?", projectID, userID).
			First(&project).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// ProjectFromContext retrieves the project loaded by RequireProjectOwnership.
func ProjectFromContext(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}

	project, ok := value.(models.Project)
	return project, ok
}
