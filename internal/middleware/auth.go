package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite-api/internal/auth"
	"github.com/tracklite/tracklite-api/internal/constants"
	apierrors "github.com/tracklite/tracklite-api/internal/errors"
)

// RequireAuth verifies the bearer token on protected routes and stores the
// resolved identity in the request context. Requests without a valid access
// token are rejected with 401 before any handler runs.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Token is missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			apierrors.Unauthorized(c, "Invalid token format")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(parts[1], auth.TokenTypeAccess)
		if err != nil {
			apierrors.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUsername, claims.Username)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the gin context.
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint64)
	return id, ok
}

// GetUsername retrieves the authenticated user's username from the gin context.
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(constants.ContextKeyUsername)
	if !exists {
		return "", false
	}

	name, ok := username.(string)
	return name, ok
}
