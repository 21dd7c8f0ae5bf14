package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/tracklite/tracklite-api/internal/errors"
	"github.com/tracklite/tracklite-api/internal/logger"
	"github.com/tracklite/tracklite-api/internal/middleware"
	"github.com/tracklite/tracklite-api/internal/services"
)

// GoogleAuthHandler runs the Google Calendar OAuth connect/callback flow.
type GoogleAuthHandler struct {
	authService     *services.AuthService
	calendarService *services.CalendarService
	frontendURL     string
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler.
func NewGoogleAuthHandler(authService *services.AuthService, calendarService *services.CalendarService, frontendURL string) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		authService:     authService,
		calendarService: calendarService,
		frontendURL:     frontendURL,
	}
}

// Connect returns the Google authorization URL for the authenticated user.
func (h *GoogleAuthHandler) Connect(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if _, err := h.authService.GetUser(userID); err != nil {
		apierrors.NotFound(c, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": h.calendarService.AuthURL(userID),
	})
}

// Callback handles the OAuth redirect from Google. The state parameter
// carries the user ID that initiated the flow; the exchanged credential is
// stored on that user.
func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		apierrors.BadRequest(c, "Missing state parameter")
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing code parameter")
		return
	}

	userID, err := strconv.ParseUint(state, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid state parameter")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		apierrors.NotFound(c, "User not found")
		return
	}

	if err := h.calendarService.Exchange(c.Request.Context(), user, code); err != nil {
		logger.L().Error().Err(err).Uint64("user_id", userID).Msg("google oauth exchange failed")
		apierrors.InternalError(c, "Failed to connect Google Calendar")
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/settings?google_connected=true")
}
