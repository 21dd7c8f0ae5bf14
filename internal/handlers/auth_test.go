package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tracklite/tracklite-api/internal/auth"
	"github.com/tracklite/tracklite-api/internal/database"
	"github.com/tracklite/tracklite-api/internal/middleware"
	"github.com/tracklite/tracklite-api/internal/models"
	"github.com/tracklite/tracklite-api/internal/repository"
	"github.com/tracklite/tracklite-api/internal/services"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
	tokens      *auth.TokenManager
	router      *gin.Engine
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Task{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	tokens, err := auth.NewTokenManager(auth.Config{
		Secret:          "test-secret-key-for-handlers",
		Issuer:          "tracklite-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost))
	handler := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/refresh", handler.Refresh)
	r.GET("/api/auth/me", middleware.RequireAuth(tokens), handler.GetCurrentUser)
	r.DELETE("/api/auth/me", middleware.RequireAuth(tokens), handler.DeleteCurrentUser)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
		tokens:      tokens,
		router:      r,
	}
}

func (env authTestEnv) doJSON(t *testing.T, method, url string, payload any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      "new@example.com",
		"username":   "newuser",
		"password":   "supersecret",
		"first_name": "New",
		"last_name":  "User",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Message string `json:"message"`
		User    struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			IsActive bool   `json:"is_active"`
		} `json:"user"`
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "new@example.com", response.User.Email)
	require.Equal(t, "newuser", response.User.Username)
	require.True(t, response.User.IsActive)
	require.NotEmpty(t, response.Tokens.AccessToken)
	require.NotEmpty(t, response.Tokens.RefreshToken)
	require.Equal(t, "Bearer", response.Tokens.TokenType)

	claims, err := env.tokens.Verify(response.Tokens.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "newuser", claims.Username)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	env := setupAuthTestEnv(t)

	payload := map[string]string{
		"email":    "dup@example.com",
		"username": "first",
		"password": "supersecret",
	}
	w := env.doJSON(t, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, w.Code)

	payload["username"] = "second"
	w = env.doJSON(t, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusConflict, w.Code)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	require.Equal(t, int64(1), count)
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "one@example.com",
		"username": "taken",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "two@example.com",
		"username": "taken",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "short@example.com",
		"username": "shorty",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Email:    "login@example.com",
		Username: "loginuser",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	// The issued access token must be usable on a protected route.
	w = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, response.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Email:    "login@example.com",
		Username: "loginuser",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrongpassword",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Login_InactiveUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, _, err := env.authService.Register(services.RegisterInput{
		Email:    "inactive@example.com",
		Username: "inactive",
		Password: "supersecret",
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "inactive@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "refresh@example.com",
		Username: "refresher",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Tokens.AccessToken)

	claims, err := env.tokens.Verify(response.Tokens.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "refresher", claims.Username)
}

func TestAuthHandler_Refresh_RejectsAccessToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "refresh@example.com",
		Username: "refresher",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.AccessToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ProtectedRoute_RejectsRefreshToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "refresh@example.com",
		Username: "refresher",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", nil, pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_DeleteCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, pair, err := env.authService.Register(services.RegisterInput{
		Email:    "gone@example.com",
		Username: "goneuser",
		Password: "supersecret",
	})
	require.NoError(t, err)

	project := models.Project{Name: "Owned", OwnerID: user.ID, Status: models.ProjectStatusActive}
	require.NoError(t, env.db.Create(&project).Error)
	task := models.Task{Title: "Orphaned soon", ProjectID: project.ID, Status: models.TaskStatusTodo, Priority: models.TaskPriorityMedium}
	require.NoError(t, env.db.Create(&task).Error)

	w := env.doJSON(t, http.MethodDelete, "/api/auth/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var userCount, projectCount, taskCount int64
	env.db.Model(&models.User{}).Count(&userCount)
	env.db.Model(&models.Project{}).Count(&projectCount)
	env.db.Model(&models.Task{}).Count(&taskCount)
	require.Equal(t, int64(0), userCount)
	require.Equal(t, int64(0), projectCount)
	require.Equal(t, int64(0), taskCount)
}
