package main

import (
	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite-api/internal/auth"
	"github.com/tracklite/tracklite-api/internal/config"
	"github.com/tracklite/tracklite-api/internal/database"
	"github.com/tracklite/tracklite-api/internal/handlers"
	"github.com/tracklite/tracklite-api/internal/logger"
	"github.com/tracklite/tracklite-api/internal/middleware"
	"github.com/tracklite/tracklite-api/internal/repository"
	"github.com/tracklite/tracklite-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(gin.ReleaseMode)
		logger.L().Fatal().Err(err).Msg("Failed to load configuration")
	}

	gin.SetMode(cfg.GinMode)
	logger.Init(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(); err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to run migrations")
	}

	tokens, err := auth.NewTokenManager(auth.Config{
		Secret:          cfg.JWTSecret,
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	userRepo := repository.NewUserRepository(database.GetDB())
	projectRepo := repository.NewProjectRepository(database.GetDB())
	taskRepo := repository.NewTaskRepository(database.GetDB())

	// Calendar sync is optional: without Google credentials the API runs
	// normally and tasks simply never reach a calendar.
	var calendarService *services.CalendarService
	if cfg.GoogleClientID != "" {
		calendarService = services.NewCalendarService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, userRepo)
	}

	authService := services.NewAuthService(userRepo, tokens, auth.NewPasswordService())
	projectService := services.NewProjectService(projectRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, calendarService)

	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := gin.Default()

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Tracklite API is running",
		})
	})

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.GET("/me", middleware.RequireAuth(tokens), authHandler.GetCurrentUser)
			authRoutes.DELETE("/me", middleware.RequireAuth(tokens), authHandler.DeleteCurrentUser)

			if calendarService != nil {
				googleHandler := handlers.NewGoogleAuthHandler(authService, calendarService, cfg.FrontendURL)
				authRoutes.GET("/google/connect", middleware.RequireAuth(tokens), googleHandler.Connect)
				authRoutes.GET("/google/callback", googleHandler.Callback)
			}
		}

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth(tokens))
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", middleware.RequireProjectOwnership(), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireProjectOwnership(), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireProjectOwnership(), projectHandler.DeleteProject)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(tokens))
		{
			tasks.GET("/project/:project_id", taskHandler.ListProjectTasks)
			tasks.POST("/project/:project_id", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
		}
	}

	logger.L().Info().Str("port", cfg.Port).Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.L().Fatal().Err(err).Msg("Server exited")
	}
}
