// Package server wires repositories, services and handlers into the gin
// engine.
package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/realtime"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries everything New needs. AIService may be nil.
type Options struct {
	DB           *gorm.DB
	SessionStore sessions.Store
	Tokens       *services.TokenService
	AIService    *services.AIService
	Logger       *zap.Logger

	// RealtimeRequireAuth gates the websocket channel with bearer tokens and
	// project access checks.
	RealtimeRequireAuth bool
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

// Server is the assembled application. Hub must be run by the caller.
type Server struct {
	Engine *gin.Engine
	Hub    *realtime.Hub
}

// New builds the router with every route mounted.
func New(opts Options) (*Server, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(opts.DB)
	projectRepo := repository.NewProjectRepository(opts.DB)
	taskRepo := repository.NewTaskRepository(opts.DB)

	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	userService := services.NewUserService(userRepo)
	analyticsService := services.NewAnalyticsService(taskRepo, projectRepo)

	var gate realtime.Gate
	if opts.RealtimeRequireAuth {
		gate = &realtimeGate{
			tokens:   opts.Tokens,
			resolver: authService,
			projects: projectService,
		}
	}
	hub := realtime.NewHub(gate, opts.Logger)

	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, hub, opts.AIService, opts.Logger)

	authHandler := handlers.NewAuthHandler(authService, opts.Tokens, opts.Logger)
	projectHandler := handlers.NewProjectHandler(projectService, opts.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, opts.Logger)
	userHandler := handlers.NewUserHandler(userService, opts.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, opts.Logger)
	wsHandler := realtime.NewHandler(hub, opts.AllowedOrigins)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(opts.Logger),
		middleware.Recovery(opts.Logger),
		sessions.Sessions(constants.SessionCookieName, opts.SessionStore),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Tracker API is running",
		})
	})
	r.GET("/ws", wsHandler.Serve)

	requireAuth := middleware.RequireAuth(opts.Tokens, authService, opts.Logger)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.GET("/project/:projectId", taskHandler.ListProjectTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", middleware.RequireRole(models.RoleAdmin), userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), userHandler.DeleteUser)
		}

		analytics := api.Group("/analytics")
		analytics.Use(requireAuth)
		{
			analytics.GET("/project/:projectId", analyticsHandler.ProjectStats)
			analytics.GET("/user/:userId", analyticsHandler.UserStats)
		}
	}

	return &Server{
		Engine: r,
		Hub:    hub,
	}, nil
}
