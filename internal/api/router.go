package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskforge/backoffice/internal/api/handler"
	"github.com/taskforge/backoffice/internal/api/middleware"
	"github.com/taskforge/backoffice/internal/auth"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

// publicRoutes are exempt from the authentication gate: login itself, account
// registration, the token refresh exchange, and the password reset flow. The
// gate matches method and path exactly, before any token work; the method
// matters because GET /api/users (the admin-only list) shares its path with
// the public registration POST.
var publicRoutes = []string{
	"POST /api/users",
	"POST /api/users/login",
	"POST /api/users/refresh",
	"POST /api/users/password",
}

// RouterConfig carries the wired dependencies the HTTP surface needs.
type RouterConfig struct {
	Users  ports.UserService
	Tasks  ports.TaskService
	Codec  *auth.Codec
	Mongo  *mongo.Database
	Redis  *redis.Client
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
// The route table below is the authorization policy: each protected route
// declares the roles permitted to invoke it.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("backoffice"))

	// --- Handlers ---
	userHandler := handler.NewUserHandler(cfg.Users)
	taskHandler := handler.NewTaskHandler(cfg.Tasks)

	gate := middleware.Auth(cfg.Codec, cfg.Logger, publicRoutes...)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	anyRole := middleware.RBAC(domain.RoleUser, domain.RoleAdmin)

	api := e.Group("/api", gate)

	// --- User routes ---
	api.POST("/users", userHandler.Register)                // public
	api.POST("/users/login", userHandler.Login)             // public
	api.POST("/users/refresh", userHandler.Refresh)         // public
	api.POST("/users/password", userHandler.UpdatePassword) // public
	api.GET("/users", userHandler.List, adminOnly)
	api.GET("/users/active-session", userHandler.ActiveSessions, adminOnly)
	api.POST("/users/registered", userHandler.Registered, adminOnly)
	api.GET("/users/:id", userHandler.GetByID, adminOnly)
	api.PATCH("/users/:id/block", userHandler.BlockUnblock, adminOnly)
	api.PUT("/users/:id/complete-profile", userHandler.CompleteProfile, anyRole)
	api.PUT("/users/:id/complete-qualification", userHandler.CompleteQualification, anyRole)
	api.PUT("/users/:id/complete-kyc", userHandler.CompleteKYC, anyRole)

	// --- Task routes ---
	api.POST("/tasks", taskHandler.Create, adminOnly)
	api.GET("/tasks/my-tasks", taskHandler.MyTasks, anyRole)
	api.GET("/tasks/:taskId", taskHandler.GetByID, anyRole)
	api.PATCH("/tasks/:taskId/status", taskHandler.UpdateStatus, anyRole)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.Mongo, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
