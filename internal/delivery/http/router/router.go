// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"curator/internal/delivery/http/middleware"
	"curator/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler      *handler.AuthHandler
	MigrationHandler *handler.MigrationHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler      *handler.AuthHandler
	migrationHandler *handler.MigrationHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:      params.AuthHandler,
		migrationHandler: params.MigrationHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/session", r.authHandler.Session, r.authMiddleware.Authenticate)
	}

	// Migration routes require an authenticated owner
	migrationGroup := e.Group("/migration")
	migrationGroup.Use(r.authMiddleware.Authenticate)
	migrationGroup.Use(r.authMiddleware.RequireOwner)
	{
		migrationGroup.GET("/status", r.migrationHandler.Status)
		migrationGroup.POST("/retry", r.migrationHandler.Retry)
	}
}
