// Package handler contains the HTTP handlers for the application.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"curator/internal/delivery/http/middleware"
	"curator/internal/delivery/http/response"
	"curator/internal/domain/entity"
	"curator/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc          usecase.AuthUsecase
	migrationUC usecase.MigrationUsecase
	logger      *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, migrationUC usecase.MigrationUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:          uc,
		migrationUC: migrationUC,
		logger:      logger,
	}
}

// Login handles the login request. A successful login kicks off the
// gated data migration in the background; the client polls
// /migration/status for the blocking modal.
func (h *AuthHandler) Login(c echo.Context) error {
	var input *usecase.AuthenticateInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	output, err := h.uc.Authenticate(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	go h.runMigration(output.Account.Username, output.Account)

	return response.Success(c, http.StatusOK, output, "Login successful")
}

func (h *AuthHandler) runMigration(username string, account *entity.Account) {
	logger := h.logger.With(slog.String("username", username))
	err := h.migrationUC.RunIfNeeded(context.Background(), account, func(percent int) {
		logger.Info("Migration progress", slog.Int("percent", percent))
	})
	if err != nil {
		logger.Error("Migration failed", slog.Any("error", err))
	}
}

// Signup handles the account creation request.
func (h *AuthHandler) Signup(c echo.Context) error {
	var input *usecase.CreateUserInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid signup input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	output, err := h.uc.CreateUser(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output, "Account created successfully")
}

// Logout ends the current session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"}, "Logout successful")
}

// Session returns the identity behind the presented token. The auth
// middleware already resolved it; this endpoint just echoes it back so
// the client can rehydrate its state after a reload.
func (h *AuthHandler) Session(c echo.Context) error {
	identity, ok := c.Get(middleware.ContextKeyIdentity).(*usecase.Identity)
	if !ok {
		return response.Unauthorized(c, "SESSION_NOT_FOUND", "No active session")
	}

	return response.Success(c, http.StatusOK, identity, "")
}
