package handler

import (
	"log/slog"
	"net/http"

	"curator/internal/delivery/http/middleware"
	"curator/internal/delivery/http/response"
	"curator/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MigrationHandler exposes the migration orchestrator state and the
// retry control to the admin client.
type MigrationHandler struct {
	uc     usecase.MigrationUsecase
	logger *slog.Logger
}

// NewMigrationHandler is the constructor for MigrationHandler, injected by Fx.
func NewMigrationHandler(uc usecase.MigrationUsecase, logger *slog.Logger) *MigrationHandler {
	return &MigrationHandler{
		uc:     uc,
		logger: logger,
	}
}

// Status reports the current migration snapshot.
func (h *MigrationHandler) Status(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.uc.Status(), "")
}

// Retry re-runs the migration pipeline from the first stage after a
// failure. Progress is reported through logs; the client polls Status.
func (h *MigrationHandler) Retry(c echo.Context) error {
	identity, ok := c.Get(middleware.ContextKeyIdentity).(*usecase.Identity)
	if !ok {
		return response.Unauthorized(c, "SESSION_NOT_FOUND", "No active session")
	}

	logger := h.logger.With(slog.String("username", identity.Account.Username))
	err := h.uc.Retry(c.Request().Context(), func(percent int) {
		logger.Info("Migration progress", slog.Int("percent", percent))
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, h.uc.Status(), "Migration finished")
}
