// Package handler implements the HTTP endpoints of the Tour Flow API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
	"github.com/tourflow/tourflow/internal/utils"
)

const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// statusOf maps repository and model errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalid),
		errors.Is(err, model.ErrChannelRange),
		errors.Is(err, utils.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrTourNotFound),
		errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrGearNotFound),
		errors.Is(err, repository.ErrInputListNotFound),
		errors.Is(err, repository.ErrChannelNotFound),
		errors.Is(err, repository.ErrCrewNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrDocumentNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrInvitationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInvitationExpired):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// fail writes the JSON error for err. Unexpected errors are logged and
// reported as "<op> failed" so internals do not leak.
func fail(c echo.Context, log *zap.Logger, op string, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err), zap.Uint64("user_id", middleware.UserID(c)))
		return c.JSON(status, echo.Map{"error": op + " failed"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func param(c echo.Context, name string) string { return strings.TrimSpace(c.Param(name)) }
