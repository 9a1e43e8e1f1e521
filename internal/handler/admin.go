package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourflow/tourflow/internal/jobs"
)

// AdminHandler exposes the maintenance jobs to ADMIN accounts.
type AdminHandler struct {
	Jobs *jobs.Runner
}

func (h *AdminHandler) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"jobs": h.Jobs.Names(), "last": h.Jobs.Last()})
}

// RunJob executes a job synchronously and returns its result.
func (h *AdminHandler) RunJob(c echo.Context) error {
	name := param(c, "name")
	if !h.Jobs.Has(name) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown job"})
	}
	res := h.Jobs.Run(c.Request().Context(), name)
	if res.Skipped {
		return c.JSON(http.StatusConflict, res)
	}
	if res.Error != "" {
		return c.JSON(http.StatusInternalServerError, res)
	}
	return c.JSON(http.StatusOK, res)
}
