package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
)

type TaskHandler struct {
	Tasks *repository.TaskRepo
	Tours *repository.TourRepo
	Shows *repository.ShowRepo
	Log   *zap.Logger
}

func NewTaskHandler(tasks *repository.TaskRepo, tours *repository.TourRepo, shows *repository.ShowRepo, log *zap.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Tours: tours, Shows: shows, Log: orNop(log)}
}

func (h *TaskHandler) Create(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	if patch.Title == nil {
		return badRequest(c, "title required")
	}
	t := model.Task{OwnerID: middleware.UserID(c), Status: model.TaskTodo, Priority: model.PriorityMedium}
	if err := patch.Apply(&t); err != nil {
		return fail(c, h.Log, "create task", err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tourID, err := linkTour(ctx, h.Tours, h.Shows, t.TourID, t.ShowID, t.OwnerID)
	if err != nil {
		return fail(c, h.Log, "create task", err)
	}
	t.TourID = tourID
	if err := h.Tasks.Create(ctx, &t); err != nil {
		return fail(c, h.Log, "create task", err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TaskHandler) List(c echo.Context) error {
	f := repository.TaskFilter{
		TourID: strings.TrimSpace(c.QueryParam("tour_id")),
		ShowID: strings.TrimSpace(c.QueryParam("show_id")),
		Status: model.TaskStatus(strings.TrimSpace(c.QueryParam("status"))),
	}
	if f.Status != "" && !f.Status.Valid() {
		return badRequest(c, "invalid status filter")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tasks, err := h.Tasks.List(ctx, middleware.UserID(c), f)
	if err != nil {
		return fail(c, h.Log, "list tasks", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.GetByIDAndOwner(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "get task", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Update(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.GetByIDAndOwner(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "update task", err)
	}
	if err := patch.Apply(t); err != nil {
		return fail(c, h.Log, "update task", err)
	}
	if patch.TourID != nil || patch.ShowID != nil {
		if t.TourID, err = linkTour(ctx, h.Tours, h.Shows, t.TourID, t.ShowID, t.OwnerID); err != nil {
			return fail(c, h.Log, "update task", err)
		}
	}
	if err := h.Tasks.Update(ctx, t); err != nil {
		return fail(c, h.Log, "update task", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tasks.Delete(ctx, param(c, "id"), middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete task", err)
	}
	return c.NoContent(http.StatusNoContent)
}
