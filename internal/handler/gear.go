package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
)

// GearHandler serves the gear inventory and input lists of the caller.
type GearHandler struct {
	Gear   *repository.GearRepo
	Inputs *repository.InputListRepo
	Tours  *repository.TourRepo
	Log    *zap.Logger
}

func NewGearHandler(gear *repository.GearRepo, inputs *repository.InputListRepo, tours *repository.TourRepo, log *zap.Logger) *GearHandler {
	return &GearHandler{Gear: gear, Inputs: inputs, Tours: tours, Log: orNop(log)}
}

func (h *GearHandler) Create(c echo.Context) error {
	var patch model.GearPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	if patch.Name == nil {
		return badRequest(c, "name required")
	}
	g := model.GearItem{OwnerID: middleware.UserID(c)}
	g.Normalize()
	if err := patch.Apply(&g); err != nil {
		return fail(c, h.Log, "create gear", err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Gear.Create(ctx, &g); err != nil {
		return fail(c, h.Log, "create gear", err)
	}
	return c.JSON(http.StatusCreated, g)
}

// gearFilter reads ?category=&fly_pack=&q= from the query string.
func gearFilter(c echo.Context) (repository.GearFilter, error) {
	f := repository.GearFilter{
		Category: model.GearCategory(strings.ToLower(strings.TrimSpace(c.QueryParam("category")))),
		Search:   c.QueryParam("q"),
	}
	if f.Category != "" && !f.Category.Valid() {
		return f, model.ErrInvalid
	}
	if v := c.QueryParam("fly_pack"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, model.ErrInvalid
		}
		f.FlyPack = &b
	}
	return f, nil
}

func (h *GearHandler) List(c echo.Context) error {
	f, err := gearFilter(c)
	if err != nil {
		return badRequest(c, "invalid category or fly_pack filter")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Gear.List(ctx, middleware.UserID(c), f)
	if err != nil {
		return fail(c, h.Log, "list gear", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Manifest totals the caller's gear split into fly pack and ground.
func (h *GearHandler) Manifest(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Gear.List(ctx, middleware.UserID(c), repository.GearFilter{})
	if err != nil {
		return fail(c, h.Log, "gear manifest", err)
	}
	return c.JSON(http.StatusOK, model.BuildManifest(items))
}

func (h *GearHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Gear.GetByIDAndOwner(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "get gear", err)
	}
	return c.JSON(http.StatusOK, g)
}

// modify loads the caller's item, applies change and saves it.
func (h *GearHandler) modify(c echo.Context, op string, change func(*model.GearItem) error) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Gear.GetByIDAndOwner(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, op, err)
	}
	if err := change(g); err != nil {
		return fail(c, h.Log, op, err)
	}
	if err := h.Gear.Update(ctx, g); err != nil {
		return fail(c, h.Log, op, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *GearHandler) Update(c echo.Context) error {
	var patch model.GearPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.modify(c, "update gear", patch.Apply)
}

// CycleCondition advances excellent → good → fair → needs_repair → excellent.
func (h *GearHandler) CycleCondition(c echo.Context) error {
	return h.modify(c, "cycle condition", func(g *model.GearItem) error {
		g.Condition = g.Condition.Next()
		return nil
	})
}

func (h *GearHandler) ToggleFlyPack(c echo.Context) error {
	return h.modify(c, "toggle fly pack", func(g *model.GearItem) error {
		g.FlyPack = !g.FlyPack
		return nil
	})
}

func (h *GearHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Gear.Delete(ctx, param(c, "id"), middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete gear", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createInputListReq struct {
	Name     string               `json:"name"`
	TourID   string               `json:"tour_id"`
	Channels []model.InputChannel `json:"channels"`
}

// CreateInputList stores a list with all 32 channels; channels in the body
// are laid over blank ones.
func (h *GearHandler) CreateInputList(c echo.Context) error {
	var req createInputListReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	for _, ch := range req.Channels {
		if !model.ValidChannel(ch.Number) {
			return badRequest(c, model.ErrChannelRange.Error())
		}
	}
	l := model.InputList{
		OwnerID:  middleware.UserID(c),
		TourID:   strings.TrimSpace(req.TourID),
		Name:     strings.TrimSpace(req.Name),
		Channels: req.Channels,
	}
	if l.Name == "" {
		l.Name = "Input List"
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := linkTour(ctx, h.Tours, nil, l.TourID, "", l.OwnerID); err != nil {
		return fail(c, h.Log, "create input list", err)
	}
	if err := h.Inputs.Create(ctx, &l); err != nil {
		return fail(c, h.Log, "create input list", err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *GearHandler) ListInputLists(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	lists, err := h.Inputs.List(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "list input lists", err)
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *GearHandler) GetInputList(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.Inputs.GetByIDAndOwner(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "get input list", err)
	}
	return c.JSON(http.StatusOK, l)
}

// UpdateChannel patches one of the 32 channels of a list.
func (h *GearHandler) UpdateChannel(c echo.Context) error {
	n, err := strconv.Atoi(param(c, "n"))
	if err != nil || !model.ValidChannel(n) {
		return badRequest(c, model.ErrChannelRange.Error())
	}
	var patch model.ChannelPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	uid := middleware.UserID(c)
	l, err := h.Inputs.GetByIDAndOwner(ctx, param(c, "id"), uid)
	if err != nil {
		return fail(c, h.Log, "update channel", err)
	}
	ch := l.Channels[n-1]
	patch.Apply(&ch)
	if err := h.Inputs.UpdateChannel(ctx, l.ID, uid, ch); err != nil {
		return fail(c, h.Log, "update channel", err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *GearHandler) DeleteInputList(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Inputs.Delete(ctx, param(c, "id"), middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete input list", err)
	}
	return c.NoContent(http.StatusNoContent)
}
