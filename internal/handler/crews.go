package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
)

// CrewHandler manages crews, their members and the documents shared with
// them.
type CrewHandler struct {
	Crews *repository.CrewRepo
	Docs  *repository.DocumentRepo
	Log   *zap.Logger
}

func NewCrewHandler(crews *repository.CrewRepo, docs *repository.DocumentRepo, log *zap.Logger) *CrewHandler {
	return &CrewHandler{Crews: crews, Docs: docs, Log: orNop(log)}
}

func (h *CrewHandler) authorize(ctx context.Context, c echo.Context, edit bool) (string, error) {
	access, err := h.Crews.Access(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return access, err
	}
	if access == model.AccessNone {
		return access, repository.ErrCrewNotFound
	}
	if edit && !model.CanEdit(access) {
		return access, repository.ErrForbidden
	}
	return access, nil
}

func (h *CrewHandler) Create(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	crew := model.Crew{OwnerID: middleware.UserID(c), Name: strings.TrimSpace(req.Name)}
	if crew.Name == "" {
		return badRequest(c, "name required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Crews.Create(ctx, &crew); err != nil {
		return fail(c, h.Log, "create crew", err)
	}
	return c.JSON(http.StatusCreated, crew)
}

func (h *CrewHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	crews, err := h.Crews.ListForUser(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "list crews", err)
	}
	return c.JSON(http.StatusOK, crews)
}

func (h *CrewHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.authorize(ctx, c, false); err != nil {
		return fail(c, h.Log, "get crew", err)
	}
	crew, err := h.Crews.GetByID(ctx, param(c, "id"))
	if err != nil {
		return fail(c, h.Log, "get crew", err)
	}
	return c.JSON(http.StatusOK, crew)
}

func (h *CrewHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.authorize(ctx, c, false); err != nil {
		return fail(c, h.Log, "delete crew", err)
	}
	if err := h.Crews.Delete(ctx, param(c, "id"), middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete crew", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addCrewMemberReq struct {
	UserID   uint64         `json:"user_id"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Position string         `json:"position"`
	Role     model.CrewRole `json:"role"`
}

// AddMember links a person by account id or email. Emails of existing
// accounts are resolved to the account.
func (h *CrewHandler) AddMember(c echo.Context) error {
	var req addCrewMemberReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.UserID == 0 && strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "user_id or email required")
	}
	if req.Role == "" {
		req.Role = model.CrewMember
	}
	if !req.Role.Valid() {
		return badRequest(c, "role must be admin or member")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.authorize(ctx, c, true); err != nil {
		return fail(c, h.Log, "add crew member", err)
	}
	m := model.CrewMemberLink{
		CrewID:   param(c, "id"),
		UserID:   req.UserID,
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Position: strings.TrimSpace(req.Position),
		Role:     req.Role,
	}
	if err := h.Crews.AddMember(ctx, &m); err != nil {
		return fail(c, h.Log, "add crew member", err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *CrewHandler) RemoveMember(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.authorize(ctx, c, true); err != nil {
		return fail(c, h.Log, "remove crew member", err)
	}
	if err := h.Crews.RemoveMember(ctx, param(c, "id"), param(c, "member_id")); err != nil {
		return fail(c, h.Log, "remove crew member", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ShareDocument shares one of the caller's own documents with the crew.
func (h *CrewHandler) ShareDocument(c echo.Context) error {
	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.DocumentID) == "" {
		return badRequest(c, "document_id required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.authorize(ctx, c, true); err != nil {
		return fail(c, h.Log, "share document", err)
	}
	uid := middleware.UserID(c)
	doc, err := h.Docs.GetForUser(ctx, strings.TrimSpace(req.DocumentID), uid)
	if err != nil {
		return fail(c, h.Log, "share document", err)
	}
	if doc.OwnerID != uid {
		return fail(c, h.Log, "share document", repository.ErrForbidden)
	}
	shared, err := h.Crews.ShareDocument(ctx, param(c, "id"), doc.ID)
	if err != nil {
		return fail(c, h.Log, "share document", err)
	}
	return c.JSON(http.StatusCreated, shared)
}
