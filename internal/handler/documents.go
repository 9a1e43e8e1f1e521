package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/parser"
	"github.com/tourflow/tourflow/internal/repository"
)

// DocumentHandler stores documents and imports pasted text into records.
type DocumentHandler struct {
	Docs   *repository.DocumentRepo
	Gear   *repository.GearRepo
	Inputs *repository.InputListRepo
	Tours  *repository.TourRepo
	Log    *zap.Logger
}

func NewDocumentHandler(docs *repository.DocumentRepo, gear *repository.GearRepo, inputs *repository.InputListRepo, tours *repository.TourRepo, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{Docs: docs, Gear: gear, Inputs: inputs, Tours: tours, Log: orNop(log)}
}

type documentReq struct {
	Name    string        `json:"name"`
	Type    model.DocType `json:"type"`
	Content string        `json:"content"`
	TourID  string        `json:"tour_id"`
}

func (h *DocumentHandler) Create(c echo.Context) error {
	var req documentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	d := model.Document{
		OwnerID: middleware.UserID(c),
		TourID:  strings.TrimSpace(req.TourID),
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		Content: req.Content,
	}
	if d.Name == "" {
		return badRequest(c, "name required")
	}
	if !d.Type.Valid() {
		return badRequest(c, "invalid document type")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := linkTour(ctx, h.Tours, nil, d.TourID, "", d.OwnerID); err != nil {
		return fail(c, h.Log, "create document", err)
	}
	if err := h.Docs.Create(ctx, &d); err != nil {
		return fail(c, h.Log, "create document", err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DocumentHandler) List(c echo.Context) error {
	typ := model.DocType(strings.TrimSpace(c.QueryParam("type")))
	if typ != "" && !typ.Valid() {
		return badRequest(c, "invalid document type")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	docs, err := h.Docs.List(ctx, middleware.UserID(c), strings.TrimSpace(c.QueryParam("tour_id")), typ)
	if err != nil {
		return fail(c, h.Log, "list documents", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// Get returns an owned document or one shared through a crew.
func (h *DocumentHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Docs.GetForUser(ctx, param(c, "id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "get document", err)
	}
	return c.JSON(http.StatusOK, d)
}

// Update edits a document. Shared readers may not edit.
func (h *DocumentHandler) Update(c echo.Context) error {
	var patch model.DocumentPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	uid := middleware.UserID(c)
	d, err := h.Docs.GetForUser(ctx, param(c, "id"), uid)
	if err != nil {
		return fail(c, h.Log, "update document", err)
	}
	if d.OwnerID != uid {
		return fail(c, h.Log, "update document", repository.ErrForbidden)
	}
	if err := patch.Apply(d); err != nil {
		return fail(c, h.Log, "update document", err)
	}
	if patch.TourID != nil {
		if _, err := linkTour(ctx, h.Tours, nil, d.TourID, "", uid); err != nil {
			return fail(c, h.Log, "update document", err)
		}
	}
	if err := h.Docs.Update(ctx, d); err != nil {
		return fail(c, h.Log, "update document", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DocumentHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Docs.Delete(ctx, param(c, "id"), middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete document", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Parse runs the text parser for :type on the request body without storing
// anything. The body is the raw text, or JSON {"content": "..."}.
func (h *DocumentHandler) Parse(c echo.Context) error {
	typ := model.DocType(param(c, "type"))
	text, err := bodyText(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}
	return c.JSON(http.StatusOK, parser.Parse(typ, text))
}

const maxPasteBytes = 1 << 20

func bodyText(c echo.Context) (string, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.Bind(&req); err != nil {
			return "", err
		}
		return req.Content, nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPasteBytes))
	return string(raw), err
}

type importResp struct {
	Document  model.Document        `json:"document"`
	Parsed    parser.ParsedDocument `json:"parsed"`
	InputList *model.InputList      `json:"input_list,omitempty"`
	Gear      []model.GearItem      `json:"gear,omitempty"`
}

// Import stores pasted text as a document and materializes what the parser
// recognised: an input list becomes a 32-channel list, a gear list becomes
// inventory. Gear lists are stored as advance documents.
func (h *DocumentHandler) Import(c echo.Context) error {
	var req documentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Type != model.DocGearList && !req.Type.Valid() {
		return badRequest(c, "invalid document type")
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "content required")
	}
	parsed := parser.Parse(req.Type, req.Content)

	uid := middleware.UserID(c)
	doc := model.Document{
		OwnerID: uid,
		TourID:  strings.TrimSpace(req.TourID),
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		Content: req.Content,
	}
	if doc.Type == model.DocGearList {
		doc.Type = model.DocAdvance
	}
	if doc.Name == "" {
		doc.Name = "Imported " + strings.ReplaceAll(string(req.Type), "_", " ")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := linkTour(ctx, h.Tours, nil, doc.TourID, "", uid); err != nil {
		return fail(c, h.Log, "import document", err)
	}
	if err := h.Docs.Create(ctx, &doc); err != nil {
		return fail(c, h.Log, "import document", err)
	}
	resp := importResp{Document: doc, Parsed: parsed}

	switch {
	case len(parsed.Channels) > 0:
		l := model.InputList{OwnerID: uid, TourID: doc.TourID, Name: doc.Name, Channels: parsed.Channels}
		if err := h.Inputs.Create(ctx, &l); err != nil {
			return fail(c, h.Log, "import input list", err)
		}
		resp.InputList = &l
	case len(parsed.Gear) > 0:
		items, err := h.Gear.CreateMany(ctx, uid, parsed.Gear)
		if err != nil {
			return fail(c, h.Log, "import gear", err)
		}
		resp.Gear = items
	}
	return c.JSON(http.StatusCreated, resp)
}
