package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/daysheet"
	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
)

// TourHandler serves tours, their shows and settlements.
type TourHandler struct {
	Tours *repository.TourRepo
	Shows *repository.ShowRepo
	Log   *zap.Logger
	Now   func() time.Time
}

func NewTourHandler(tours *repository.TourRepo, shows *repository.ShowRepo, log *zap.Logger) *TourHandler {
	if tours == nil || shows == nil {
		panic("nil repository passed to NewTourHandler")
	}
	return &TourHandler{Tours: tours, Shows: shows, Log: orNop(log), Now: time.Now}
}

// authorizeTour checks the caller's access to a tour. Tours the caller
// cannot see are reported as not found; edit requires owner or admin.
func authorizeTour(ctx context.Context, tours *repository.TourRepo, tourID string, uid uint64, edit bool) (string, error) {
	access, err := tours.Access(ctx, tourID, uid)
	if err != nil {
		return access, err
	}
	if access == model.AccessNone {
		return access, repository.ErrTourNotFound
	}
	if edit && !model.CanEdit(access) {
		return access, repository.ErrForbidden
	}
	return access, nil
}

// linkTour checks the tour and show a record is being attached to. Both
// must exist and be visible to the caller; an empty tourID is taken from
// the show. It returns the tour id to store.
func linkTour(ctx context.Context, tours *repository.TourRepo, shows *repository.ShowRepo, tourID, showID string, uid uint64) (string, error) {
	if showID != "" {
		s, err := shows.GetByID(ctx, showID)
		if err != nil {
			return "", err
		}
		if tourID == "" {
			tourID = s.TourID
		} else if tourID != s.TourID {
			return "", fmt.Errorf("%w: show_id belongs to another tour", model.ErrInvalid)
		}
	}
	if tourID == "" {
		return "", nil
	}
	if _, err := authorizeTour(ctx, tours, tourID, uid, false); err != nil {
		return "", err
	}
	return tourID, nil
}

type createTourReq struct {
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *TourHandler) Create(c echo.Context) error {
	var req createTourReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t := model.Tour{OwnerID: middleware.UserID(c), Status: model.TourUpcoming}
	patch := model.TourPatch{Name: &req.Name, Artist: &req.Artist, StartDate: &req.StartDate, EndDate: &req.EndDate}
	if err := patch.Apply(&t); err != nil {
		return fail(c, h.Log, "create tour", err)
	}
	t.Status = t.StatusOn(h.Now())

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tours.Create(ctx, &t); err != nil {
		return fail(c, h.Log, "create tour", err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TourHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tours, err := h.Tours.ListForUser(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "list tours", err)
	}
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		kept := tours[:0]
		for _, t := range tours {
			if string(t.Status) == s {
				kept = append(kept, t)
			}
		}
		tours = kept
	}
	return c.JSON(http.StatusOK, tours)
}

func (h *TourHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, id, middleware.UserID(c), false); err != nil {
		return fail(c, h.Log, "get tour", err)
	}
	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, "get tour", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) Update(c echo.Context) error {
	var patch model.TourPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, id, middleware.UserID(c), true); err != nil {
		return fail(c, h.Log, "update tour", err)
	}
	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, "update tour", err)
	}
	if err := patch.Apply(t); err != nil {
		return fail(c, h.Log, "update tour", err)
	}
	if err := h.Tours.Update(ctx, t); err != nil {
		return fail(c, h.Log, "update tour", err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete removes a tour. Only the owner may delete.
func (h *TourHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, id, middleware.UserID(c), false); err != nil {
		return fail(c, h.Log, "delete tour", err)
	}
	if err := h.Tours.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "delete tour", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TourHandler) CreateShow(c echo.Context) error {
	var patch model.ShowPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	if patch.Venue == nil || patch.Date == nil || strings.TrimSpace(*patch.Date) == "" {
		return badRequest(c, "venue and date required")
	}
	s := model.Show{TourID: param(c, "id"), Status: model.ShowScheduled}
	if err := patch.Apply(&s); err != nil {
		return fail(c, h.Log, "create show", err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := authorizeTour(ctx, h.Tours, s.TourID, middleware.UserID(c), true); err != nil {
		return fail(c, h.Log, "create show", err)
	}
	if err := h.Shows.Create(ctx, &s); err != nil {
		return fail(c, h.Log, "create show", err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *TourHandler) ListShows(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, id, middleware.UserID(c), false); err != nil {
		return fail(c, h.Log, "list shows", err)
	}
	shows, err := h.Shows.ListByTour(ctx, id)
	if err != nil {
		return fail(c, h.Log, "list shows", err)
	}
	return c.JSON(http.StatusOK, shows)
}

// loadShow fetches the show in :id and checks access to its tour.
func (h *TourHandler) loadShow(ctx context.Context, c echo.Context, edit bool) (*model.Show, error) {
	s, err := h.Shows.GetByID(ctx, param(c, "id"))
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTour(ctx, h.Tours, s.TourID, middleware.UserID(c), edit); err != nil {
		if err == repository.ErrTourNotFound {
			return nil, repository.ErrShowNotFound
		}
		return nil, err
	}
	return s, nil
}

func (h *TourHandler) GetShow(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, false)
	if err != nil {
		return fail(c, h.Log, "get show", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *TourHandler) UpdateShow(c echo.Context) error {
	var patch model.ShowPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, true)
	if err != nil {
		return fail(c, h.Log, "update show", err)
	}
	if err := patch.Apply(s); err != nil {
		return fail(c, h.Log, "update show", err)
	}
	if err := h.Shows.Update(ctx, s); err != nil {
		return fail(c, h.Log, "update show", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *TourHandler) DeleteShow(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, true)
	if err != nil {
		return fail(c, h.Log, "delete show", err)
	}
	if err := h.Shows.Delete(ctx, s.ID); err != nil {
		return fail(c, h.Log, "delete show", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type settlementReq struct {
	GuaranteeCents int64   `json:"guarantee_cents"`
	GrossCents     int64   `json:"gross_cents"`
	ExpensesCents  int64   `json:"expenses_cents"`
	Percentage     float64 `json:"percentage"`
	MerchCents     int64   `json:"merch_cents"`
	Notes          string  `json:"notes"`
}

type settlementResp struct {
	model.Settlement
	NetCents    int64 `json:"net_cents"`
	PayoutCents int64 `json:"payout_cents"`
}

func newSettlementResp(st model.Settlement) settlementResp {
	return settlementResp{Settlement: st, NetCents: st.NetCents(), PayoutCents: st.PayoutCents()}
}

// PutSettlement records the end-of-night numbers of a show.
func (h *TourHandler) PutSettlement(c echo.Context) error {
	var req settlementReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	st := model.Settlement{
		GuaranteeCents: req.GuaranteeCents,
		GrossCents:     req.GrossCents,
		ExpensesCents:  req.ExpensesCents,
		Percentage:     req.Percentage,
		MerchCents:     req.MerchCents,
		Notes:          req.Notes,
	}
	if !st.Valid() {
		return badRequest(c, "amounts must be non-negative and percentage 0-100")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, true)
	if err != nil {
		return fail(c, h.Log, "save settlement", err)
	}
	st.ShowID = s.ID
	if err := h.Shows.UpsertSettlement(ctx, &st); err != nil {
		return fail(c, h.Log, "save settlement", err)
	}
	return c.JSON(http.StatusOK, newSettlementResp(st))
}

func (h *TourHandler) GetSettlement(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, false)
	if err != nil {
		return fail(c, h.Log, "get settlement", err)
	}
	if s.Settlement == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no settlement recorded"})
	}
	return c.JSON(http.StatusOK, newSettlementResp(*s.Settlement))
}

// DaySheet renders the schedule document of a show.
func (h *TourHandler) DaySheet(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.loadShow(ctx, c, false)
	if err != nil {
		return fail(c, h.Log, "day sheet", err)
	}
	t, err := h.Tours.GetByID(ctx, s.TourID)
	if err != nil {
		return fail(c, h.Log, "day sheet", err)
	}
	content := daysheet.Render(*t, *s)
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, content)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"name":    daysheet.Title(*t, *s),
		"type":    model.DocDaySheet,
		"content": content,
	})
}
