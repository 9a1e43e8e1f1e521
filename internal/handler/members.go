package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/queue"
	"github.com/tourflow/tourflow/internal/repository"
	"github.com/tourflow/tourflow/internal/service"
	"github.com/tourflow/tourflow/internal/utils"
)

// MemberHandler manages who works on a tour.
type MemberHandler struct {
	Tours     *repository.TourRepo
	Members   *repository.MemberRepo
	Users     *repository.UserRepo
	Publisher service.InvitationPublisher
	InviteTTL time.Duration
	Log       *zap.Logger
	Now       func() time.Time
}

func NewMemberHandler(tours *repository.TourRepo, members *repository.MemberRepo, users *repository.UserRepo,
	pub service.InvitationPublisher, inviteTTL time.Duration, log *zap.Logger) *MemberHandler {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if inviteTTL <= 0 {
		inviteTTL = 72 * time.Hour
	}
	return &MemberHandler{
		Tours: tours, Members: members, Users: users, Publisher: pub,
		InviteTTL: inviteTTL, Log: orNop(log), Now: time.Now,
	}
}

// List returns the tour's members. Editors also see pending invitations.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := param(c, "id")
	access, err := authorizeTour(ctx, h.Tours, id, middleware.UserID(c), false)
	if err != nil {
		return fail(c, h.Log, "list members", err)
	}
	members, err := h.Members.List(ctx, id)
	if err != nil {
		return fail(c, h.Log, "list members", err)
	}
	resp := echo.Map{"members": members}
	if model.CanEdit(access) {
		pending, err := h.Members.PendingInvitations(ctx, id, h.Now().UTC())
		if err != nil {
			return fail(c, h.Log, "list invitations", err)
		}
		resp["invitations"] = pending
	}
	return c.JSON(http.StatusOK, resp)
}

type inviteReq struct {
	Email string         `json:"email"`
	Role  model.CrewRole `json:"role"`
}

// Invite creates an invitation and publishes invitation.created. The raw
// token is returned once; only its hash is stored.
func (h *MemberHandler) Invite(c echo.Context) error {
	var req inviteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	email := repository.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return badRequest(c, "valid email required")
	}
	if req.Role == "" {
		req.Role = model.CrewMember
	}
	if !req.Role.Valid() {
		return badRequest(c, "role must be admin or member")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	uid := middleware.UserID(c)
	tourID := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, tourID, uid, true); err != nil {
		return fail(c, h.Log, "invite", err)
	}
	tour, err := h.Tours.GetByID(ctx, tourID)
	if err != nil {
		return fail(c, h.Log, "invite", err)
	}

	raw, err := utils.RandomHex(32)
	if err != nil {
		return fail(c, h.Log, "invite", err)
	}
	inv := model.Invitation{
		TourID:    tourID,
		Email:     email,
		Role:      req.Role,
		InvitedBy: uid,
		Token:     raw,
		TokenHash: utils.HashToken(raw),
		ExpiresAt: h.Now().UTC().Add(h.InviteTTL),
	}
	if err := h.Members.CreateInvitation(ctx, &inv); err != nil {
		return fail(c, h.Log, "invite", err)
	}

	ev := queue.InvitationCreatedEvent{
		InvitationID: inv.ID,
		TourID:       tour.ID,
		TourName:     tour.Name,
		Email:        inv.Email,
		Role:         string(inv.Role),
		InvitedBy:    uid,
		Token:        raw,
		ExpiresAt:    inv.ExpiresAt.Format(time.RFC3339),
		CreatedAt:    inv.CreatedAt.Format(time.RFC3339),
	}
	// delivery is best effort; the invitation is valid either way
	_ = h.Publisher.PublishInvitationCreated(ctx, ev)

	return c.JSON(http.StatusCreated, inv)
}

type acceptReq struct {
	Token string `json:"token"`
}

// Accept redeems an invitation for the calling account, whose email must
// match the invitation.
func (h *MemberHandler) Accept(c echo.Context) error {
	var req acceptReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return badRequest(c, "token required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	uid := middleware.UserID(c)
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, h.Log, "accept invitation", err)
	}
	inv, err := h.Members.AcceptInvitation(ctx, utils.HashToken(strings.TrimSpace(req.Token)), uid, u.Email, h.Now().UTC())
	if err != nil {
		return fail(c, h.Log, "accept invitation", err)
	}
	return c.JSON(http.StatusOK, inv)
}

// Remove drops a member. Editors may remove anyone but the owner; members
// may remove themselves.
func (h *MemberHandler) Remove(c echo.Context) error {
	target, err := strconv.ParseUint(param(c, "user_id"), 10, 64)
	if err != nil || target == 0 {
		return badRequest(c, "invalid user_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	uid := middleware.UserID(c)
	tourID := param(c, "id")
	if _, err := authorizeTour(ctx, h.Tours, tourID, uid, target != uid); err != nil {
		return fail(c, h.Log, "remove member", err)
	}
	if err := h.Members.Remove(ctx, tourID, target); err != nil {
		return fail(c, h.Log, "remove member", err)
	}
	return c.NoContent(http.StatusNoContent)
}
