package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
	"github.com/tourflow/tourflow/internal/utils"
)

// AuthHandler issues and revokes access and refresh tokens.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: orNop(log)}
}

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

// issue mints an access/refresh pair for u and stores the refresh hash.
// When oldHash is set the previous refresh token is rotated out atomically.
func (h *AuthHandler) issue(c echo.Context, u model.User, oldHash string, status int) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, h.Log, "issue access", err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, h.Log, "issue refresh", err)
	}
	newHash := utils.HashToken(refresh.Raw)
	if oldHash != "" {
		err = h.Tokens.Rotate(ctx, u.ID, oldHash, newHash, refresh.Exp)
	} else {
		err = h.Tokens.StoreRefresh(ctx, u.ID, newHash, refresh.Exp)
	}
	if err != nil {
		return fail(c, h.Log, "save refresh", err)
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Register creates an engineer account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if !strings.Contains(req.Email, "@") {
		return badRequest(c, "invalid email")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	uid, err := h.Users.Create(ctx, req.Email, req.Name, req.Password, model.RoleEngineer, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, h.Log, "create user", err)
	}
	now := time.Now().UTC()
	u := model.User{
		ID: uid, Email: req.Email, Name: strings.TrimSpace(req.Name), Role: model.RoleEngineer,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	return h.issue(c, u, "", http.StatusCreated)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return fail(c, h.Log, "login", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(c, u, "", http.StatusOK)
}

// refreshUser resolves the live owner of the refresh token in the body. On
// failure the response is already written and the returned user is zero.
func (h *AuthHandler) refreshUser(c echo.Context) (model.User, string, error) {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return model.User{}, "", badRequest(c, "refresh_token required")
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()
	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return model.User{}, "", fail(c, h.Log, "validate refresh", err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && !u.IsActive) {
		return model.User{}, "", c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return model.User{}, "", fail(c, h.Log, "load user", err)
	}
	return u, hash, nil
}

// Refresh rotates the refresh token and issues a new pair. A replayed
// refresh token is rejected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	u, hash, err := h.refreshUser(c)
	if u.ID == 0 {
		return err
	}
	return h.issue(c, u, hash, http.StatusOK)
}

// RefreshAccess issues a new access token and keeps the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	u, _, err := h.refreshUser(c)
	if u.ID == 0 {
		return err
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, h.Log, "issue access", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when no refresh token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid = id
		}
	}
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch {
	case raw != "":
		hash := utils.HashToken(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return fail(c, h.Log, "logout", err)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return fail(c, h.Log, "logout", err)
		}
	case uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return fail(c, h.Log, "logout", err)
		}
	default:
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "load user", err)
	}
	return c.JSON(http.StatusOK, u)
}
