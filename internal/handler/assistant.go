package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/assistant"
	"github.com/tourflow/tourflow/internal/metrics"
	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
)

// AssistantHandler fronts the chat assistant. Completion failures are
// reported in the body, never through the status code.
type AssistantHandler struct {
	Assistant *assistant.Assistant
	Tours     *repository.TourRepo
	Log       *zap.Logger
}

func NewAssistantHandler(a *assistant.Assistant, tours *repository.TourRepo, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{Assistant: a, Tours: tours, Log: orNop(log)}
}

// assistantTimeout covers the completion round trip, which is slower than
// the database calls the other handlers make.
const assistantTimeout = 60 * time.Second

func (h *AssistantHandler) Send(c echo.Context) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "content required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), assistantTimeout)
	defer cancel()

	uid := middleware.UserID(c)
	var tours []model.Tour
	if h.Tours != nil {
		var err error
		if tours, err = h.Tours.ListForUser(ctx, uid); err != nil {
			h.Log.Warn("assistant tour context unavailable", zap.Error(err))
		}
	}

	reply, err := h.Assistant.Send(ctx, uid, strings.TrimSpace(req.Content), tours)
	if err != nil {
		h.Log.Error("assistant send failed", zap.Uint64("user_id", uid), zap.Error(err))
		now := time.Now().UTC()
		reply = assistant.Reply{
			User:      model.ChatMessage{ID: model.NewID(), Role: model.ChatUser, Content: req.Content, Timestamp: now},
			Assistant: model.ChatMessage{ID: model.NewID(), Role: model.ChatAssistant, Content: assistant.FallbackReply, Timestamp: now},
			Failed:    true,
		}
	}
	metrics.ObserveAssistant(reply.Failed)
	return c.JSON(http.StatusOK, reply)
}

func (h *AssistantHandler) History(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	msgs, err := h.Assistant.History(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.Log, "load transcript", err)
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *AssistantHandler) Clear(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Assistant.Clear(ctx, middleware.UserID(c)); err != nil {
		return fail(c, h.Log, "clear transcript", err)
	}
	return c.NoContent(http.StatusNoContent)
}
