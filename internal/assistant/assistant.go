package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/model"
)

// FallbackReply is shown whenever the completion call fails.
const FallbackReply = "I apologize, but I encountered an error. Please try again."

// Transcript stores the ephemeral per-user conversation.
type Transcript interface {
	Append(ctx context.Context, userID uint64, msgs ...model.ChatMessage) error
	Recent(ctx context.Context, userID uint64, n int) ([]model.ChatMessage, error)
	Clear(ctx context.Context, userID uint64) error
}

// Completer is satisfied by *Client.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Assistant struct {
	llm          Completer
	transcript   Transcript
	historyLimit int
	log          *zap.Logger
	now          func() time.Time
}

func New(llm Completer, transcript Transcript, historyLimit int, log *zap.Logger) *Assistant {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{
		llm:          llm,
		transcript:   transcript,
		historyLimit: historyLimit,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Reply is the outcome of one user message. Failed marks a fallback answer.
type Reply struct {
	User      model.ChatMessage `json:"user"`
	Assistant model.ChatMessage `json:"assistant"`
	Failed    bool              `json:"error"`
}

// Send forwards text and the recent transcript to the model and records both
// sides of the exchange. Completion errors never surface to the caller; they
// turn into the fallback reply. Only a transcript that cannot be read is an
// error.
func (a *Assistant) Send(ctx context.Context, userID uint64, text string, tours []model.Tour) (Reply, error) {
	history, err := a.transcript.Recent(ctx, userID, a.historyLimit)
	if err != nil {
		return Reply{}, fmt.Errorf("load transcript: %w", err)
	}

	now := a.now()
	userMsg := model.ChatMessage{ID: model.NewID(), Role: model.ChatUser, Content: text, Timestamp: now}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(tours, now)})
	for _, m := range history {
		msgs = append(msgs, Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, Message{Role: string(model.ChatUser), Content: text})

	out := Reply{User: userMsg}
	content, err := a.llm.Complete(ctx, msgs)
	if err != nil {
		a.log.Warn("assistant completion failed", zap.Uint64("user_id", userID), zap.Error(err))
		content = FallbackReply
		out.Failed = true
	}
	out.Assistant = model.ChatMessage{ID: model.NewID(), Role: model.ChatAssistant, Content: content, Timestamp: a.now()}

	// a lost transcript entry does not cost the caller the reply
	if err := a.transcript.Append(ctx, userID, out.User, out.Assistant); err != nil {
		a.log.Error("save transcript failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
	return out, nil
}

func (a *Assistant) History(ctx context.Context, userID uint64) ([]model.ChatMessage, error) {
	return a.transcript.Recent(ctx, userID, 0)
}

func (a *Assistant) Clear(ctx context.Context, userID uint64) error {
	return a.transcript.Clear(ctx, userID)
}

// SystemPrompt describes the assistant's role and summarizes the caller's
// tours that have not finished yet.
func SystemPrompt(tours []model.Tour, now time.Time) string {
	var b strings.Builder
	b.WriteString("You are the Tour Flow assistant, helping a touring audio engineer with tours, shows, ")
	b.WriteString("gear, input lists, riders, crew and day-of-show logistics. Be concise and practical.")

	var lines []string
	for _, t := range tours {
		if t.StatusOn(now) == model.TourCompleted {
			continue
		}
		line := fmt.Sprintf("- %s", t.Name)
		if t.Artist != "" {
			line += " (" + t.Artist + ")"
		}
		if t.StartDate != "" {
			line += fmt.Sprintf(", %s to %s", t.StartDate, t.EndDate)
		}
		line += fmt.Sprintf(", %d shows", t.ShowCount())
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("\n\nThe user's current and upcoming tours:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}
