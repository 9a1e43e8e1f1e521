package cli

import (
	"context"

	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/store"
)

// storeTranscript keeps the assistant conversation in the workspace
// snapshot. The workspace has a single user, so userID is ignored.
type storeTranscript struct{ s *store.Store }

func (t storeTranscript) Append(ctx context.Context, _ uint64, msgs ...model.ChatMessage) error {
	for _, m := range msgs {
		if _, err := t.s.AddChatMessage(ctx, m.Role, m.Content); err != nil {
			return err
		}
	}
	return nil
}

func (t storeTranscript) Recent(_ context.Context, _ uint64, n int) ([]model.ChatMessage, error) {
	chat := t.s.Snapshot().Chat
	if n > 0 && len(chat) > n {
		chat = chat[len(chat)-n:]
	}
	return chat, nil
}

func (t storeTranscript) Clear(ctx context.Context, _ uint64) error { return t.s.ClearChat(ctx) }
