package assistant

import (
	"context"
	"sync"

	"github.com/tourflow/tourflow/internal/model"
)

// MemoryTranscript keeps transcripts in process. Used when Redis is not
// configured, and in tests.
type MemoryTranscript struct {
	mu    sync.Mutex
	limit int
	chats map[uint64][]model.ChatMessage
}

func NewMemoryTranscript(limit int) *MemoryTranscript {
	if limit <= 0 {
		limit = 200
	}
	return &MemoryTranscript{limit: limit, chats: map[uint64][]model.ChatMessage{}}
}

func (m *MemoryTranscript) Append(_ context.Context, userID uint64, msgs ...model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := append(m.chats[userID], msgs...)
	if len(chat) > m.limit {
		chat = chat[len(chat)-m.limit:]
	}
	m.chats[userID] = chat
	return nil
}

// Recent returns the last n messages, oldest first; n <= 0 returns all.
func (m *MemoryTranscript) Recent(_ context.Context, userID uint64, n int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[userID]
	if n > 0 && len(chat) > n {
		chat = chat[len(chat)-n:]
	}
	return append([]model.ChatMessage{}, chat...), nil
}

func (m *MemoryTranscript) Clear(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, userID)
	return nil
}
