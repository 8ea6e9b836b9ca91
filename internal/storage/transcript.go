package storage

import (
	"fmt"
	"sync"

	"pagechat-backend/internal/model"
)

type MemoryTranscript struct {
	messages []model.ChatMessage
	ids      map[string]struct{}
	mu       sync.RWMutex
}

func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{
		ids: make(map[string]struct{}),
	}
}

func (t *MemoryTranscript) Append(message model.ChatMessage) error {
	if message.ID == "" {
		return fmt.Errorf("%w: message without id", ErrInvalidData)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.ids[message.ID]; exists {
		return fmt.Errorf("%w: duplicate message id %s", ErrInvalidData, message.ID)
	}
	t.ids[message.ID] = struct{}{}
	t.messages = append(t.messages, message)
	return nil
}

// List returns a copy so callers can't reorder the log.
func (t *MemoryTranscript) List() []model.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *MemoryTranscript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *MemoryTranscript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = nil
	t.ids = make(map[string]struct{})
}
