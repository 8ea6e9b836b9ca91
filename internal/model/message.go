package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry. Entries are never mutated after
// they are appended.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

const timestampLayout = "15:04:05"

func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(timestampLayout),
	}
}

// PromptMessage is the role/content pair that goes over the wire and into
// the response-cache fingerprint.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
