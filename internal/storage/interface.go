package storage

import (
	"time"

	"pagechat-backend/internal/model"
)

// Transcript is the append-only conversation log.
type Transcript interface {
	Append(message model.ChatMessage) error
	List() []model.ChatMessage
	Len() int
	Clear()
}

// ContentCache memoizes extracted pages by URL. Every entry expires on its
// own; Sweep removes the expired ones.
type ContentCache interface {
	Get(url string) (*model.ExtractedContent, error)
	Put(content *model.ExtractedContent, ttl time.Duration) error
	Sweep(now time.Time) int
	Len() int
	Clear()
}

// ResponseCache maps a request fingerprint to the assistant's answer.
type ResponseCache interface {
	Get(fingerprint string) (string, bool)
	Put(fingerprint, response string)
	Len() int
	Clear()
}
