package storage

import (
	"fmt"
	"sync"
	"time"

	"pagechat-backend/internal/model"
)

type contentEntry struct {
	content   *model.ExtractedContent
	expiresAt time.Time
}

type MemoryContentCache struct {
	entries map[string]*contentEntry
	now     func() time.Time
	mu      sync.RWMutex
}

func NewMemoryContentCache() *MemoryContentCache {
	return NewMemoryContentCacheWithClock(time.Now)
}

func NewMemoryContentCacheWithClock(now func() time.Time) *MemoryContentCache {
	return &MemoryContentCache{
		entries: make(map[string]*contentEntry),
		now:     now,
	}
}

func (c *MemoryContentCache) Get(url string) (*model.ExtractedContent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[url]
	if !exists {
		return nil, ErrNotFound
	}
	if !c.now().Before(entry.expiresAt) {
		return nil, ErrExpired
	}
	return entry.content, nil
}

// Put stores content under its SourceURL, replacing any previous entry and
// restarting its expiry.
func (c *MemoryContentCache) Put(content *model.ExtractedContent, ttl time.Duration) error {
	if content == nil || content.SourceURL == "" {
		return fmt.Errorf("%w: content without source url", ErrInvalidData)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidData)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[content.SourceURL] = &contentEntry{
		content:   content,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryContentCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for url, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}

func (c *MemoryContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryContentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*contentEntry)
}
