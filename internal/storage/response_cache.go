package storage

import "sync"

// FIFOResponseCache is bounded by insertion order: once full, the entry
// inserted first is dropped. Reads do not refresh an entry's position.
type FIFOResponseCache struct {
	capacity int
	order    []string
	values   map[string]string
	mu       sync.Mutex
}

func NewFIFOResponseCache(capacity int) *FIFOResponseCache {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFOResponseCache{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		values:   make(map[string]string, capacity),
	}
}

func (c *FIFOResponseCache) Get(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[fingerprint]
	return v, ok
}

// Put overwrites an existing key in place; a new key may evict the oldest.
func (c *FIFOResponseCache) Put(fingerprint, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.values[fingerprint]; exists {
		c.values[fingerprint] = response
		return
	}

	c.values[fingerprint] = response
	c.order = append(c.order, fingerprint)

	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order[0] = ""
		c.order = c.order[1:]
		delete(c.values, oldest)
	}
}

func (c *FIFOResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func (c *FIFOResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = make([]string, 0, c.capacity)
	c.values = make(map[string]string, c.capacity)
}
