package utils

import (
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt sizes for logging. The encoding is fetched
// by Load, which may block on the network; Estimate never waits for it and
// reports false until the encoding is available.
type TokenCounter struct {
	model string

	once sync.Once
	enc  atomic.Pointer[tiktoken.Tiktoken]
}

func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

// Load resolves the encoding for the model, falling back to cl100k_base.
// Later calls are no-ops.
func (c *TokenCounter) Load() error {
	var err error
	c.once.Do(func() {
		var enc *tiktoken.Tiktoken
		enc, err = tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return
			}
		}
		c.enc.Store(enc)
	})
	return err
}

func (c *TokenCounter) Estimate(text string) (int, bool) {
	enc := c.enc.Load()
	if enc == nil {
		return 0, false
	}
	return len(enc.Encode(text, nil, nil)), true
}
