// Package browser provides the "active tab" the extractor reads from: a
// headless Chrome tab driven through chromedp, or a plain HTTP fetch.
package browser

import (
	"context"
	"errors"
	"fmt"

	"pagechat-backend/internal/config"
)

// ErrNoActiveTab is returned before any page has been opened.
var ErrNoActiveTab = errors.New("browser: no active tab")

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Tab struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

type Browser interface {
	// Navigate points the active tab at url and waits for it to load.
	Navigate(ctx context.Context, url string) (*Tab, error)
	ActiveTab(ctx context.Context) (*Tab, error)
	// DocumentHTML returns the serialized document of tab.
	DocumentHTML(ctx context.Context, tab *Tab) (string, error)
	Close() error
}

// New returns the tab source selected by cfg.Mode. maxBytes bounds how much
// of a document the HTTP source reads.
func New(cfg config.BrowserConfig, maxBytes int) (Browser, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	switch cfg.Mode {
	case "chrome":
		return NewChrome(cfg)
	case "http", "":
		return NewHTTP(cfg, maxBytes), nil
	default:
		return nil, fmt.Errorf("unsupported browser mode: %s", cfg.Mode)
	}
}
