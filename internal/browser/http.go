package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"pagechat-backend/internal/config"
	"pagechat-backend/internal/utils"
	"pagechat-backend/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// HTTPBrowser emulates a tab by fetching the page without running scripts.
// The fetched document is kept until the next Navigate.
type HTTPBrowser struct {
	client    *http.Client
	userAgent string
	maxBytes  int

	mu     sync.RWMutex
	active *Tab
	html   string
}

func NewHTTP(cfg config.BrowserConfig, maxBytes int) *HTTPBrowser {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPBrowser{
		client:    utils.NewHTTPClient(cfg.Timeout),
		userAgent: ua,
		maxBytes:  maxBytes,
	}
}

func (b *HTTPBrowser) Navigate(ctx context.Context, rawURL string) (*Tab, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	// one byte past the cap lets the caller tell an oversized page apart
	// from one that is exactly at the limit
	reader := io.Reader(resp.Body)
	if b.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, int64(b.maxBytes)+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	html := string(body)
	tab := &Tab{
		ID:    uuid.New().String(),
		URL:   resp.Request.URL.String(),
		Title: documentTitle(html),
	}

	b.mu.Lock()
	b.active = tab
	b.html = html
	b.mu.Unlock()

	logger.Debugf("http tab loaded %s (%d bytes)", tab.URL, len(body))
	copied := *tab
	return &copied, nil
}

func (b *HTTPBrowser) ActiveTab(_ context.Context) (*Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.active == nil {
		return nil, ErrNoActiveTab
	}
	tab := *b.active
	return &tab, nil
}

func (b *HTTPBrowser) DocumentHTML(_ context.Context, tab *Tab) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.active == nil {
		return "", ErrNoActiveTab
	}
	if tab == nil || tab.ID != b.active.ID {
		return "", fmt.Errorf("tab %v is no longer active", tabID(tab))
	}
	return b.html, nil
}

func (b *HTTPBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.active = nil
	b.html = ""
	b.client.CloseIdleConnections()
	return nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", rawURL)
	}
	return nil
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func tabID(tab *Tab) string {
	if tab == nil {
		return "<nil>"
	}
	return tab.ID
}
