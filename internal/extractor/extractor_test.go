package extractor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pagechat-backend/internal/browser"
	"pagechat-backend/internal/config"
	"pagechat-backend/internal/storage"
)

type fakeBrowser struct {
	mu       sync.Mutex
	tab      *browser.Tab
	html     string
	htmlErr  error
	htmlHits int
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) (*browser.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tab = &browser.Tab{ID: "1", URL: url}
	return b.tab, nil
}

func (b *fakeBrowser) ActiveTab(context.Context) (*browser.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tab == nil {
		return nil, browser.ErrNoActiveTab
	}
	tab := *b.tab
	return &tab, nil
}

func (b *fakeBrowser) DocumentHTML(context.Context, *browser.Tab) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.htmlHits++
	return b.html, b.htmlErr
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.htmlHits
}

const articleHTML = `<html><head><title>Example</title></head><body>
<nav><a href="/">Home</a></nav>
<article>
<p>Foxes are small omnivorous mammals, found on every continent except Antarctica, and they adapt well to cities.</p>
<p>They hunt at dusk, listen for prey under the snow, and pounce with remarkable precision when the moment comes.</p>
<p>Most species live in small family groups, and the young leave the den after roughly seven months of care.</p>
<p>Their diet changes with the seasons, ranging from rodents and birds to berries, insects and human leftovers.</p>
<p>In folklore, the fox is a trickster, clever and quick, appearing in fables across many different cultures.</p>
</article></body></html>`

func newTestExtractor(b *fakeBrowser, cfg config.ExtractConfig) (*Extractor, *storage.MemoryContentCache) {
	cache := storage.NewMemoryContentCache()
	return New(b, cache, cfg), cache
}

func TestExtractSuccessAndCache(t *testing.T) {
	b := &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com/article"}, html: articleHTML}
	e, cache := newTestExtractor(b, config.ExtractConfig{})

	content, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if content.SourceURL != "https://example.com/article" {
		t.Errorf("SourceURL = %q", content.SourceURL)
	}
	if content.Title != "Example" {
		t.Errorf("Title = %q, want Example", content.Title)
	}
	if !strings.Contains(content.TextContent, "Foxes are small") {
		t.Errorf("TextContent missing article: %q", content.TextContent)
	}
	if content.Length != len([]rune(content.TextContent)) {
		t.Errorf("Length = %d, want %d", content.Length, len([]rune(content.TextContent)))
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}

	again, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if again != content {
		t.Error("second Extract should return the cached value")
	}
	if b.hits() != 1 {
		t.Errorf("DocumentHTML called %d times, want 1", b.hits())
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		browser *fakeBrowser
		cfg     config.ExtractConfig
		want    error
	}{
		{
			name:    "no tab",
			browser: &fakeBrowser{},
			want:    ErrNoTab,
		},
		{
			name:    "retrieval failure",
			browser: &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com"}, htmlErr: errors.New("script injection blocked")},
			want:    ErrEmptyContent,
		},
		{
			name:    "blank document",
			browser: &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com"}, html: "  \n"},
			want:    ErrEmptyContent,
		},
		{
			name:    "nothing readable",
			browser: &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com"}, html: "<html><body><script>x()</script></body></html>"},
			want:    ErrUnparseable,
		},
		{
			name:    "oversized rejected",
			browser: &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com"}, html: articleHTML},
			cfg:     config.ExtractConfig{MaxHTMLBytes: 64, RejectOversized: true},
			want:    ErrOversized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, cache := newTestExtractor(tt.browser, tt.cfg)
			_, err := e.Extract(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var extractionErr *ExtractionError
			if !errors.As(err, &extractionErr) {
				t.Fatalf("err %T is not *ExtractionError", err)
			}
			if !strings.HasPrefix(extractionErr.Notice(), "⚠️") {
				t.Errorf("Notice = %q", extractionErr.Notice())
			}
			if cache.Len() != 0 {
				t.Errorf("failed extraction populated the cache")
			}
		})
	}
}

func TestExtractTruncatesOversizedHTML(t *testing.T) {
	padding := strings.Repeat("<!-- filler -->", 100)
	html := articleHTML + padding
	b := &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com"}, html: html}
	e, _ := newTestExtractor(b, config.ExtractConfig{MaxHTMLBytes: len(articleHTML) + 10})

	content, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(content.TextContent, "trickster") {
		t.Errorf("content before the cap should survive: %q", content.TextContent)
	}
}

func TestCapHTMLKeepsRuneBoundary(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		limit     int
		want      string
		truncated bool
	}{
		{"under", "abc", 5, "abc", false},
		{"exact", "abcde", 5, "abcde", false},
		{"ascii cut", "abcdef", 5, "abcde", true},
		{"mid rune", "ab€", 4, "ab", true},
		{"rune end", "ab€x", 5, "ab€", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := capHTML(tt.in, tt.limit)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("capHTML(%q, %d) = %q, %v; want %q, %v", tt.in, tt.limit, got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

func TestRunSweepsExpiredPages(t *testing.T) {
	b := &fakeBrowser{tab: &browser.Tab{ID: "1", URL: "https://example.com/article"}, html: articleHTML}

	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	cache := storage.NewMemoryContentCacheWithClock(clock)
	e := New(b, cache, config.ExtractConfig{CacheTTL: time.Minute, SweepInterval: 5 * time.Millisecond})
	e.now = clock

	if _, err := e.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for cache.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not evict the expired page")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
