package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pagechat-backend/internal/config"
	"pagechat-backend/pkg/logger"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

const defaultChromeTimeout = 45 * time.Second

// ChromeBrowser drives a single Chrome tab. The rendered DOM is read back
// with document.documentElement.outerHTML, so script-built pages extract
// the same way they would inside the user's browser.
type ChromeBrowser struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	timeout    time.Duration
	settleTime time.Duration

	mu     sync.Mutex
	active *Tab
}

func NewChrome(cfg config.BrowserConfig) (*ChromeBrowser, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	}
	if cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if cfg.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// an empty Run starts the browser so launch failures surface here
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}

	logger.Infof("Chrome tab ready (headless=%v)", cfg.Headless)
	return &ChromeBrowser{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		timeout:     timeout,
		settleTime:  cfg.SettleTime,
	}, nil
}

// runCtx derives a context from the tab that also ends when ctx does.
func (b *ChromeBrowser) runCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (b *ChromeBrowser) Navigate(ctx context.Context, rawURL string) (*Tab, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	runCtx, cancel := b.runCtx(ctx)
	defer cancel()

	var location, title string
	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if b.settleTime > 0 {
		actions = append(actions, chromedp.Sleep(b.settleTime))
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.Title(&title),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	tab := b.setActive(location, title)
	logger.Debugf("chrome tab at %s", location)
	return tab, nil
}

// setActive records a navigation. The Chrome target never changes, so every
// navigation gets its own id and older Tab values become stale.
func (b *ChromeBrowser) setActive(location, title string) *Tab {
	tab := &Tab{
		ID:    uuid.New().String(),
		URL:   location,
		Title: title,
	}

	b.mu.Lock()
	b.active = tab
	b.mu.Unlock()

	copied := *tab
	return &copied
}

func (b *ChromeBrowser) ActiveTab(_ context.Context) (*Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active == nil {
		return nil, ErrNoActiveTab
	}
	tab := *b.active
	return &tab, nil
}

func (b *ChromeBrowser) DocumentHTML(ctx context.Context, tab *Tab) (string, error) {
	active, err := b.ActiveTab(ctx)
	if err != nil {
		return "", err
	}
	if tab == nil || tab.ID != active.ID {
		return "", fmt.Errorf("tab %v is no longer active", tabID(tab))
	}

	runCtx, cancel := b.runCtx(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.Evaluate(`document.documentElement.outerHTML`, &html),
	); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (b *ChromeBrowser) Close() error {
	b.mu.Lock()
	b.active = nil
	b.mu.Unlock()

	b.tabCancel()
	b.allocCancel()
	return nil
}
