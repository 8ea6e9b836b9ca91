// Package extractor turns the active tab into readable text and memoizes
// the result per URL.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pagechat-backend/internal/browser"
	"pagechat-backend/internal/config"
	"pagechat-backend/internal/model"
	"pagechat-backend/internal/readability"
	"pagechat-backend/internal/storage"
	"pagechat-backend/pkg/logger"
)

type Extractor struct {
	browser browser.Browser
	cache   storage.ContentCache
	cfg     config.ExtractConfig
	now     func() time.Time
}

func New(b browser.Browser, cache storage.ContentCache, cfg config.ExtractConfig) *Extractor {
	if cfg.MaxHTMLBytes <= 0 {
		cfg.MaxHTMLBytes = config.DefaultMaxHTMLBytes
	}
	if cfg.CharThreshold <= 0 {
		cfg.CharThreshold = config.DefaultCharThreshold
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = config.DefaultCacheTTL
	}
	return &Extractor{
		browser: b,
		cache:   cache,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Extract returns the readable content of the active tab. Errors are
// always *ExtractionError.
func (e *Extractor) Extract(ctx context.Context) (*model.ExtractedContent, error) {
	tab, err := e.browser.ActiveTab(ctx)
	if err != nil {
		return nil, newError(KindNoTab, "", err)
	}
	if tab == nil || tab.URL == "" {
		return nil, newError(KindNoTab, "", browser.ErrNoActiveTab)
	}

	cached, err := e.cache.Get(tab.URL)
	switch {
	case err == nil:
		logger.Debugf("content cache hit for %s", tab.URL)
		return cached, nil
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrExpired):
	default:
		logger.Warnf("content cache lookup for %s: %v", tab.URL, err)
	}

	html, err := e.browser.DocumentHTML(ctx, tab)
	if err != nil {
		if errors.Is(err, browser.ErrNoActiveTab) {
			return nil, newError(KindNoTab, tab.URL, err)
		}
		return nil, newError(KindEmptyContent, tab.URL, err)
	}
	if strings.TrimSpace(html) == "" {
		return nil, newError(KindEmptyContent, tab.URL, nil)
	}

	html, truncated := capHTML(html, e.cfg.MaxHTMLBytes)
	if truncated {
		if e.cfg.RejectOversized {
			return nil, newError(KindOversized, tab.URL,
				fmt.Errorf("document exceeds %d bytes", e.cfg.MaxHTMLBytes))
		}
		logger.Warnf("document at %s truncated to %d bytes", tab.URL, len(html))
	}

	article, err := readability.ParseString(html, readability.Options{CharThreshold: e.cfg.CharThreshold, PageURL: tab.URL})
	if err != nil {
		return nil, newError(KindUnparseable, tab.URL, err)
	}

	title := article.Title
	if title == "" {
		title = tab.Title
	}
	content := &model.ExtractedContent{
		SourceURL:   tab.URL,
		Title:       title,
		TextContent: article.TextContent,
		Length:      article.Length,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		ExtractedAt: e.now(),
	}

	if err := e.cache.Put(content, e.cfg.CacheTTL); err != nil {
		logger.Warnf("cache content for %s: %v", tab.URL, err)
	}

	logger.WithFields(logger.Fields{
		"url":       content.SourceURL,
		"title":     content.Title,
		"length":    content.Length,
		"truncated": truncated,
	}).Info("page extracted")
	return content, nil
}

// Run evicts expired cache entries every sweep interval until ctx is done.
func (e *Extractor) Run(ctx context.Context) {
	interval := e.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.cache.Sweep(e.now()); n > 0 {
				logger.Debugf("evicted %d expired pages", n)
			}
		}
	}
}

func (e *Extractor) CachedPages() int {
	return e.cache.Len()
}

// capHTML cuts html to at most limit bytes without splitting a rune.
func capHTML(html string, limit int) (string, bool) {
	if len(html) <= limit {
		return html, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(html[cut]) {
		cut--
	}
	return html[:cut], true
}
