package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pagechat-backend/internal/browser"
	"pagechat-backend/internal/extractor"
	"pagechat-backend/internal/model"
	"pagechat-backend/pkg/logger"
)

var suggestedQuestions = []string{
	"Summarize this page",
	"What are the key points?",
	"Explain this like I'm 5",
}

// PageService ties the tab, the extractor and the chat together: opening
// a page starts a fresh conversation about it.
type PageService struct {
	browser   browser.Browser
	extractor *extractor.Extractor
	chat      *ChatService

	mu      sync.Mutex
	url     string
	failure extractor.Kind
}

func NewPageService(b browser.Browser, ext *extractor.Extractor, chat *ChatService) *PageService {
	return &PageService{
		browser:   b,
		extractor: ext,
		chat:      chat,
	}
}

// Open navigates the tab to url and analyzes it. Extraction failures are
// reported as *extractor.ExtractionError after the failure notice has been
// posted; any other error means the tab could not load the page.
func (p *PageService) Open(ctx context.Context, url string) (*model.ExtractedContent, error) {
	p.chat.Reset()

	p.mu.Lock()
	p.url = url
	p.failure = ""
	p.mu.Unlock()

	if _, err := p.browser.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}

	content, err := p.extractor.Extract(ctx)
	if err != nil {
		var extractionErr *extractor.ExtractionError
		if !errors.As(err, &extractionErr) {
			extractionErr = &extractor.ExtractionError{Kind: extractor.KindEmptyContent, URL: url, Err: err}
		}
		logger.Warnf("extract %s: %v", url, extractionErr)

		p.mu.Lock()
		p.failure = extractionErr.Kind
		p.mu.Unlock()

		p.chat.PostNotice(extractionErr.Notice())
		return nil, extractionErr
	}

	p.mu.Lock()
	p.url = content.SourceURL
	p.mu.Unlock()

	p.chat.SetContent(content, greeting(content.Title))
	return content, nil
}

// Reset clears the conversation and forgets the page.
func (p *PageService) Reset() {
	p.chat.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = ""
	p.failure = ""
}

func (p *PageService) Suggestions() []string {
	out := make([]string, len(suggestedQuestions))
	copy(out, suggestedQuestions)
	return out
}

func (p *PageService) Status() model.StatusResponse {
	p.mu.Lock()
	status := model.StatusResponse{
		URL:               p.url,
		ExtractionFailure: string(p.failure),
	}
	p.mu.Unlock()

	if content := p.chat.Content(); content != nil {
		status.URL = content.SourceURL
		status.Title = content.Title
		status.ContentLength = content.Length
	}
	status.State = string(p.chat.State())
	status.TranscriptLength = p.chat.TranscriptLen()
	status.CachedPages = p.extractor.CachedPages()
	status.CachedResponses = p.chat.CachedResponses()
	return status
}

func greeting(title string) string {
	if title == "" {
		return "✅ Content analyzed. Ask me anything you'd like to know."
	}
	return fmt.Sprintf("✅ I've analyzed **\"%s\"**. Ask me anything based on the content.", title)
}
