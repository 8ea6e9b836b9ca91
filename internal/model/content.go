package model

import "time"

// ExtractedContent is the readable text of one page, keyed by SourceURL in
// the content cache.
type ExtractedContent struct {
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	TextContent string    `json:"text_content"`
	Length      int       `json:"length"`
	Excerpt     string    `json:"excerpt,omitempty"`
	SiteName    string    `json:"site_name,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}
