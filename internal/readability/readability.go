// Package readability isolates the main article text of an HTML document.
//
// Scoring is done by go-readability, a port of Mozilla's Readability.js.
// This package renders the chosen article as block-aware plain text and
// fills metadata the parser missed from the Open Graph tags.
package readability

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	goreadability "github.com/go-shiori/go-readability"
)

// ErrNoContent is returned when the parser found no article text.
var ErrNoContent = errors.New("readability: no readable content")

const DefaultCharThreshold = 500

type Options struct {
	// CharThreshold is the number of characters an attempt must reach
	// before the parser stops retrying with relaxed filters.
	CharThreshold int
	// PageURL resolves relative links. Optional.
	PageURL string
}

type Article struct {
	Title       string
	TextContent string
	Length      int
	Excerpt     string
	SiteName    string
}

func Parse(r io.Reader, opts Options) (*Article, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if opts.CharThreshold <= 0 {
		opts.CharThreshold = DefaultCharThreshold
	}

	var pageURL *url.URL
	if opts.PageURL != "" {
		if u, err := url.Parse(opts.PageURL); err == nil {
			pageURL = u
		}
	}

	parser := goreadability.NewParser()
	parser.CharThresholds = opts.CharThreshold
	parsed, err := parser.Parse(bytes.NewReader(raw), pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	text, err := articleText(parsed)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrNoContent
	}

	article := &Article{
		Title:       strings.TrimSpace(parsed.Title),
		TextContent: text,
		Length:      utf8.RuneCountInString(text),
		Excerpt:     strings.TrimSpace(parsed.Excerpt),
		SiteName:    strings.TrimSpace(parsed.SiteName),
	}

	meta := readMetadata(raw)
	if article.Title == "" {
		article.Title = meta.title
	}
	if article.Excerpt == "" {
		article.Excerpt = meta.description
	}
	if article.SiteName == "" {
		article.SiteName = meta.siteName
	}
	if article.Excerpt == "" {
		article.Excerpt = firstParagraph(text)
	}
	return article, nil
}

func ParseString(s string, opts Options) (*Article, error) {
	return Parse(strings.NewReader(s), opts)
}

// articleText renders the article HTML with paragraph breaks kept. The
// parser's own TextContent joins blocks with whatever whitespace the source
// had, so it is only used when the HTML is missing.
func articleText(parsed goreadability.Article) (string, error) {
	if strings.TrimSpace(parsed.Content) == "" {
		return tidy(parsed.TextContent), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(parsed.Content))
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}
	return renderText(doc.Find("body").Nodes), nil
}

type metadata struct {
	title       string
	description string
	siteName    string
}

func readMetadata(raw []byte) metadata {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(raw)); err != nil {
		return metadata{}
	}
	return metadata{
		title:       strings.TrimSpace(og.Title),
		description: strings.TrimSpace(og.Description),
		siteName:    strings.TrimSpace(og.SiteName),
	}
}

func firstParagraph(text string) string {
	for _, block := range strings.Split(text, "\n") {
		block = strings.TrimSpace(block)
		if utf8.RuneCountInString(block) >= 25 {
			return truncateRunes(block, 300)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
