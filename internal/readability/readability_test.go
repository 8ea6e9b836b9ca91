package readability

import (
	"errors"
	"strings"
	"testing"
)

const paragraph = "The quick brown fox jumps over the lazy dog, and then it keeps running through the field, past the old barn, until the sun goes down behind the hills. "

func articlePage(title string, paragraphs int) string {
	var body strings.Builder
	for i := 0; i < paragraphs; i++ {
		body.WriteString("<p>")
		body.WriteString(paragraph)
		body.WriteString("</p>\n")
	}
	return `<!DOCTYPE html>
<html>
<head>
  <title>` + title + `</title>
  <meta property="og:site_name" content="Example Site">
  <meta name="description" content="A short story about a fox.">
  <script>var tracking = "do not extract me";</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <div class="sidebar">Sponsored deals you will not believe, click now</div>
  <article>
    <h1>` + title + `</h1>
    ` + body.String() + `
  </article>
  <footer>Copyright Example Corp. All rights reserved.</footer>
</body>
</html>`
}

func TestParseExtractsArticleBody(t *testing.T) {
	article, err := ParseString(articlePage("Example", 5), Options{CharThreshold: 500})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	if article.Title != "Example" {
		t.Errorf("Title = %q, want %q", article.Title, "Example")
	}
	if article.SiteName != "Example Site" {
		t.Errorf("SiteName = %q", article.SiteName)
	}
	if article.Excerpt != "A short story about a fox." {
		t.Errorf("Excerpt = %q", article.Excerpt)
	}
	if !strings.Contains(article.TextContent, "quick brown fox") {
		t.Errorf("article text missing body: %q", article.TextContent)
	}
	for _, junk := range []string{"tracking", "Sponsored", "Copyright", "About"} {
		if strings.Contains(article.TextContent, junk) {
			t.Errorf("article text contains boilerplate %q", junk)
		}
	}
	if article.Length != len([]rune(article.TextContent)) {
		t.Errorf("Length = %d, want rune count %d", article.Length, len([]rune(article.TextContent)))
	}
	if article.Length < 500 {
		t.Errorf("Length = %d, want at least 500", article.Length)
	}
}

func TestParseSeparatesParagraphs(t *testing.T) {
	article, err := ParseString(articlePage("Example", 3), Options{})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if got := strings.Count(article.TextContent, "\n\n"); got < 2 {
		t.Errorf("want paragraphs separated by blank lines, got %d separators in %q", got, article.TextContent)
	}
}

func TestParseShortPageFallsBackToLongestAttempt(t *testing.T) {
	html := `<html><head><title>Tiny</title></head><body>
<div class="comment">Only a comment section exists here, nothing else of note.</div>
</body></html>`

	article, err := ParseString(html, Options{CharThreshold: 500})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if !strings.Contains(article.TextContent, "Only a comment section") {
		t.Errorf("relaxed pass should keep the only text on the page, got %q", article.TextContent)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"empty", ""},
		{"whitespace body", "<html><body>   \n </body></html>"},
		{"scripts only", "<html><body><script>alert(1)</script><style>p{}</style></body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.html, Options{})
			if !errors.Is(err, ErrNoContent) {
				t.Fatalf("err = %v, want ErrNoContent", err)
			}
		})
	}
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Example", "Example"},
		{"site suffix", "How Foxes Hunt at Night | Nature Weekly", "How Foxes Hunt at Night"},
		{"short head kept whole", "News - Site", "News - Site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := ParseString(articlePage(tt.title, 1), Options{})
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if article.Title != tt.want {
				t.Errorf("Title = %q, want %q", article.Title, tt.want)
			}
		})
	}
}

func TestOpenGraphTitleWins(t *testing.T) {
	html := `<html><head><title>Raw Title | Site</title>
<meta property="og:title" content="Graph Title"></head>
<body><p>` + paragraph + `</p></body></html>`

	article, err := ParseString(html, Options{})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if article.Title != "Graph Title" {
		t.Errorf("Title = %q, want og:title", article.Title)
	}
}

func TestRenderTextCollapsesWhitespace(t *testing.T) {
	got := tidy("  hello   \n\n\n\n  world  \n")
	if got != "hello\n\nworld" {
		t.Errorf("tidy = %q", got)
	}
	if got := collapseInline("  a \t b  "); got != " a b " {
		t.Errorf("collapseInline = %q", got)
	}
}
