package readability

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// renderText flattens nodes into plain text with one block per line and
// blank lines between paragraphs. Whitespace is collapsed outside <pre>.
func renderText(nodes []*html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				sb.WriteString(n.Data)
			} else {
				sb.WriteString(collapseInline(n.Data))
			}
		case html.ElementNode, html.DocumentNode:
			tag := n.Data
			if tag == "br" {
				sb.WriteByte('\n')
				return
			}
			block := blockTags[tag]
			if block {
				sb.WriteString("\n\n")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, pre || tag == "pre")
			}
			switch {
			case block:
				sb.WriteString("\n\n")
			case tag == "td" || tag == "th":
				sb.WriteByte(' ')
			}
		}
	}
	for _, n := range nodes {
		walk(n, false)
	}

	return tidy(sb.String())
}

// collapseInline squeezes whitespace runs to one space, keeping a single
// leading or trailing space so adjacent inline text stays separated.
func collapseInline(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
