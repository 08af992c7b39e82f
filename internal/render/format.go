// Package render turns email payloads into terminal-friendly text.
package render

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

// Placeholder text shown while backend analysis has not populated a field.
const (
	PlaceholderCategory = "Processing"
	PlaceholderSummary  = "Analysis in progress..."
)

// FormatBody renders an email body for the terminal: HTML is flattened to
// plain text, plain text passes through, and the result is wrapped to the
// given width.
func FormatBody(body string, width int) string {
	text := body
	if looksLikeHTML(body) {
		if rendered, err := htmlToText(body); err == nil {
			text = rendered
		}
	}
	text = normalizeNewlines(text)
	return WrapText(text, width)
}

// looksLikeHTML is a cheap sniff; mislabeling plain text is harmless since
// the HTML walk passes bare text through.
func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<p>") ||
		strings.Contains(lower, "<br")
}

// htmlToText walks the DOM and emits text, breaking lines at block
// elements and skipping non-content subtrees.
func htmlToText(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text := sanitizeText(n.Data)
			if strings.TrimSpace(text) != "" {
				b.WriteString(text)
			}
			return
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			switch tag {
			case "head", "style", "script", "title", "meta", "link":
				return
			case "br":
				b.WriteByte('\n')
			case "p", "div", "section", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					visit(c)
				}
				b.WriteByte('\n')
				return
			case "ul", "ol":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && strings.ToLower(c.Data) == "li" {
						b.WriteString("- ")
						for li := c.FirstChild; li != nil; li = li.NextSibling {
							visit(li)
						}
						b.WriteByte('\n')
					}
				}
				return
			case "hr":
				b.WriteString("\n-----\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	out := b.String()
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out), nil
}

// WrapText wraps at word boundaries using display width, so wide runes
// count double. Existing line breaks are preserved. A width of zero or
// less disables wrapping.
func WrapText(input string, width int) string {
	if width <= 0 {
		return input
	}
	var out strings.Builder
	for i, line := range strings.Split(input, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}
	var out strings.Builder
	var current strings.Builder
	currentWidth := 0
	for _, word := range strings.Fields(line) {
		w := runewidth.StringWidth(word)
		if currentWidth > 0 && currentWidth+1+w > width {
			out.WriteString(current.String())
			out.WriteByte('\n')
			current.Reset()
			currentWidth = 0
		}
		if currentWidth > 0 {
			current.WriteByte(' ')
			currentWidth++
		}
		current.WriteString(word)
		currentWidth += w
	}
	out.WriteString(current.String())
	return out.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)
}
