// Package trafilatura provides the primary text extractor, built on
// go-trafilatura's boilerplate-removing content extraction.
package trafilatura

import (
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"policyscout"
)

// Ensure Extractor implements policyscout.Extractor at compile time.
var _ policyscout.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to pull the main textual content out of a
// policy page, dropping navigation, ads, and page chrome. When trafilatura
// cannot find a content region, an optional fallback extractor is consulted;
// sparse or oddly structured legal pages sometimes defeat readability-style
// heuristics while a plain selector pass still works.
type Extractor struct {
	fallback policyscout.Extractor
}

// NewExtractor creates a new Extractor. fallback may be nil.
func NewExtractor(fallback policyscout.Extractor) *Extractor {
	return &Extractor{fallback: fallback}
}

// ExtractText returns the main content of the document as plain text with
// block elements on separate lines.
func (e *Extractor) ExtractText(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", policyscout.Errorf(policyscout.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil || result == nil || result.ContentNode == nil {
		return e.fallbackText(rawHTML, err)
	}

	text := blockText(result.ContentNode)
	if strings.TrimSpace(text) == "" {
		return e.fallbackText(rawHTML, nil)
	}
	return text, nil
}

func (e *Extractor) fallbackText(rawHTML string, cause error) (string, error) {
	if e.fallback != nil {
		return e.fallback.ExtractText(rawHTML)
	}
	if cause != nil {
		return "", policyscout.Errorf(policyscout.EINTERNAL, "extract content: %v", cause)
	}
	return "", policyscout.Errorf(policyscout.ENOTFOUND, "no content found in document")
}

// blockText flattens a content node to plain text, one line per block
// element. trafilatura's own text rendering joins blocks with spaces, which
// erases the line structure downstream scoring depends on.
func blockText(root *html.Node) string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			flush()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			flush()
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()

	return strings.Join(lines, "\n")
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "td", "th",
		"dt", "dd", "blockquote", "pre", "div", "section", "article",
		"ul", "ol", "table", "tr", "figure":
		return true
	}
	return false
}
