// Package goquery provides CSS-selector based HTML processing: a fallback
// text extractor for policy pages and a homepage link source that finds
// privacy-looking anchors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"policyscout"
)

// minContentChars is the smallest container text length the extractor will
// accept from a semantic content selector before falling back to the body.
const minContentChars = 200

// noiseSelectors are stripped from the document before any text is read.
// These elements carry navigation and chrome, not policy prose.
var noiseSelectors = []string{
	"script", "style", "noscript", "template", "iframe", "svg",
	"nav", "header", "footer", "aside", "form", "button",
	"[class*='cookie-banner']", "[class*='cookie-consent']",
	"[id*='cookie-banner']", "[class*='advertisement']",
	"[role='navigation']", "[role='banner']", "[role='contentinfo']",
}

// contentSelectors are tried in order; the first one whose text is long
// enough wins. Policy pages across the web converge on a small set of
// container patterns.
var contentSelectors = []string{
	"main",
	"[role='main']",
	"article",
	".policy-content",
	".privacy-policy",
	".legal-content",
	"#content",
	".content",
	"#main-content",
}

// Ensure Extractor implements policyscout.Extractor at compile time.
var _ policyscout.Extractor = (*Extractor)(nil)

// Extractor pulls visible text out of an HTML document using CSS selectors.
// It strips page chrome, then looks for a semantic content container and
// falls back to the whole body when no container is substantial enough.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the visible text of the document.
func (e *Extractor) ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", policyscout.Errorf(policyscout.EINVALID, "failed to parse HTML: %v", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	for _, sel := range contentSelectors {
		if text := nodeText(doc.Find(sel).First()); len(text) >= minContentChars {
			return text, nil
		}
	}

	return nodeText(doc.Find("body")), nil
}

// nodeText renders a selection as newline-joined text with block structure
// roughly preserved. goquery's Text() concatenates blocks without
// separators, which destroys the line signals the scorer relies on.
func nodeText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var lines []string
	sel.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, dt, dd, blockquote, pre").Each(func(_ int, block *goquery.Selection) {
		if block.Children().FilterFunction(isBlockElement).Length() > 0 {
			return
		}
		if line := collapseSpace(block.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	// Pages built entirely from divs produce no block lines; fall back to
	// the flattened text.
	if len(lines) == 0 {
		return collapseSpace(sel.Text())
	}
	return strings.Join(lines, "\n")
}

func isBlockElement(_ int, sel *goquery.Selection) bool {
	switch goquery.NodeName(sel) {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "td", "th", "dt", "dd", "blockquote", "pre":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
