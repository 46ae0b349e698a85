package edgar

import (
	"regexp"
	"strings"

	// Packages
	goquery "github.com/PuerkitoBio/goquery"
	html "golang.org/x/net/html"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Documents without a tag in this prefix are already plain text
	plainTextPrefix = 500
)

var (
	reXMLDecl = regexp.MustCompile(`(?is)<\?xml[^>]*\?>`)
	reHidden  = regexp.MustCompile(`(?i)display\s*:\s*none`)

	// Elements which end a run of text
	blockElements = map[string]bool{
		"address": true, "article": true, "blockquote": true, "br": true,
		"dd": true, "div": true, "dl": true, "dt": true, "h1": true,
		"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"hr": true, "li": true, "ol": true, "p": true, "section": true,
		"table": true, "td": true, "th": true, "tr": true, "ul": true,
	}

	// Elements removed with their content
	droppedElements = map[string]bool{
		"script":    true,
		"style":     true,
		"head":      true,
		"ix:header": true,
		"xbrl":      true,
	}
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// StripHTML reduces a filing to plain text. Scripts, styles, the inline XBRL
// header and hidden blocks are removed, inline XBRL tags are unwrapped,
// entities are decoded and whitespace is collapsed to single spaces.
func StripHTML(document string) string {
	if isPlainText(document) {
		return collapse(document)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(reXMLDecl.ReplaceAllString(document, "")))
	if err != nil {
		return collapse(document)
	}

	// Remove scripts, styles, hidden data and hidden blocks
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isDropped(s.Get(0))
	}).Remove()

	// Collect text, breaking at block boundaries
	var b strings.Builder
	for _, n := range doc.Nodes {
		text(&b, n)
	}
	return collapse(b.String())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isPlainText(document string) bool {
	head := document
	if len(head) > plainTextPrefix {
		head = head[:plainTextPrefix]
	}
	return !strings.Contains(head, "<")
}

func isDropped(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if droppedElements[n.Data] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "hidden" {
			return true
		}
		if attr.Key == "style" && reHidden.MatchString(attr.Val) {
			return true
		}
	}
	return false
}

func text(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		text(b, child)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteByte('\n')
	}
}

// collapse replaces runs of whitespace, including non-breaking spaces, with
// a single space
func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v', '\u00a0', '\u2002', '\u2003', '\u2009', '\u200b':
		return true
	}
	return false
}
