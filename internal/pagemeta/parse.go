package pagemeta

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// descriptionLimit caps fallback descriptions taken from body text.
const descriptionLimit = 300

// Parse extracts metadata from an HTML document. contentType is used for
// charset detection; base resolves relative icon links.
func Parse(r io.Reader, contentType string, base *url.URL) (*Metadata, error) {
	// Transparently decode non-UTF-8 pages (Shift_JIS, windows-1251, ...).
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("charset detection: %w", err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &parser{base: base, meta: &Metadata{}}
	p.walk(doc)

	// Prefer og:title over <title>, og:description over meta description.
	if p.ogTitle != "" {
		p.meta.Title = p.ogTitle
	}
	if p.ogDescription != "" {
		p.meta.Description = p.ogDescription
	}

	// Last resort: first paragraph of body text, converted to plain
	// markdown so inline markup doesn't leak into the description.
	if p.meta.Description == "" && p.firstParagraph != "" {
		if md, convErr := htmltomarkdown.ConvertString(p.firstParagraph); convErr == nil {
			p.meta.Description = truncate(strings.TrimSpace(md), descriptionLimit)
		}
	}

	// Icon fallback: /favicon.ico on the page's host.
	if p.meta.IconURL == "" && base != nil {
		p.meta.IconURL = base.Scheme + "://" + base.Host + "/favicon.ico"
	}

	p.meta.Title = strings.TrimSpace(p.meta.Title)
	p.meta.Description = strings.TrimSpace(p.meta.Description)

	return p.meta, nil
}

type parser struct {
	base *url.URL
	meta *Metadata

	ogTitle        string
	ogDescription  string
	firstParagraph string
	iconSize       int // Largest icon wins
}

func (p *parser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if p.meta.Title == "" {
				p.meta.Title = textContent(n)
			}
		case "meta":
			p.handleMeta(n)
		case "link":
			p.handleLink(n)
		case "p":
			if p.firstParagraph == "" {
				if text := strings.TrimSpace(textContent(n)); text != "" {
					p.firstParagraph = text
				}
			}
		case "script", "style":
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *parser) handleMeta(n *html.Node) {
	name := strings.ToLower(attr(n, "name"))
	property := strings.ToLower(attr(n, "property"))
	content := attr(n, "content")
	if content == "" {
		return
	}

	switch {
	case name == "description":
		if p.meta.Description == "" {
			p.meta.Description = content
		}
	case property == "og:title":
		p.ogTitle = content
	case property == "og:description":
		p.ogDescription = content
	}
}

func (p *parser) handleLink(n *html.Node) {
	rel := strings.ToLower(attr(n, "rel"))
	href := attr(n, "href")
	if href == "" {
		return
	}

	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon":
		size := parseIconSize(attr(n, "sizes"))
		if p.meta.IconURL == "" || size > p.iconSize {
			p.meta.IconURL = p.resolve(href)
			p.iconSize = size
		}
	case "canonical":
		p.meta.Canonical = p.resolve(href)
	}
}

// resolve makes href absolute against the page URL.
func (p *parser) resolve(href string) string {
	if p.base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(u).String()
}

// parseIconSize reads the first dimension of a sizes attribute like "32x32".
// Returns 0 for missing or "any".
func parseIconSize(sizes string) int {
	sizes = strings.ToLower(strings.TrimSpace(sizes))
	before, _, ok := strings.Cut(sizes, "x")
	if !ok {
		return 0
	}
	size := 0
	for _, r := range before {
		if r < '0' || r > '9' {
			return 0
		}
		size = size*10 + int(r-'0')
	}
	return size
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Cut on a rune boundary
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
