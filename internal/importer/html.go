package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"folio/internal/model"
)

var itemClasses = map[string]model.Kind{
	"chapter-item":    model.KindChapter,
	"section-item":    model.KindSection,
	"subsection-item": model.KindSubsection,
}

// HTML reads the outline page layout: elements classed chapter-item, section-item and
// subsection-item in document order, each holding a *-number and a *-desc element.
// Subsection items may sit inside a subsection-list wrapper or follow their section directly.
// A chapter-content-preview element is ignored; contents live in the store, not the page.
func HTML(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	var b builder
	var walkErr error
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode {
			if kind, ok := itemKind(n); ok {
				prefix := strings.TrimSuffix(classFor(kind), "-item")
				number := textContent(findClass(n, prefix+"-number"))
				title := textContent(findClass(n, prefix+"-desc"))
				if title == "" {
					title = textContent(findClass(n, prefix+"-title"))
				}
				walkErr = b.add(kind, number, title, "")
				return
			}
			switch n.Data {
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if walkErr != nil {
		return Document{}, walkErr
	}
	return b.finish(), nil
}

func classes(n *html.Node) []string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func itemKind(n *html.Node) (model.Kind, bool) {
	for _, c := range classes(n) {
		if k, ok := itemClasses[c]; ok {
			return k, true
		}
	}
	return "", false
}

func classFor(k model.Kind) string {
	return string(k) + "-item"
}

func findClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if f := findClass(c, class); f != nil {
			return f
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
