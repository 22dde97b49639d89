package publish

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"folio/internal/content"
	"folio/internal/model"
	"folio/internal/outline"
)

// Source reads a node's stored entries; *content.Synchronizer implements it.
type Source interface {
	Load(ctx context.Context, id model.NodeID) (content.Stored, error)
}

type RenderOptions struct {
	// Title, when set, becomes a leading "# Title" and pushes node headings one level down.
	Title string
	// FinalOnly skips draft-only contents.
	FinalOnly bool
	// IncludeEmpty keeps headings of nodes with no content.
	IncludeEmpty bool
}

// RenderMarkdown renders the outline with contents as one Markdown document: a heading per
// node ("## 第一节 Title", depth by kind) followed by its content converted from HTML.
func RenderMarkdown(ctx context.Context, tree *outline.Tree, src Source, opt RenderOptions) (string, error) {
	if tree == nil {
		return "", fmt.Errorf("missing outline")
	}
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	offset := 0
	if t := strings.TrimSpace(opt.Title); t != "" {
		writeLn("# " + t)
		writeLn("")
		offset = 1
	}

	var err error
	tree.Walk(func(n outline.Node, depth int) bool {
		var st content.Stored
		st, err = src.Load(ctx, n.ID)
		if err != nil {
			return false
		}
		body := ""
		switch {
		case st.HasFinal:
			body = st.Final
		case st.HasDraft && !opt.FinalOnly:
			body = st.Draft
		}
		body = HTMLToMarkdown(body)
		if content.IsPlaceholder(body) {
			body = ""
		}
		if body == "" && !opt.IncludeEmpty && !hasContentBelow(ctx, tree, src, n, opt) {
			return true
		}
		writeLn(strings.Repeat("#", min(depth+1+offset, 6)) + " " + heading(n))
		writeLn("")
		if body != "" {
			writeLn(body)
			writeLn("")
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func heading(n outline.Node) string {
	return strings.TrimSpace(strings.TrimSpace(n.Number) + " " + strings.TrimSpace(n.Title))
}

// hasContentBelow keeps an empty heading when a descendant has content, so exported sections
// never lose their chapter.
func hasContentBelow(ctx context.Context, tree *outline.Tree, src Source, n outline.Node, opt RenderOptions) bool {
	for _, id := range n.Children {
		st, err := src.Load(ctx, id)
		if err != nil {
			continue
		}
		if st.HasFinal || (st.HasDraft && !opt.FinalOnly) {
			return true
		}
		if c, ok := tree.Find(id); ok && hasContentBelow(ctx, tree, src, c, opt) {
			return true
		}
	}
	return false
}

// HTMLToMarkdown converts editor HTML (paragraphs, emphasis, lists, links, line breaks) to
// Markdown. Unknown elements contribute their text.
func HTMLToMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "<") {
		return s
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return s
	}
	var w mdWriter
	for _, n := range nodes {
		w.block(n, 0)
	}
	return strings.TrimSpace(w.String())
}

type mdWriter struct {
	strings.Builder
}

func (w *mdWriter) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if w.Len() > 0 {
		w.WriteString("\n\n")
	}
	w.WriteString(text)
}

func (w *mdWriter) block(n *html.Node, depth int) {
	switch n.Type {
	case html.TextNode:
		w.paragraph(collapse(n.Data))
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.block(c, depth)
		}
		return
	}
	switch n.Data {
	case "p", "div":
		if hasBlockChild(n) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				w.block(c, depth)
			}
			return
		}
		w.paragraph(inline(n))
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		w.paragraph(strings.Repeat("#", level) + " " + inline(n))
	case "ul", "ol":
		w.paragraph(list(n, depth))
	case "blockquote":
		var inner mdWriter
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			inner.block(c, depth)
		}
		lines := strings.Split(strings.TrimSpace(inner.String()), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("> "+l, " ")
		}
		w.paragraph(strings.Join(lines, "\n"))
	case "pre":
		w.paragraph("```\n" + strings.Trim(textOf(n), "\n") + "\n```")
	case "br":
	default:
		w.paragraph(inline(n))
	}
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "p", "div", "ul", "ol", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
			return true
		}
	}
	return false
}

func list(n *html.Node, depth int) string {
	var lines []string
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		i++
		marker := "-"
		if n.Data == "ol" {
			marker = fmt.Sprintf("%d.", i)
		}
		var text strings.Builder
		var nested []string
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			if cc.Type == html.ElementNode && (cc.Data == "ul" || cc.Data == "ol") {
				nested = append(nested, list(cc, depth+1))
				continue
			}
			text.WriteString(inlineNode(cc))
		}
		lines = append(lines, strings.Repeat("  ", depth)+marker+" "+strings.TrimSpace(collapse(text.String())))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

func inline(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(inlineNode(c))
	}
	return strings.TrimSpace(collapseKeepBreaks(b.String()))
}

func inlineNode(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
	default:
		return ""
	}
	inner := func() string {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.WriteString(inlineNode(c))
		}
		return b.String()
	}
	switch n.Data {
	case "br":
		return "  \n"
	case "strong", "b":
		return wrap("**", inner())
	case "em", "i":
		return wrap("*", inner())
	case "u":
		// Markdown has no underline; keep the inline HTML.
		return wrap("<u>", inner())
	case "code":
		return wrap("`", inner())
	case "a":
		href := attr(n, "href")
		if href == "" {
			return inner()
		}
		return "[" + strings.TrimSpace(inner()) + "](" + href + ")"
	case "script", "style":
		return ""
	default:
		return inner()
	}
}

func wrap(mark, s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return s
	}
	closing := mark
	if strings.HasPrefix(mark, "<") {
		closing = "</" + mark[1:]
	}
	lead := s[:len(s)-len(strings.TrimLeft(s, " \t\n"))]
	trail := s[len(strings.TrimRight(s, " \t\n")):]
	return lead + mark + t + closing + trail
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseKeepBreaks collapses whitespace but keeps the hard breaks produced for <br>.
func collapseKeepBreaks(s string) string {
	parts := strings.Split(s, "  \n")
	for i, p := range parts {
		parts[i] = collapse(p)
	}
	return strings.Join(parts, "  \n")
}
