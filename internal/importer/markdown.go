package importer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"folio/internal/model"
)

// Markdown reads a heading outline: h1 is a chapter, h2 a section, h3 a subsection. Blocks
// between headings (including deeper headings) become the preceding node's content, rendered
// to HTML. Text before the first heading is ignored.
func Markdown(r io.Reader) (Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var b builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= 3 {
			kind, _ := model.KindForLevel(h.Level)
			number, title := splitNumber(h.Level, headingText(h, src))
			if err := b.add(kind, number, title, ""); err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineOf(h, src), err)
			}
			continue
		}
		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, src, n); err != nil {
			return Document{}, err
		}
		b.appendBody(buf.String())
	}
	return b.finish(), nil
}

func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return buf.String()
}

func lineOf(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	return bytes.Count(src[:lines.At(0).Start], []byte("\n")) + 1
}
