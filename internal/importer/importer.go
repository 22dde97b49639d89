// Package importer turns external outlines into the flat row layout: Markdown heading
// outlines (h1/h2/h3) and the HTML page layout the outline editor originally lived in.
package importer

import (
	"context"
	"fmt"
	"strings"

	"folio/internal/model"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/store"
)

// Document is an imported outline. Bodies is aligned with the node rows of Rows (group rows
// are skipped); an empty body means the node has no content yet.
type Document struct {
	Rows   []model.Row
	Bodies []string
}

// Nodes reports how many node rows the document holds.
func (d Document) Nodes() int {
	n := 0
	for _, r := range d.Rows {
		if _, ok := r.Kind.NodeKind(); ok {
			n++
		}
	}
	return n
}

// builder emits rows in the grouped layout: subsections are wrapped in a group that opens
// after their section and closes before the next section or chapter.
type builder struct {
	doc     Document
	inGroup bool
	last    model.Kind
}

func (b *builder) add(kind model.Kind, number, title, body string) error {
	switch kind {
	case model.KindSubsection:
		if !b.inGroup {
			if b.last != model.KindSection {
				return fmt.Errorf("subsection %q has no section", title)
			}
			b.doc.Rows = append(b.doc.Rows, model.Row{Kind: model.RowGroupStart})
			b.inGroup = true
		}
	case model.KindSection:
		if b.last == "" {
			return fmt.Errorf("section %q appears before any chapter", title)
		}
		b.closeGroup()
	default:
		b.closeGroup()
	}
	b.doc.Rows = append(b.doc.Rows, model.Row{Kind: model.RowKindFor(kind), Number: number, Title: title})
	b.doc.Bodies = append(b.doc.Bodies, strings.TrimSpace(body))
	if kind != model.KindSubsection {
		b.last = kind
	}
	return nil
}

// appendBody adds html to the body of the most recent node.
func (b *builder) appendBody(html string) {
	if len(b.doc.Bodies) == 0 || strings.TrimSpace(html) == "" {
		return
	}
	i := len(b.doc.Bodies) - 1
	b.doc.Bodies[i] = strings.TrimSpace(b.doc.Bodies[i] + "\n" + html)
}

func (b *builder) closeGroup() {
	if b.inGroup {
		b.doc.Rows = append(b.doc.Rows, model.Row{Kind: model.RowGroupEnd})
		b.inGroup = false
	}
}

func (b *builder) finish() Document {
	b.closeGroup()
	return b.doc
}

// splitNumber separates a leading display number ("第二节 Scope", "Chapter Two Scope", "3 Scope")
// from a heading. The number is recognized in any supported locale.
func splitNumber(level int, s string) (number, title string) {
	s = strings.TrimSpace(s)
	fields := strings.Fields(s)
	for n := 2; n >= 1; n-- {
		if len(fields) <= n {
			continue
		}
		cand := strings.Join(fields[:n], " ")
		for _, loc := range numbering.Locales() {
			if _, ok := numbering.Parse(loc, level, cand); ok {
				return cand, strings.Join(fields[n:], " ")
			}
		}
	}
	return "", s
}

// Target receives an applied import.
type Target interface {
	store.ContentStore
	store.OutlineStore
}

// Apply builds the tree for doc, stores its rows and writes each non-empty body as the
// node's final content. Missing numbers are filled in from position.
func Apply(ctx context.Context, doc Document, dst Target, opt outline.ParseOptions) (*outline.Tree, error) {
	tree, err := outline.Parse(doc.Rows, opt)
	if err != nil {
		return nil, err
	}
	if err := dst.SaveRows(ctx, tree.Flatten()); err != nil {
		return nil, fmt.Errorf("save outline: %w", err)
	}
	for i, n := range tree.Nodes() {
		if i >= len(doc.Bodies) || doc.Bodies[i] == "" {
			continue
		}
		qn, err := tree.QualifiedNumber(n.ID)
		if err != nil {
			return nil, err
		}
		key := store.Key{Kind: n.Kind, Number: qn, Variant: model.VariantFinal}
		if err := dst.Set(ctx, key, doc.Bodies[i]); err != nil {
			return nil, err
		}
	}
	return tree, nil
}
