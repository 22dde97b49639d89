package outline

import (
	"strings"

	"folio/internal/model"
	"folio/internal/numbering"
)

// Flatten renders the tree as document-ordered rows. Subsections of a Grouped section are
// bracketed by group-start/group-end rows; other subsections follow their section inline.
func (t *Tree) Flatten() []model.Row {
	rows, _ := t.flatten()
	return rows
}

func (t *Tree) flatten() ([]model.Row, []model.NodeID) {
	var rows []model.Row
	var owners []model.NodeID
	emit := func(r model.Row, owner model.NodeID) {
		rows = append(rows, r)
		owners = append(owners, owner)
	}
	nodeRow := func(n *Node) model.Row {
		return model.Row{Kind: model.RowKindFor(n.Kind), Number: n.Number, Title: n.Title}
	}
	for _, cid := range t.roots {
		ch := t.nodes[cid]
		emit(nodeRow(ch), ch.ID)
		for _, sid := range ch.Children {
			sec := t.nodes[sid]
			emit(nodeRow(sec), sec.ID)
			grouped := sec.Grouped && len(sec.Children) > 0
			if grouped {
				emit(model.Row{Kind: model.RowGroupStart}, sec.ID)
			}
			for _, uid := range sec.Children {
				sub := t.nodes[uid]
				emit(nodeRow(sub), sub.ID)
			}
			if grouped {
				emit(model.Row{Kind: model.RowGroupEnd}, sec.ID)
			}
		}
	}
	return rows, owners
}

// ParseOptions controls how Parse fills rows without a number.
type ParseOptions struct {
	Numbers numbering.Formatter
}

// Parse builds a tree from the flat layout. A node's children are the contiguous run of
// lower-kind rows after it; subsections may also be bracketed in a group right after their
// section. Both forms can be mixed in one sequence. Rows with an empty number are numbered
// from their position.
func Parse(rows []model.Row, opt ParseOptions) (*Tree, error) {
	t := New()
	var chapter, section model.NodeID
	inGroup := false
	prevKind := model.RowKind("")

	for i, r := range rows {
		switch r.Kind {
		case model.RowGroupStart:
			if section == "" || prevKind != model.RowSection {
				return nil, ParseError{Row: i, Reason: "subsection group must directly follow a section"}
			}
			if inGroup {
				return nil, ParseError{Row: i, Reason: "nested subsection group"}
			}
			inGroup = true
			t.nodes[section].Grouped = true
		case model.RowGroupEnd:
			if !inGroup {
				return nil, ParseError{Row: i, Reason: "group end without group start"}
			}
			inGroup = false
		case model.RowChapter:
			if inGroup {
				return nil, ParseError{Row: i, Reason: "chapter inside subsection group"}
			}
			n := t.AppendChapter(numberOr(r.Number, opt.Numbers, 1, len(t.roots)+1), strings.TrimSpace(r.Title))
			chapter, section = n.ID, ""
		case model.RowSection:
			if inGroup {
				return nil, ParseError{Row: i, Reason: "section inside subsection group"}
			}
			if chapter == "" {
				return nil, ParseError{Row: i, Reason: "section before any chapter"}
			}
			n := t.appendParsed(chapter, model.KindSection, r, opt)
			section = n.ID
		case model.RowSubsection:
			if section == "" {
				return nil, ParseError{Row: i, Reason: "subsection without a section"}
			}
			t.appendParsed(section, model.KindSubsection, r, opt)
		default:
			return nil, ParseError{Row: i, Reason: "unknown row kind " + string(r.Kind)}
		}
		prevKind = r.Kind
	}
	if inGroup {
		return nil, ParseError{Row: len(rows), Reason: "unterminated subsection group"}
	}
	return t, nil
}

func (t *Tree) appendParsed(parent model.NodeID, kind model.Kind, r model.Row, opt ParseOptions) Node {
	p := t.nodes[parent]
	stored := Node{
		ID:     t.nextID(),
		Kind:   kind,
		Number: numberOr(r.Number, opt.Numbers, kind.Level(), len(p.Children)+1),
		Title:  strings.TrimSpace(r.Title),
		State:  model.StateEmpty,
		Parent: parent,
	}
	p.Children = append(p.Children, stored.ID)
	t.nodes[stored.ID] = &stored
	return stored
}

func numberOr(n string, f numbering.Formatter, level, ordinal int) string {
	if n = strings.TrimSpace(n); n != "" {
		return n
	}
	return f.Number(level, ordinal)
}
