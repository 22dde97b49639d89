package outline

import (
	"slices"

	"folio/internal/model"
	"folio/internal/numbering"
)

// Insert places n at pos and returns the stored node with its assigned ID. Kind
// compatibility is re-validated; pos.Index is clamped to the valid range.
func (t *Tree) Insert(pos Position, n Node) (Node, error) {
	if pos.Parent == "" {
		if n.Kind != model.KindChapter {
			return Node{}, KindError{Child: n.Kind}
		}
		return t.insertRoot(pos.Index, n), nil
	}
	p, err := t.node(pos.Parent)
	if err != nil {
		return Node{}, err
	}
	want, ok := p.Kind.ChildKind()
	if !ok || want != n.Kind {
		return Node{}, KindError{Parent: p.Kind, Child: n.Kind}
	}

	stored := n.clone()
	stored.ID = t.nextID()
	stored.Parent = p.ID
	stored.Children = nil
	stored.Grouped = false
	if stored.State == "" {
		stored.State = model.StateEmpty
	}
	idx := min(max(pos.Index, 0), len(p.Children))
	p.Children = slices.Insert(p.Children, idx, stored.ID)
	if n.Kind == model.KindSubsection && pos.CreatesGroup {
		p.Grouped = true
	}
	t.nodes[stored.ID] = &stored
	return stored.clone(), nil
}

func (t *Tree) insertRoot(index int, n Node) Node {
	stored := n.clone()
	stored.ID = t.nextID()
	stored.Parent = ""
	stored.Children = nil
	stored.Grouped = false
	if stored.State == "" {
		stored.State = model.StateEmpty
	}
	idx := min(max(index, 0), len(t.roots))
	t.roots = slices.Insert(t.roots, idx, stored.ID)
	t.nodes[stored.ID] = &stored
	return stored.clone()
}

// AppendChapter adds a chapter at the end of the outline.
func (t *Tree) AppendChapter(number, title string) Node {
	return t.insertRoot(len(t.roots), Node{Kind: model.KindChapter, Number: number, Title: title})
}

// AppendChild appends a child at the computed insertion point of parentID.
func (t *Tree) AppendChild(parentID model.NodeID, number, title string) (Node, error) {
	p, err := t.node(parentID)
	if err != nil {
		return Node{}, err
	}
	kind, ok := p.Kind.ChildKind()
	if !ok {
		return Node{}, KindError{Parent: p.Kind, Child: model.KindSubsection}
	}
	pos, err := t.InsertionPointFor(parentID, kind)
	if err != nil {
		return Node{}, err
	}
	return t.Insert(pos, Node{Kind: kind, Number: number, Title: title})
}

// DeleteSubtree removes id and every descendant. A chapter takes all of its sections and
// their subsection groups with it; a section takes its subsections. Removed nodes are
// returned in document order.
func (t *Tree) DeleteSubtree(id model.NodeID) ([]Node, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	var removed []Node
	var collect func(cur *Node)
	collect = func(cur *Node) {
		removed = append(removed, cur.clone())
		for _, cid := range cur.Children {
			if c, ok := t.nodes[cid]; ok {
				collect(c)
			}
		}
	}
	collect(n)

	if n.Parent == "" {
		t.roots = slices.DeleteFunc(t.roots, func(x model.NodeID) bool { return x == id })
	} else if p, ok := t.nodes[n.Parent]; ok {
		p.Children = slices.DeleteFunc(p.Children, func(x model.NodeID) bool { return x == id })
	}
	for _, r := range removed {
		delete(t.nodes, r.ID)
	}
	return removed, nil
}

// Renumbered records a display-number change made by Renumber.
type Renumbered struct {
	ID  model.NodeID `json:"id"`
	Old string       `json:"old"`
	New string       `json:"new"`
}

// Renumber re-derives the display numbers of parentID's children from their positions
// (parentID "" renumbers the chapters). Only changed nodes are reported.
func (t *Tree) Renumber(parentID model.NodeID, f numbering.Formatter) ([]Renumbered, error) {
	ids := t.roots
	level := model.KindChapter.Level()
	if parentID != "" {
		p, err := t.node(parentID)
		if err != nil {
			return nil, err
		}
		ck, ok := p.Kind.ChildKind()
		if !ok {
			return nil, nil
		}
		ids = p.Children
		level = ck.Level()
	}
	var out []Renumbered
	for i, id := range ids {
		n := t.nodes[id]
		want := f.Number(level, i+1)
		if n.Number == want {
			continue
		}
		out = append(out, Renumbered{ID: id, Old: n.Number, New: want})
		n.Number = want
	}
	return out, nil
}
