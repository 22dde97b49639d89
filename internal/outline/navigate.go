package outline

import (
	"slices"

	"folio/internal/model"
)

// ChildrenOf returns the direct children of id in order: a chapter's sections, or a
// section's subsections regardless of whether they sit in a subsection group.
func (t *Tree) ChildrenOf(id model.NodeID) ([]Node, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c, ok := t.nodes[cid]; ok {
			out = append(out, c.clone())
		}
	}
	return out, nil
}

// PreviousSiblingOfKind scans backward in document order from id and returns the nearest
// preceding node of the given kind. For a section, asking for KindChapter yields the
// chapter that owns it.
func (t *Tree) PreviousSiblingOfKind(id model.NodeID, kind model.Kind) (Node, bool, error) {
	if _, err := t.node(id); err != nil {
		return Node{}, false, err
	}
	order := t.order()
	i := slices.Index(order, id)
	for j := i - 1; j >= 0; j-- {
		if n := t.nodes[order[j]]; n.Kind == kind {
			return n.clone(), true, nil
		}
	}
	return Node{}, false, nil
}

// CountInScope counts nodes of kind whose nearest preceding node of the parent's kind is
// parentID. This is the count add-child derives the next ordinal from.
func (t *Tree) CountInScope(parentID model.NodeID, kind model.Kind) (int, error) {
	p, err := t.node(parentID)
	if err != nil {
		return 0, err
	}
	count := 0
	var owner model.NodeID
	for _, id := range t.order() {
		n := t.nodes[id]
		switch n.Kind {
		case p.Kind:
			owner = id
		case kind:
			if owner == parentID {
				count++
			}
		}
	}
	return count, nil
}

// Position is where a new node goes: slot Index among Parent's children, which is row
// FlatIndex of the flat layout.
type Position struct {
	Parent       model.NodeID `json:"parent,omitempty"`
	Kind         model.Kind   `json:"kind"`
	Index        int          `json:"index"`
	FlatIndex    int          `json:"flatIndex"`
	CreatesGroup bool         `json:"createsGroup,omitempty"`
}

// InsertionPointFor computes where a new child of kind newKind goes under parentID.
//
// A new section goes after the chapter's last section (past that section's subsection
// group). A new subsection is appended to the section's subsection group; the group is
// created if the section has none.
func (t *Tree) InsertionPointFor(parentID model.NodeID, newKind model.Kind) (Position, error) {
	p, err := t.node(parentID)
	if err != nil {
		return Position{}, err
	}
	want, ok := p.Kind.ChildKind()
	if !ok || want != newKind {
		return Position{}, KindError{Parent: p.Kind, Child: newKind}
	}
	pos := Position{
		Parent: parentID,
		Kind:   newKind,
		Index:  len(p.Children),
	}
	start, end := t.flatSpan(parentID)
	switch newKind {
	case model.KindSection:
		pos.FlatIndex = end
	case model.KindSubsection:
		if p.Grouped && len(p.Children) > 0 {
			// Before the group-end row.
			pos.FlatIndex = end - 1
		} else {
			pos.CreatesGroup = true
			// Directly after the section row; loose subsections are folded into the new group.
			pos.FlatIndex = start + 2 + len(p.Children)
		}
	}
	return pos, nil
}

// order returns all node ids in document order.
func (t *Tree) order() []model.NodeID {
	out := make([]model.NodeID, 0, len(t.nodes))
	t.Walk(func(n Node, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

// flatSpan returns the half-open row range [start, end) that id and its descendants occupy
// in Flatten's output.
func (t *Tree) flatSpan(id model.NodeID) (int, int) {
	rows, owners := t.flatten()
	start, end := -1, -1
	inside := false
	for i, owner := range owners {
		if owner == id && !inside {
			start, inside = i, true
			continue
		}
		if inside && !t.isWithin(owner, id) {
			end = i
			break
		}
	}
	if start < 0 {
		return len(rows), len(rows)
	}
	if end < 0 {
		end = len(rows)
	}
	return start, end
}

// isWithin reports whether id is anc or one of its descendants.
func (t *Tree) isWithin(id, anc model.NodeID) bool {
	for cur := id; cur != ""; {
		if cur == anc {
			return true
		}
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = n.Parent
	}
	return false
}
