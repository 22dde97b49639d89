// Package outline holds the chapter/section/subsection tree.
//
// Nodes live in an arena keyed by NodeID with explicit parent and child id lists. The flat,
// document-ordered row layout the outline is stored and imported in is only a codec
// (Parse/Flatten); all navigation works on the explicit structure.
//
// A Tree is not safe for concurrent use.
package outline

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"folio/internal/model"
)

type Node struct {
	ID     model.NodeID `json:"id" yaml:"id"`
	Kind   model.Kind   `json:"kind" yaml:"kind"`
	Number string       `json:"number" yaml:"number"`
	Title  string       `json:"title" yaml:"title"`

	State   model.ContentState `json:"state" yaml:"state"`
	Preview string             `json:"preview,omitempty" yaml:"preview,omitempty"`

	Parent   model.NodeID   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children []model.NodeID `json:"children,omitempty" yaml:"children,omitempty"`

	// Grouped marks a section whose subsections are kept in an explicit subsection group.
	Grouped bool `json:"grouped,omitempty" yaml:"grouped,omitempty"`
	// Collapsed hides the node's children in rendered outlines.
	Collapsed bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

func (n Node) clone() Node {
	n.Children = slices.Clone(n.Children)
	return n
}

type Tree struct {
	nodes map[model.NodeID]*Node
	roots []model.NodeID
	seq   int
}

func New() *Tree {
	return &Tree{nodes: map[model.NodeID]*Node{}}
}

func (t *Tree) nextID() model.NodeID {
	t.seq++
	return model.NodeID("n" + strconv.Itoa(t.seq))
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) node(id model.NodeID) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok || n == nil {
		return nil, errNodeNotFound(id)
	}
	return n, nil
}

// Find returns a copy of the node.
func (t *Tree) Find(id model.NodeID) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok || n == nil {
		return Node{}, false
	}
	return n.clone(), true
}

func (t *Tree) Contains(id model.NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

func (t *Tree) Chapters() []Node {
	out := make([]Node, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id].clone())
	}
	return out
}

// FirstChapter returns the first chapter in document order.
func (t *Tree) FirstChapter() (Node, bool) {
	if len(t.roots) == 0 {
		return Node{}, false
	}
	return t.nodes[t.roots[0]].clone(), true
}

// siblings returns the id list that contains id (its parent's children, or the roots).
func (t *Tree) siblings(n *Node) []model.NodeID {
	if n.Parent == "" {
		return t.roots
	}
	if p, ok := t.nodes[n.Parent]; ok {
		return p.Children
	}
	return nil
}

// Ordinal returns the 1-based position of id among its siblings.
func (t *Tree) Ordinal(id model.NodeID) (int, error) {
	n, err := t.node(id)
	if err != nil {
		return 0, err
	}
	i := slices.Index(t.siblings(n), id)
	if i < 0 {
		return 0, errNodeNotFound(id)
	}
	return i + 1, nil
}

func (t *Tree) ParentOf(id model.NodeID) (Node, bool, error) {
	n, err := t.node(id)
	if err != nil {
		return Node{}, false, err
	}
	if n.Parent == "" {
		return Node{}, false, nil
	}
	p, err := t.node(n.Parent)
	if err != nil {
		return Node{}, false, err
	}
	return p.clone(), true, nil
}

// Walk visits every node in document order. Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	var visit func(ids []model.NodeID, depth int) bool
	visit = func(ids []model.NodeID, depth int) bool {
		for _, id := range ids {
			n := t.nodes[id]
			if n == nil {
				continue
			}
			if !fn(n.clone(), depth) {
				return false
			}
			if !visit(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(t.roots, 0)
}

// Nodes returns every node in document order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	t.Walk(func(n Node, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Update applies fn to the stored node. Structural fields (ID, Kind, Parent, Children) are
// restored after fn returns; use Insert/DeleteSubtree for structure.
func (t *Tree) Update(id model.NodeID, fn func(n *Node)) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	keep := *n
	fn(n)
	n.ID, n.Kind, n.Parent, n.Children = keep.ID, keep.Kind, keep.Parent, keep.Children
	if n.Kind != model.KindSection {
		n.Grouped = false
	}
	return nil
}

// Path returns the ordinal path from the chapter down to id, e.g. [1 2 1].
func (t *Tree) Path(id model.NodeID) ([]int, error) {
	var rev []int
	cur := id
	for cur != "" {
		n, err := t.node(cur)
		if err != nil {
			return nil, err
		}
		ord, err := t.Ordinal(cur)
		if err != nil {
			return nil, err
		}
		rev = append(rev, ord)
		cur = n.Parent
	}
	slices.Reverse(rev)
	return rev, nil
}

func (t *Tree) PathString(id model.NodeID) (string, error) {
	p, err := t.Path(id)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "."), nil
}

// Resolve finds a node by dotted ordinal path ("2", "2.1", "2.1.3").
func (t *Tree) Resolve(path string) (Node, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Node{}, NotFoundError{Kind: "path", ID: path}
	}
	ids := t.roots
	var cur *Node
	for _, part := range strings.Split(path, ".") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || i < 1 || i > len(ids) {
			return Node{}, NotFoundError{Kind: "path", ID: path}
		}
		cur = t.nodes[ids[i-1]]
		ids = cur.Children
	}
	return cur.clone(), nil
}

// QualifiedNumber joins the display numbers from the chapter down to id with "/".
// Section numbers repeat across chapters, so this is what identifies a node's content.
func (t *Tree) QualifiedNumber(id model.NodeID) (string, error) {
	var rev []string
	cur := id
	for cur != "" {
		n, err := t.node(cur)
		if err != nil {
			return "", err
		}
		rev = append(rev, n.Number)
		cur = n.Parent
	}
	slices.Reverse(rev)
	return strings.Join(rev, "/"), nil
}

// FindByNumber returns the node whose qualified number (see QualifiedNumber) is q.
func (t *Tree) FindByNumber(q string) (Node, bool) {
	var found Node
	ok := false
	t.Walk(func(n Node, _ int) bool {
		if qn, err := t.QualifiedNumber(n.ID); err == nil && qn == q {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Check verifies the structural invariants of the arena.
func (t *Tree) Check() error {
	seen := map[model.NodeID]bool{}
	var errs []error
	var visit func(parent *Node, ids []model.NodeID)
	visit = func(parent *Node, ids []model.NodeID) {
		for _, id := range ids {
			n, ok := t.nodes[id]
			if !ok {
				errs = append(errs, fmt.Errorf("dangling child %s", id))
				continue
			}
			if seen[id] {
				errs = append(errs, fmt.Errorf("node %s reachable twice", id))
				continue
			}
			seen[id] = true
			if parent == nil {
				if n.Kind != model.KindChapter || n.Parent != "" {
					errs = append(errs, fmt.Errorf("top-level node %s is %s with parent %q", id, n.Kind, n.Parent))
				}
			} else {
				want, _ := parent.Kind.ChildKind()
				if n.Kind != want {
					errs = append(errs, fmt.Errorf("node %s: %s under %s", id, n.Kind, parent.Kind))
				}
				if n.Parent != parent.ID {
					errs = append(errs, fmt.Errorf("node %s: parent %s, listed under %s", id, n.Parent, parent.ID))
				}
			}
			if n.Grouped && n.Kind != model.KindSection {
				errs = append(errs, fmt.Errorf("node %s: only sections hold subsection groups", id))
			}
			visit(n, n.Children)
		}
	}
	visit(nil, t.roots)
	if len(seen) != len(t.nodes) {
		errs = append(errs, fmt.Errorf("%d detached nodes", len(t.nodes)-len(seen)))
	}
	return errors.Join(errs...)
}
