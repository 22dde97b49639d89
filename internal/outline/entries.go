package outline

import (
	"strconv"

	"folio/internal/model"
)

// Entry is one line of a rendered outline.
type Entry struct {
	ID      model.NodeID       `json:"id" yaml:"id"`
	Path    string             `json:"path" yaml:"path"`
	Depth   int                `json:"depth" yaml:"depth"`
	Kind    model.Kind         `json:"kind" yaml:"kind"`
	Number  string             `json:"number" yaml:"number"`
	Title   string             `json:"title" yaml:"title"`
	State   model.ContentState `json:"state" yaml:"state"`
	Preview string             `json:"preview,omitempty" yaml:"preview,omitempty"`

	HasChildren bool `json:"hasChildren,omitempty" yaml:"hasChildren,omitempty"`
	Collapsed   bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// Entries lists the outline in document order. With visibleOnly, children of collapsed
// nodes are left out.
func (t *Tree) Entries(visibleOnly bool) []Entry {
	var out []Entry
	var visit func(ids []model.NodeID, prefix string, depth int)
	visit = func(ids []model.NodeID, prefix string, depth int) {
		for i, id := range ids {
			n := t.nodes[id]
			if n == nil {
				continue
			}
			path := strconv.Itoa(i + 1)
			if prefix != "" {
				path = prefix + "." + path
			}
			out = append(out, Entry{
				ID:          n.ID,
				Path:        path,
				Depth:       depth,
				Kind:        n.Kind,
				Number:      n.Number,
				Title:       n.Title,
				State:       n.State,
				Preview:     n.Preview,
				HasChildren: len(n.Children) > 0,
				Collapsed:   n.Collapsed,
			})
			if visibleOnly && n.Collapsed {
				continue
			}
			visit(n.Children, path, depth+1)
		}
	}
	visit(t.roots, "", 0)
	return out
}
