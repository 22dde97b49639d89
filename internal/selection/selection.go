// Package selection holds the single active outline node and the context-menu target.
package selection

import (
	"go.uber.org/zap"

	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/numbering"
	"folio/internal/outline"
)

// Heading is what the editing pane shows for the active node.
type Heading struct {
	NodeID      model.NodeID `json:"nodeId,omitempty"`
	Number      string       `json:"number,omitempty"`
	Title       string       `json:"title,omitempty"`
	Text        string       `json:"text"`
	Description string       `json:"description,omitempty"`
}

// EditingPane is refreshed whenever the active node changes or is re-affirmed.
type EditingPane interface {
	Show(h Heading)
}

type Options struct {
	Locale numbering.Locale
	Pane   EditingPane
	Logger *zap.Logger
}

// Controller is the selection state machine: NoSelection or Active(node), plus the node the
// context menu is open for. It is not safe for concurrent use.
type Controller struct {
	tree   *outline.Tree
	pane   EditingPane
	locale numbering.Locale
	log    *zap.Logger

	active model.NodeID
	menu   model.NodeID
}

func New(tree *outline.Tree, opts Options) *Controller {
	return &Controller{
		tree:   tree,
		pane:   opts.Pane,
		locale: opts.Locale,
		log:    logging.OrNop(opts.Logger),
	}
}

// SetPane replaces the editing pane hook.
func (c *Controller) SetPane(p EditingPane) { c.pane = p }

// Select makes id the only active node. Selecting the active node again only refreshes the pane.
func (c *Controller) Select(id model.NodeID) (outline.Node, error) {
	n, ok := c.tree.Find(id)
	if !ok {
		c.log.Warn("select: node not found", zap.String("node", string(id)))
		return outline.Node{}, outline.NotFoundError{Kind: "node", ID: string(id)}
	}
	if c.active != id {
		c.log.Debug("node activated", zap.String("node", string(id)), zap.String("number", n.Number))
	}
	c.active = id
	c.show(c.HeadingFor(n))
	return n, nil
}

func (c *Controller) Clear() {
	if c.active == "" {
		return
	}
	c.active = ""
	c.show(c.HeadingFor(outline.Node{}))
}

func (c *Controller) Active() (model.NodeID, bool) {
	if c.active == "" {
		return "", false
	}
	if !c.tree.Contains(c.active) {
		c.active = ""
		return "", false
	}
	return c.active, true
}

func (c *Controller) ActiveNode() (outline.Node, bool) {
	id, ok := c.Active()
	if !ok {
		return outline.Node{}, false
	}
	return c.tree.Find(id)
}

// Forget drops references to deleted nodes. It reports whether the active node was among them.
func (c *Controller) Forget(ids ...model.NodeID) bool {
	cleared := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		if c.menu == id {
			c.menu = ""
		}
		if c.active == id {
			cleared = true
		}
	}
	if cleared {
		c.Clear()
	}
	return cleared
}

// ToggleMenu opens the context menu for id, moves it there from another node, or closes it
// when it is already open for id. It reports whether the menu is open afterwards.
func (c *Controller) ToggleMenu(id model.NodeID) (bool, error) {
	if !c.tree.Contains(id) {
		return false, outline.NotFoundError{Kind: "node", ID: string(id)}
	}
	if c.menu == id {
		c.menu = ""
		return false, nil
	}
	c.menu = id
	return true, nil
}

func (c *Controller) CloseMenu() { c.menu = "" }

func (c *Controller) MenuTarget() (model.NodeID, bool) {
	if c.menu == "" || !c.tree.Contains(c.menu) {
		c.menu = ""
		return "", false
	}
	return c.menu, true
}

// HeadingFor builds the editing-pane heading of n; the zero Node gives the empty-pane heading.
func (c *Controller) HeadingFor(n outline.Node) Heading {
	en := c.locale == numbering.LocaleEN
	if n.ID == "" {
		if en {
			return Heading{Text: "Select a chapter to start writing"}
		}
		return Heading{Text: "请选择要编写的章节"}
	}
	h := Heading{NodeID: n.ID, Number: n.Number, Title: n.Title}
	if en {
		h.Text = "Write " + n.Number + " " + n.Title
		h.Description = "Selected: " + n.Number + ". Press write to start writing."
	} else {
		h.Text = "编写 " + n.Number + " " + n.Title
		h.Description = "当前选中章节：" + n.Number + "，点击下方\"编写本章节\"开始编写内容"
	}
	return h
}

func (c *Controller) show(h Heading) {
	if c.pane != nil {
		c.pane.Show(h)
	}
}
