// Package page wires the outline core into one interactive document: it routes UI events to
// the selection controller and the dispatcher, and drives edit sessions.
package page

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"folio/internal/content"
	"folio/internal/dispatch"
	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/selection"
)

// ErrNoSelection is returned by Write when there is nothing to write into.
var ErrNoSelection = errors.New("no node selected")

// UI event names bound on the router.
const (
	EventMoreOptions = "more-options"
	EventDescription = "description"
	EventTitle       = "title"
	EventOutside     = "outside"
	EventWrite       = "write"
	eventMenuPrefix  = "menu:"
)

// Notifier shows transient, non-blocking feedback.
type Notifier interface {
	Notify(msg string)
}

// Editor receives a freshly opened edit session.
type Editor interface {
	Edit(se *content.Session)
}

type Deps struct {
	Tree       *outline.Tree
	Selection  *selection.Controller
	Content    *content.Synchronizer
	Dispatcher *dispatch.Dispatcher
	// Router defaults to a new router.
	Router *dispatch.Router
	// Confirmer asks before discarding unsaved edits.
	Confirmer dispatch.Confirmer
	Notifier  Notifier
	Editor    Editor
	Locale    numbering.Locale
	Logger    *zap.Logger
}

// Page is not safe for concurrent use.
type Page struct {
	d      Deps
	msg    messages
	log    *zap.Logger
	router *dispatch.Router

	restored bool
	last     dispatch.Result
	session  *content.Session
}

func New(d Deps) *Page {
	r := d.Router
	if r == nil {
		r = dispatch.NewRouter()
	}
	return &Page{d: d, msg: messagesFor(d.Locale), log: logging.OrNop(d.Logger), router: r}
}

func (p *Page) Router() *dispatch.Router { return p.router }

// Init binds the UI handlers, restores saved contents once and selects the first chapter
// when nothing is active. Running it again rebinds the same handlers in place.
func (p *Page) Init(ctx context.Context) error {
	p.router.Bind(EventMoreOptions, p.onMoreOptions)
	p.router.Bind(EventDescription, p.onDescription)
	p.router.Bind(EventTitle, p.onTitle)
	p.router.Bind(EventOutside, func(context.Context, model.NodeID) error {
		p.d.Selection.CloseMenu()
		return nil
	})
	p.router.Bind(EventWrite, func(ctx context.Context, _ model.NodeID) error {
		_, err := p.openWrite(ctx)
		return err
	})
	for _, cmd := range dispatch.Commands() {
		p.router.Bind(eventMenuPrefix+string(cmd), func(ctx context.Context, target model.NodeID) error {
			return p.runMenu(ctx, cmd, target)
		})
	}

	if !p.restored {
		if err := p.d.Content.Restore(ctx); err != nil {
			return err
		}
		p.restored = true
	}
	if _, ok := p.d.Selection.Active(); !ok {
		if first, ok := p.d.Tree.FirstChapter(); ok {
			if _, err := p.d.Selection.Select(first.ID); err != nil {
				return err
			}
		}
	}
	p.log.Debug("page initialized", zap.Strings("events", p.router.Names()))
	return nil
}

// ClickMoreOptions toggles the context menu on id.
func (p *Page) ClickMoreOptions(ctx context.Context, id model.NodeID) error {
	return p.router.Emit(ctx, EventMoreOptions, id)
}

// ClickDescription selects id. This is the only event that changes the selection.
func (p *Page) ClickDescription(ctx context.Context, id model.NodeID) error {
	return p.router.Emit(ctx, EventDescription, id)
}

// ClickTitle shows or hides id's children.
func (p *Page) ClickTitle(ctx context.Context, id model.NodeID) error {
	return p.router.Emit(ctx, EventTitle, id)
}

// ClickOutside closes the context menu.
func (p *Page) ClickOutside(ctx context.Context) error {
	return p.router.Emit(ctx, EventOutside, "")
}

// ChooseMenu runs cmd against the node the menu is open for and closes the menu.
func (p *Page) ChooseMenu(ctx context.Context, cmd dispatch.Command) (dispatch.Result, error) {
	target, ok := p.d.Selection.MenuTarget()
	if !ok {
		return dispatch.Result{}, outline.NotFoundError{Kind: "menu target", ID: string(cmd)}
	}
	return p.Run(ctx, cmd, target)
}

// Run executes cmd against id through the same handler the context menu uses.
func (p *Page) Run(ctx context.Context, cmd dispatch.Command, id model.NodeID) (dispatch.Result, error) {
	p.last = dispatch.Result{}
	err := p.router.Emit(ctx, eventMenuPrefix+string(cmd), id)
	return p.last, err
}

// AddChild adds a child titled title under id in one command; an empty title means the
// default summary text.
func (p *Page) AddChild(ctx context.Context, id model.NodeID, title string) (dispatch.Result, error) {
	res, err := p.d.Dispatcher.AddChildTitled(ctx, id, title)
	p.notifyErr(err)
	return res, err
}

// AddChapter appends a chapter to the outline.
func (p *Page) AddChapter(ctx context.Context, title string) (dispatch.Result, error) {
	res, err := p.d.Dispatcher.AddChapter(ctx, title)
	p.notifyErr(err)
	return res, err
}

// Rename changes id's title and refreshes the editing pane heading when id is active.
func (p *Page) Rename(ctx context.Context, id model.NodeID, title string) (outline.Node, error) {
	n, err := p.d.Dispatcher.Rename(ctx, id, title)
	if err != nil {
		p.notifyErr(err)
		return n, err
	}
	if active, ok := p.d.Selection.Active(); ok && active == id {
		_, err = p.d.Selection.Select(id)
	}
	return n, err
}

// Resolve finds a node by ordinal path ("1.2") or by qualified number ("第一章/第二节").
func (p *Page) Resolve(ref string) (outline.Node, error) {
	ref = strings.TrimSpace(ref)
	if n, err := p.d.Tree.Resolve(ref); err == nil {
		return n, nil
	}
	if n, ok := p.d.Tree.FindByNumber(ref); ok && ref != "" {
		return n, nil
	}
	return outline.Node{}, outline.NotFoundError{Kind: "node", ID: ref}
}

// Write opens an edit session for the active node, falling back to the first chapter.
func (p *Page) Write(ctx context.Context) (*content.Session, error) {
	if err := p.router.Emit(ctx, EventWrite, ""); err != nil {
		return nil, err
	}
	return p.session, nil
}

// WriteNode selects id and opens an edit session for it.
func (p *Page) WriteNode(ctx context.Context, id model.NodeID) (*content.Session, error) {
	if err := p.ClickDescription(ctx, id); err != nil {
		return nil, err
	}
	return p.Write(ctx)
}

// Save persists buffer through se. A draft save keeps the editor open and reports it.
func (p *Page) Save(ctx context.Context, se *content.Session, buffer string, asDraft bool) (outline.Node, error) {
	n, err := se.Save(ctx, buffer, asDraft)
	if err != nil {
		p.notifyErr(err)
		return outline.Node{}, err
	}
	if asDraft {
		p.notify(p.msg.draftSaved)
	} else {
		p.notify(p.msg.saved)
	}
	return n, nil
}

// CloseEditor closes se, asking before dropping unsaved changes. It reports whether the
// session is closed afterwards.
func (p *Page) CloseEditor(se *content.Session, buffer string) bool {
	err := se.Close(buffer, false)
	if errors.Is(err, content.ErrUnsaved) {
		if p.d.Confirmer == nil || !p.d.Confirmer.Confirm(p.msg.discardPrompt) {
			return false
		}
		err = se.Close(buffer, true)
	}
	if err == nil && p.session == se {
		p.session = nil
	}
	return err == nil
}

func (p *Page) onMoreOptions(_ context.Context, id model.NodeID) error {
	_, err := p.d.Selection.ToggleMenu(id)
	p.notifyErr(err)
	return err
}

func (p *Page) onDescription(_ context.Context, id model.NodeID) error {
	_, err := p.d.Selection.Select(id)
	p.notifyErr(err)
	return err
}

func (p *Page) onTitle(_ context.Context, id model.NodeID) error {
	n, ok := p.d.Tree.Find(id)
	if !ok {
		err := outline.NotFoundError{Kind: "node", ID: string(id)}
		p.notifyErr(err)
		return err
	}
	if len(n.Children) == 0 {
		return nil
	}
	return p.d.Tree.Update(id, func(n *outline.Node) { n.Collapsed = !n.Collapsed })
}

func (p *Page) runMenu(ctx context.Context, cmd dispatch.Command, target model.NodeID) error {
	p.d.Selection.CloseMenu()
	res, err := p.d.Dispatcher.Run(ctx, cmd, target)
	p.last = res
	if errors.Is(err, dispatch.ErrCancelled) {
		return err
	}
	p.notifyErr(err)
	return err
}

func (p *Page) openWrite(ctx context.Context) (*content.Session, error) {
	id, ok := p.d.Selection.Active()
	if !ok {
		first, ok := p.d.Tree.FirstChapter()
		if !ok {
			p.notify(p.msg.selectFirst)
			return nil, ErrNoSelection
		}
		if _, err := p.d.Selection.Select(first.ID); err != nil {
			return nil, err
		}
		id = first.ID
	}
	se, err := p.d.Content.Open(ctx, id)
	if err != nil {
		p.notifyErr(err)
		return nil, err
	}
	p.session = se
	if p.d.Editor != nil {
		p.d.Editor.Edit(se)
	}
	return se, nil
}

func (p *Page) notify(msg string) {
	if p.d.Notifier != nil && msg != "" {
		p.d.Notifier.Notify(msg)
	}
}

func (p *Page) notifyErr(err error) {
	switch {
	case err == nil:
	case errors.Is(err, outline.ErrNotFound):
		p.notify(p.msg.notFound)
	default:
		p.notify(err.Error())
	}
}
