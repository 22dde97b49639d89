package page

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"folio/internal/content"
	"folio/internal/dispatch"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/selection"
	"folio/internal/store"
)

// Backend is everything a page persists to; store.SQLite and store.Memory both qualify.
type Backend interface {
	store.ContentStore
	store.OutlineStore
	store.EventLog
}

type Options struct {
	Locale         numbering.Locale
	StrictRenumber bool
	PreviewLimit   int

	Confirmer dispatch.Confirmer
	Settings  dispatch.SettingsOpener
	Pane      selection.EditingPane
	Notifier  Notifier
	Editor    Editor
	Logger    *zap.Logger
}

// Load reads the saved outline from b and assembles a page over it. Init is not called.
func Load(ctx context.Context, b Backend, o Options) (*Page, error) {
	rows, _, err := b.LoadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}
	tree, err := outline.Parse(rows, outline.ParseOptions{Numbers: numbering.Formatter{Locale: o.Locale}})
	if err != nil {
		return nil, err
	}
	return Assemble(tree, b, o), nil
}

// Assemble wires the selection controller, the content synchronizer and the dispatcher over
// tree and b.
func Assemble(tree *outline.Tree, b Backend, o Options) *Page {
	sel := selection.New(tree, selection.Options{Locale: o.Locale, Pane: o.Pane, Logger: o.Logger})
	syncer := content.New(tree, b, content.Options{
		Locale:       o.Locale,
		PreviewLimit: o.PreviewLimit,
		Events:       b,
		Logger:       o.Logger,
	})
	x := dispatch.New(dispatch.Deps{
		Tree:           tree,
		Selection:      sel,
		Content:        syncer,
		Confirmer:      o.Confirmer,
		Settings:       o.Settings,
		Outline:        b,
		Events:         b,
		Locale:         o.Locale,
		StrictRenumber: o.StrictRenumber,
		Logger:         o.Logger,
	})
	return New(Deps{
		Tree:       tree,
		Selection:  sel,
		Content:    syncer,
		Dispatcher: x,
		Confirmer:  o.Confirmer,
		Notifier:   o.Notifier,
		Editor:     o.Editor,
		Locale:     o.Locale,
		Logger:     o.Logger,
	})
}

func (p *Page) Tree() *outline.Tree              { return p.d.Tree }
func (p *Page) Selection() *selection.Controller { return p.d.Selection }
func (p *Page) Content() *content.Synchronizer   { return p.d.Content }
func (p *Page) Dispatcher() *dispatch.Dispatcher { return p.d.Dispatcher }
func (p *Page) Locale() numbering.Locale         { return p.d.Locale }
func (p *Page) Session() *content.Session        { return p.session }

// SetNotifier and SetEditor let a UI attach itself after the page is built.
func (p *Page) SetNotifier(n Notifier) { p.d.Notifier = n }
func (p *Page) SetEditor(e Editor)     { p.d.Editor = e }
