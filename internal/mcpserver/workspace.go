// Package mcpserver exposes a folio workspace to agents over the Model Context Protocol.
//
// Tool calls are serialized on the workspace mutex; the outline core itself is not safe for
// concurrent use.
package mcpserver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/page"
)

// approval answers the next confirmation with the value armed for the current call.
type approval struct {
	ok bool
}

func (a *approval) Confirm(string) bool {
	ok := a.ok
	a.ok = false
	return ok
}

// Workspace is one loaded outline shared by all tools.
type Workspace struct {
	mu   sync.Mutex
	page *page.Page
	gate approval
	log  *zap.Logger
}

// Open loads the outline of b. o.Confirmer is replaced: deletes are confirmed by the
// caller's confirm argument.
func Open(ctx context.Context, b page.Backend, o page.Options) (*Workspace, error) {
	w := &Workspace{log: logging.OrNop(o.Logger)}
	o.Confirmer = &w.gate
	p, err := page.Load(ctx, b, o)
	if err != nil {
		return nil, err
	}
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	w.page = p
	return w, nil
}

// with runs fn with the workspace locked.
func (w *Workspace) with(fn func(p *page.Page) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.page)
}

func describe(p *page.Page, id model.NodeID) string {
	st, err := p.Dispatcher().SettingsFor(id)
	if err != nil {
		return string(id)
	}
	return fmt.Sprintf("%s %s %s", st.Path, st.Number, st.Title)
}
