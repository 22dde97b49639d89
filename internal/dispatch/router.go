package dispatch

import (
	"context"
	"fmt"
	"sort"

	"folio/internal/model"
)

// Handler reacts to a UI event aimed at target (which may be empty).
type Handler func(ctx context.Context, target model.NodeID) error

// Router holds one handler per event name. Binding a name again replaces the previous
// handler, so repeated initialization never stacks effects.
type Router struct {
	handlers map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: map[string]Handler{}}
}

// Bind attaches h to name, detaching whatever was bound before. It reports whether a
// previous binding was replaced.
func (r *Router) Bind(name string, h Handler) bool {
	_, replaced := r.handlers[name]
	if h == nil {
		delete(r.handlers, name)
		return replaced
	}
	r.handlers[name] = h
	return replaced
}

func (r *Router) Bound(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the bound event names, sorted.
func (r *Router) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Emit runs the handler bound to name.
func (r *Router) Emit(ctx context.Context, name string, target model.NodeID) error {
	h, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("no handler bound for %q", name)
	}
	return h(ctx, target)
}
