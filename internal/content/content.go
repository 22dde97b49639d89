// Package content reconciles editing buffers with the persisted draft/final entries of each
// outline node.
//
// The final entry display-precedes the draft entry; a node with neither shows a placeholder.
// Entries are addressed by the node's qualified number, so renaming or renumbering a node
// requires Rekey.
package content

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/store"
)

const (
	EventSave = "content.save"

	placeholderMarkZH = "开始编写"
	placeholderMarkEN = "Start writing"
)

type Options struct {
	Locale numbering.Locale
	// PreviewLimit caps preview text in characters (runes). Zero means store.DefaultPreviewLimit.
	PreviewLimit int
	// Events receives a content.save event per save when set.
	Events store.EventLog
	Logger *zap.Logger
}

// Synchronizer is not safe for concurrent use; it shares the tree with its caller.
type Synchronizer struct {
	tree   *outline.Tree
	store  store.ContentStore
	events store.EventLog
	locale numbering.Locale
	limit  int
	log    *zap.Logger
	strip  *bluemonday.Policy
}

func New(tree *outline.Tree, st store.ContentStore, opts Options) *Synchronizer {
	limit := opts.PreviewLimit
	if limit <= 0 {
		limit = store.DefaultPreviewLimit
	}
	return &Synchronizer{
		tree:   tree,
		store:  st,
		events: opts.Events,
		locale: opts.Locale,
		limit:  limit,
		log:    logging.OrNop(opts.Logger),
		strip:  bluemonday.StrictPolicy(),
	}
}

// Stored is the raw state of a node's two entries. Blank entries count as absent.
type Stored struct {
	Draft    string `json:"draft,omitempty"`
	Final    string `json:"final,omitempty"`
	HasDraft bool   `json:"hasDraft"`
	HasFinal bool   `json:"hasFinal"`
}

func (st Stored) State() model.ContentState {
	switch {
	case st.HasFinal:
		return model.StateFinal
	case st.HasDraft:
		return model.StateDraft
	default:
		return model.StateEmpty
	}
}

// Key returns the store key of id's entry for variant.
func (s *Synchronizer) Key(id model.NodeID, variant model.Variant) (store.Key, error) {
	n, ok := s.tree.Find(id)
	if !ok {
		return store.Key{}, outline.NotFoundError{Kind: "node", ID: string(id)}
	}
	q, err := s.tree.QualifiedNumber(id)
	if err != nil {
		return store.Key{}, err
	}
	return store.Key{Kind: n.Kind, Number: q, Variant: variant}, nil
}

// Load reads both entries of id.
func (s *Synchronizer) Load(ctx context.Context, id model.NodeID) (Stored, error) {
	var out Stored
	for _, v := range []model.Variant{model.VariantDraft, model.VariantFinal} {
		k, err := s.Key(id, v)
		if err != nil {
			return Stored{}, err
		}
		val, ok, err := s.store.Get(ctx, k)
		if err != nil {
			return Stored{}, err
		}
		present := ok && strings.TrimSpace(val) != ""
		if v == model.VariantDraft {
			out.Draft, out.HasDraft = val, present
		} else {
			out.Final, out.HasFinal = val, present
		}
	}
	return out, nil
}

// Placeholder is the editor content shown for a node with nothing saved.
func (s *Synchronizer) Placeholder(number string) string {
	if s.locale == numbering.LocaleEN {
		return "<p>" + placeholderMarkEN + " " + number + "...</p>"
	}
	return "<p>" + placeholderMarkZH + " " + number + " 的内容...</p>"
}

// CurrentContent returns the final entry if present, else the draft, else the placeholder.
func (s *Synchronizer) CurrentContent(ctx context.Context, id model.NodeID) (string, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}
	switch {
	case st.HasFinal:
		return st.Final, nil
	case st.HasDraft:
		return st.Draft, nil
	}
	n, _ := s.tree.Find(id)
	return s.Placeholder(n.Number), nil
}

// HasUnsavedChanges reports whether buffer differs from id's current content.
func (s *Synchronizer) HasUnsavedChanges(ctx context.Context, id model.NodeID, buffer string) (bool, error) {
	cur, err := s.CurrentContent(ctx, id)
	if err != nil {
		return false, err
	}
	return cur != buffer, nil
}

// Save writes buffer as id's draft or final entry and refreshes the node's state and
// preview. A draft save never demotes a node that already has a final entry.
func (s *Synchronizer) Save(ctx context.Context, id model.NodeID, buffer string, asDraft bool) (outline.Node, error) {
	variant := model.VariantFinal
	if asDraft {
		variant = model.VariantDraft
	}
	k, err := s.Key(id, variant)
	if err != nil {
		s.log.Warn("save target not found", zap.String("node", string(id)))
		return outline.Node{}, err
	}
	if err := s.store.Set(ctx, k, buffer); err != nil {
		return outline.Node{}, err
	}
	if err := s.refresh(ctx, id); err != nil {
		return outline.Node{}, err
	}
	digest := xxhash.Sum64String(buffer)
	s.log.Debug("content saved", zap.String("key", k.String()), zap.Int("bytes", len(buffer)))
	if s.events != nil {
		_, err := s.events.AppendEvent(ctx, EventSave, k.Number, map[string]any{
			"key":     k.String(),
			"variant": string(variant),
			"bytes":   len(buffer),
			"digest":  fmt.Sprintf("%016x", digest),
		})
		if err != nil {
			return outline.Node{}, err
		}
	}
	n, _ := s.tree.Find(id)
	return n, nil
}

// refresh derives State and Preview of id from the store.
func (s *Synchronizer) refresh(ctx context.Context, id model.NodeID) error {
	st, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	shown := st.Draft
	if st.HasFinal {
		shown = st.Final
	}
	return s.tree.Update(id, func(n *outline.Node) {
		n.State = st.State()
		n.Preview = s.Preview(shown)
	})
}

// Refresh derives State and Preview of one node from the store. A node added under a number
// that a deleted node used picks up the entries still stored under that key.
func (s *Synchronizer) Refresh(ctx context.Context, id model.NodeID) (outline.Node, error) {
	if err := s.refresh(ctx, id); err != nil {
		return outline.Node{}, err
	}
	n, _ := s.tree.Find(id)
	return n, nil
}

// Restore derives State and Preview for every node. It runs once after an outline is loaded.
func (s *Synchronizer) Restore(ctx context.Context) error {
	for _, n := range s.tree.Nodes() {
		if err := s.refresh(ctx, n.ID); err != nil {
			return fmt.Errorf("restore %s: %w", n.Number, err)
		}
	}
	return nil
}

// Preview turns stored HTML into a short plain-text excerpt. Blank or placeholder content has
// no preview.
func (s *Synchronizer) Preview(content string) string {
	text := html.UnescapeString(s.strip.Sanitize(content))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || IsPlaceholder(text) {
		return ""
	}
	if utf8.RuneCountInString(text) > s.limit {
		r := []rune(text)
		return string(r[:s.limit]) + "..."
	}
	return text
}

// IsPlaceholder reports whether content is (or contains) a placeholder in any locale.
func IsPlaceholder(content string) bool {
	return strings.Contains(content, placeholderMarkZH) || strings.Contains(content, placeholderMarkEN)
}

// Rekey moves both entries of a node of kind from the qualified number from to to. Used when
// a strict renumber changes a node's number. A missing source entry clears the destination.
func (s *Synchronizer) Rekey(ctx context.Context, kind model.Kind, from, to string) error {
	if from == to {
		return nil
	}
	for _, v := range []model.Variant{model.VariantDraft, model.VariantFinal} {
		src := store.Key{Kind: kind, Number: from, Variant: v}
		dst := store.Key{Kind: kind, Number: to, Variant: v}
		val, ok, err := s.store.Get(ctx, src)
		if err != nil {
			return err
		}
		if ok {
			err = s.store.Set(ctx, dst, val)
		} else {
			err = s.store.Delete(ctx, dst)
		}
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, src); err != nil {
			return err
		}
	}
	s.log.Debug("content rekeyed", zap.String("from", from), zap.String("to", to))
	return nil
}
