// Package dispatch runs the structural commands of the outline context menu.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"folio/internal/content"
	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/selection"
	"folio/internal/store"
)

// ErrCancelled means the user declined a confirmation; nothing changed.
var ErrCancelled = errors.New("cancelled")

type Command string

const (
	CmdDelete       Command = "delete"
	CmdAddChild     Command = "add-child"
	CmdOpenSettings Command = "open-settings"
)

const (
	EventNodeAdd    = "node.add"
	EventNodeDelete = "node.delete"
	EventNodeRename = "node.rename"
)

// Commands lists the context-menu commands in menu order.
func Commands() []Command { return []Command{CmdAddChild, CmdOpenSettings, CmdDelete} }

// ParseCommand accepts command names and the menu labels of both locales.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delete", "rm", "删除":
		return CmdDelete, nil
	case "add-child", "add", "新增子章节":
		return CmdAddChild, nil
	case "open-settings", "settings", "章节设置":
		return CmdOpenSettings, nil
	default:
		return "", fmt.Errorf("unknown command: %q", s)
	}
}

// Label is the menu text of c.
func (c Command) Label(loc numbering.Locale) string {
	en := loc == numbering.LocaleEN
	switch c {
	case CmdDelete:
		if en {
			return "Delete"
		}
		return "删除"
	case CmdAddChild:
		if en {
			return "Add child"
		}
		return "新增子章节"
	case CmdOpenSettings:
		if en {
			return "Settings"
		}
		return "章节设置"
	}
	return string(c)
}

// Confirmer answers a yes/no question synchronously.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Settings is the read-only view handed to a SettingsOpener.
type Settings struct {
	ID              model.NodeID       `json:"id"`
	Kind            model.Kind         `json:"kind"`
	Number          string             `json:"number"`
	QualifiedNumber string             `json:"qualifiedNumber"`
	Title           string             `json:"title"`
	Path            string             `json:"path"`
	State           model.ContentState `json:"state"`
	Children        int                `json:"children"`
}

type SettingsOpener interface {
	OpenSettings(s Settings)
}

type Deps struct {
	Tree      *outline.Tree
	Selection *selection.Controller
	// Content is used to move entries when StrictRenumber changes numbers.
	Content   *content.Synchronizer
	Confirmer Confirmer
	Settings  SettingsOpener
	// Outline, when set, receives the flat layout after every structural change.
	Outline store.OutlineStore
	Events  store.EventLog

	Locale         numbering.Locale
	StrictRenumber bool
	Logger         *zap.Logger
}

// Result describes what a command did.
type Result struct {
	Command    Command              `json:"command"`
	Target     model.NodeID         `json:"target"`
	Added      *outline.Node        `json:"added,omitempty"`
	Removed    []outline.Node       `json:"removed,omitempty"`
	Renumbered []outline.Renumbered `json:"renumbered,omitempty"`
	Settings   *Settings            `json:"settings,omitempty"`
}

// Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	d   Deps
	num numbering.Formatter
	log *zap.Logger
}

func New(d Deps) *Dispatcher {
	return &Dispatcher{d: d, num: numbering.Formatter{Locale: d.Locale}, log: logging.OrNop(d.Logger)}
}

// Run executes cmd against target. The target is explicit and independent of the selection.
func (x *Dispatcher) Run(ctx context.Context, cmd Command, target model.NodeID) (Result, error) {
	switch cmd {
	case CmdDelete:
		return x.Delete(ctx, target)
	case CmdAddChild:
		return x.AddChild(ctx, target)
	case CmdOpenSettings:
		return x.OpenSettings(target)
	default:
		return Result{}, fmt.Errorf("unknown command: %q", cmd)
	}
}

// DeletePrompt is the confirmation question for deleting n.
func (x *Dispatcher) DeletePrompt(n outline.Node) string {
	if x.d.Locale == numbering.LocaleEN {
		return fmt.Sprintf("Delete %s %s and everything under it?", n.Number, n.Title)
	}
	return fmt.Sprintf("确定要删除此章节吗？（%s %s）", n.Number, n.Title)
}

// Delete removes target and its subtree after confirmation.
func (x *Dispatcher) Delete(ctx context.Context, target model.NodeID) (Result, error) {
	res := Result{Command: CmdDelete, Target: target}
	n, ok := x.d.Tree.Find(target)
	if !ok {
		x.log.Warn("delete: node not found", zap.String("node", string(target)))
		return res, outline.NotFoundError{Kind: "node", ID: string(target)}
	}
	if x.d.Confirmer == nil || !x.d.Confirmer.Confirm(x.DeletePrompt(n)) {
		x.log.Info("delete cancelled", zap.String("node", string(target)))
		return res, ErrCancelled
	}

	qualified, _ := x.d.Tree.QualifiedNumber(target)
	var before map[model.NodeID]string
	if x.d.StrictRenumber {
		before = x.scopeNumbers(n.Parent)
	}

	removed, err := x.d.Tree.DeleteSubtree(target)
	if err != nil {
		return res, err
	}
	res.Removed = removed
	if x.d.Selection != nil {
		ids := make([]model.NodeID, len(removed))
		for i, r := range removed {
			ids[i] = r.ID
		}
		x.d.Selection.Forget(ids...)
	}

	if x.d.StrictRenumber {
		changes, err := x.d.Tree.Renumber(n.Parent, x.num)
		if err != nil {
			return res, err
		}
		res.Renumbered = changes
		if err := x.rekey(ctx, before); err != nil {
			return res, fmt.Errorf("move content after renumber: %w", err)
		}
	}

	numbers := make([]string, 0, len(removed))
	for _, r := range removed {
		numbers = append(numbers, r.Number)
	}
	x.log.Info("node deleted", zap.String("node", qualified), zap.Int("removed", len(removed)))
	if err := x.record(ctx, EventNodeDelete, qualified, map[string]any{
		"kind":    string(n.Kind),
		"title":   n.Title,
		"removed": numbers,
	}); err != nil {
		return res, err
	}
	return res, x.persist(ctx)
}

// scopeNumbers snapshots the qualified numbers of every node under parent (the whole outline
// for chapters), in document order.
func (x *Dispatcher) scopeNumbers(parent model.NodeID) map[model.NodeID]string {
	out := map[model.NodeID]string{}
	x.d.Tree.Walk(func(n outline.Node, _ int) bool {
		if parent == "" || x.isUnder(n.ID, parent) {
			if q, err := x.d.Tree.QualifiedNumber(n.ID); err == nil {
				out[n.ID] = q
			}
		}
		return true
	})
	return out
}

func (x *Dispatcher) isUnder(id, anc model.NodeID) bool {
	for {
		p, ok, _ := x.d.Tree.ParentOf(id)
		if !ok {
			return false
		}
		if p.ID == anc {
			return true
		}
		id = p.ID
	}
}

// rekey moves content entries of renumbered nodes. Moves run in document order: after a
// delete numbers only shift down, so each destination was vacated by an earlier move.
func (x *Dispatcher) rekey(ctx context.Context, before map[model.NodeID]string) error {
	if x.d.Content == nil {
		return nil
	}
	var err error
	x.d.Tree.Walk(func(n outline.Node, _ int) bool {
		old, ok := before[n.ID]
		if !ok {
			return true
		}
		now, qerr := x.d.Tree.QualifiedNumber(n.ID)
		if qerr != nil || now == old {
			return true
		}
		if err = x.d.Content.Rekey(ctx, n.Kind, old, now); err != nil {
			return false
		}
		return true
	})
	return err
}

// AddChild appends a new empty child under target. Its number comes from counting the
// parent's existing children of the new kind, as the lazy renumber policy requires.
func (x *Dispatcher) AddChild(ctx context.Context, target model.NodeID) (Result, error) {
	return x.AddChildTitled(ctx, target, "")
}

// AddChildTitled is AddChild with a title; an empty title means DefaultTitle.
func (x *Dispatcher) AddChildTitled(ctx context.Context, target model.NodeID, title string) (Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = x.DefaultTitle()
	}
	res := Result{Command: CmdAddChild, Target: target}
	parent, ok := x.d.Tree.Find(target)
	if !ok {
		x.log.Warn("add-child: node not found", zap.String("node", string(target)))
		return res, outline.NotFoundError{Kind: "node", ID: string(target)}
	}
	kind, ok := parent.Kind.ChildKind()
	if !ok {
		x.log.Warn("add-child: node cannot have children", zap.String("node", string(target)))
		return res, outline.KindError{Parent: parent.Kind, Child: model.KindSubsection}
	}
	pos, err := x.d.Tree.InsertionPointFor(target, kind)
	if err != nil {
		return res, err
	}
	count, err := x.d.Tree.CountInScope(target, kind)
	if err != nil {
		return res, err
	}
	kids, _ := x.d.Tree.ChildrenOf(parent.ID)
	number := x.nextFreeNumber(kids, kind.Level(), count+1)

	n, err := x.d.Tree.Insert(pos, outline.Node{
		Kind:   kind,
		Number: number,
		Title:  title,
		State:  model.StateEmpty,
	})
	if err != nil {
		return res, err
	}
	if n, err = x.syncState(ctx, n); err != nil {
		return res, err
	}
	res.Added = &n

	qualified, _ := x.d.Tree.QualifiedNumber(n.ID)
	x.log.Info("node added", zap.String("node", qualified), zap.String("kind", string(kind)))
	if err := x.record(ctx, EventNodeAdd, qualified, map[string]any{
		"kind":      string(kind),
		"parent":    parent.Number,
		"flatIndex": pos.FlatIndex,
	}); err != nil {
		return res, err
	}
	return res, x.persist(ctx)
}

// syncState reads the stored entries of a freshly added node. Entries of a deleted node stay
// in the store, so a reused number brings its content back.
func (x *Dispatcher) syncState(ctx context.Context, n outline.Node) (outline.Node, error) {
	if x.d.Content == nil {
		return n, nil
	}
	return x.d.Content.Refresh(ctx, n.ID)
}

// nextFreeNumber formats ordinal, moving past numbers a sibling already carries. That only
// happens after lazy deletes, where the count no longer matches the highest number.
func (x *Dispatcher) nextFreeNumber(siblings []outline.Node, level, ordinal int) string {
	used := map[string]bool{}
	for _, k := range siblings {
		used[k.Number] = true
	}
	for {
		n := x.num.Number(level, ordinal)
		if !used[n] {
			return n
		}
		ordinal++
	}
}

// AddChapter appends a chapter at the end of the outline. An empty title means DefaultTitle.
func (x *Dispatcher) AddChapter(ctx context.Context, title string) (Result, error) {
	res := Result{Command: CmdAddChild}
	if strings.TrimSpace(title) == "" {
		title = x.DefaultTitle()
	}
	chapters := x.d.Tree.Chapters()
	n := x.d.Tree.AppendChapter(x.nextFreeNumber(chapters, 1, len(chapters)+1), strings.TrimSpace(title))
	n, err := x.syncState(ctx, n)
	if err != nil {
		return res, err
	}
	res.Added = &n
	x.log.Info("chapter added", zap.String("node", n.Number))
	if err := x.record(ctx, EventNodeAdd, n.Number, map[string]any{"kind": string(model.KindChapter)}); err != nil {
		return res, err
	}
	return res, x.persist(ctx)
}

// Rename replaces the title (the content summary) of target. Numbers and contents are kept.
func (x *Dispatcher) Rename(ctx context.Context, target model.NodeID, title string) (outline.Node, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return outline.Node{}, errors.New("title is empty")
	}
	old, ok := x.d.Tree.Find(target)
	if !ok {
		x.log.Warn("rename: node not found", zap.String("node", string(target)))
		return outline.Node{}, outline.NotFoundError{Kind: "node", ID: string(target)}
	}
	if err := x.d.Tree.Update(target, func(n *outline.Node) { n.Title = title }); err != nil {
		return outline.Node{}, err
	}
	n, _ := x.d.Tree.Find(target)
	q, _ := x.d.Tree.QualifiedNumber(target)
	if err := x.record(ctx, EventNodeRename, q, map[string]any{"from": old.Title, "to": title}); err != nil {
		return n, err
	}
	return n, x.persist(ctx)
}

// DefaultTitle is the title of a freshly added node.
func (x *Dispatcher) DefaultTitle() string {
	if x.d.Locale == numbering.LocaleEN {
		return "Summary of this section"
	}
	return "章节内容概述"
}

// OpenSettings passes target's read-only settings to the settings collaborator.
func (x *Dispatcher) OpenSettings(target model.NodeID) (Result, error) {
	res := Result{Command: CmdOpenSettings, Target: target}
	st, err := x.SettingsFor(target)
	if err != nil {
		x.log.Warn("open-settings: node not found", zap.String("node", string(target)))
		return res, err
	}
	res.Settings = &st
	if x.d.Settings != nil {
		x.d.Settings.OpenSettings(st)
	}
	return res, nil
}

func (x *Dispatcher) SettingsFor(target model.NodeID) (Settings, error) {
	n, ok := x.d.Tree.Find(target)
	if !ok {
		return Settings{}, outline.NotFoundError{Kind: "node", ID: string(target)}
	}
	path, err := x.d.Tree.PathString(target)
	if err != nil {
		return Settings{}, err
	}
	q, err := x.d.Tree.QualifiedNumber(target)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		ID:              n.ID,
		Kind:            n.Kind,
		Number:          n.Number,
		QualifiedNumber: q,
		Title:           n.Title,
		Path:            path,
		State:           n.State,
		Children:        len(n.Children),
	}, nil
}

func (x *Dispatcher) record(ctx context.Context, typ, entity string, payload map[string]any) error {
	if x.d.Events == nil {
		return nil
	}
	_, err := x.d.Events.AppendEvent(ctx, typ, entity, payload)
	return err
}

func (x *Dispatcher) persist(ctx context.Context) error {
	if x.d.Outline == nil {
		return nil
	}
	return x.d.Outline.SaveRows(ctx, x.d.Tree.Flatten())
}
