package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"folio/internal/content"
	"folio/internal/dispatch"
	"folio/internal/logging"
	"folio/internal/model"
	"folio/internal/outline"
	"folio/internal/page"
	"folio/internal/selection"
	"folio/internal/store"
)

type flashDoneMsg struct{ seq int }

type storeChangedMsg struct{}

const flashDuration = 2500 * time.Millisecond

type editorState struct {
	se *content.Session
	ta textarea.Model
}

type settingsState struct {
	s     dispatch.Settings
	title textinput.Model
}

// appModel is a pointer model: the page calls back into it (pane, notifier, editor and
// settings hooks) while a command runs.
type appModel struct {
	ctx  context.Context
	opts Options
	page *page.Page
	gate *approval
	log  *zap.Logger
	keys keyMap
	help help.Model

	width  int
	height int

	entries      []outline.Entry
	cursor       int
	offset       int
	followActive bool

	heading     selection.Heading
	preview     viewport.Model
	showPreview bool

	menuIndex int
	confirm   *confirmState
	settings  *settingsState
	editor    *editorState

	flashMsg string
	flashErr bool
	flashSeq int

	pending []tea.Cmd

	watcher       *storeWatcher
	lastEventID   string
	lastSaved     time.Time
	pendingReload bool
}

func newAppModel(ctx context.Context, o Options) (*appModel, error) {
	m := &appModel{
		ctx:     ctx,
		opts:    o,
		gate:    &approval{},
		log:     logging.OrNop(o.Logger),
		keys:    newKeyMap(),
		help:    help.New(),
		preview: viewport.New(40, 10),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	st, err := o.Store.LoadTUIState()
	if err != nil {
		m.log.Warn("load tui state", zap.Error(err))
	} else {
		m.applyState(st)
	}
	m.refresh()
	m.markEvents()
	return m, nil
}

// load (re)builds the page from the backend.
func (m *appModel) load() error {
	po := m.opts.Page
	po.Confirmer = m.gate
	po.Pane = m
	po.Notifier = m
	po.Editor = m
	po.Settings = m
	po.Logger = m.log
	p, err := page.Load(m.ctx, m.opts.Backend, po)
	if err != nil {
		return err
	}
	if err := p.Init(m.ctx); err != nil {
		return err
	}
	m.page = p
	return nil
}

// Show implements selection.EditingPane.
func (m *appModel) Show(h selection.Heading) {
	m.heading = h
	m.followActive = true
}

// Notify implements page.Notifier.
func (m *appModel) Notify(msg string) { m.flash(msg, false) }

// Edit implements page.Editor.
func (m *appModel) Edit(se *content.Session) {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = ""
	ta.SetValue(se.Baseline())
	w, h := m.editorSize()
	ta.SetWidth(w)
	ta.SetHeight(h)
	m.pending = append(m.pending, ta.Focus())
	m.editor = &editorState{se: se, ta: ta}
}

// OpenSettings implements dispatch.SettingsOpener.
func (m *appModel) OpenSettings(s dispatch.Settings) {
	ti := textinput.New()
	ti.SetValue(s.Title)
	ti.CharLimit = 200
	ti.Width = 40
	m.pending = append(m.pending, ti.Focus())
	m.settings = &settingsState{s: s, title: ti}
}

func (m *appModel) flash(msg string, isErr bool) {
	if msg == "" {
		return
	}
	m.flashSeq++
	m.flashMsg = msg
	m.flashErr = isErr
	seq := m.flashSeq
	m.pending = append(m.pending, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashDoneMsg{seq: seq}
	}))
}

func (m *appModel) Init() tea.Cmd {
	return m.watchCmd()
}

func (m *appModel) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flashMsg = ""
		}

	case storeChangedMsg:
		m.onStoreChanged()
		cmds = append(cmds, m.watchCmd())

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		if m.editor != nil {
			var cmd tea.Cmd
			m.editor.ta, cmd = m.editor.ta.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, m.pending...)
	m.pending = nil
	return m, tea.Batch(cmds...)
}

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case m.confirm != nil:
		m.confirmKey(msg)
		return nil
	case m.settings != nil:
		return m.settingsKey(msg)
	case m.editor != nil:
		return m.editorKey(msg)
	}
	if _, open := m.page.Selection().MenuTarget(); open {
		m.menuKey(msg)
		return nil
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.saveState()
		return tea.Quit
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.Select):
		if id, ok := m.cursorID(); ok {
			_ = m.page.ClickDescription(m.ctx, id)
			m.refresh()
		}
	case key.Matches(msg, k.Collapse):
		if id, ok := m.cursorID(); ok {
			_ = m.page.ClickTitle(m.ctx, id)
			m.refresh()
		}
	case key.Matches(msg, k.Menu):
		if id, ok := m.cursorID(); ok {
			_ = m.page.ClickMoreOptions(m.ctx, id)
			m.menuIndex = 0
		}
	case key.Matches(msg, k.Add):
		if id, ok := m.cursorID(); ok {
			m.runCommand(dispatch.CmdAddChild, id, false)
		}
	case key.Matches(msg, k.Chapter):
		res, err := m.page.AddChapter(m.ctx, "")
		m.afterResult(res, err)
	case key.Matches(msg, k.Delete):
		if id, ok := m.cursorID(); ok {
			m.runCommand(dispatch.CmdDelete, id, false)
		}
	case key.Matches(msg, k.Settings):
		if id, ok := m.cursorID(); ok {
			m.runCommand(dispatch.CmdOpenSettings, id, false)
		}
	case key.Matches(msg, k.Write):
		m.openEditor()
	case key.Matches(msg, k.Copy):
		m.copyActive()
	case key.Matches(msg, k.Preview):
		m.showPreview = !m.showPreview
		m.refreshPreview()
	}
	return nil
}

func (m *appModel) menuKey(msg tea.KeyMsg) {
	cmds := dispatch.Commands()
	switch msg.String() {
	case "esc", "q", "m":
		_ = m.page.ClickOutside(m.ctx)
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(cmds)-1 {
			m.menuIndex++
		}
	case "enter":
		if target, ok := m.page.Selection().MenuTarget(); ok {
			m.runCommand(cmds[m.menuIndex], target, true)
		}
	}
}

func (m *appModel) confirmKey(msg tea.KeyMsg) {
	c := m.confirm
	switch msg.String() {
	case "y", "Y":
		m.confirm = nil
		c.onYes()
	case "n", "N", "esc", "ctrl+g":
		m.confirm = nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
	case "enter":
		m.confirm = nil
		if c.focus == confirmFocusConfirm {
			c.onYes()
		}
	}
	if m.confirm == nil && m.editor == nil && m.pendingReload {
		m.onStoreChanged()
	}
}

func (m *appModel) settingsKey(msg tea.KeyMsg) tea.Cmd {
	st := m.settings
	switch msg.String() {
	case "esc":
		m.settings = nil
		return nil
	case "enter":
		m.settings = nil
		if title := st.title.Value(); title != st.s.Title {
			_, err := m.page.Rename(m.ctx, st.s.ID, title)
			m.afterResult(dispatch.Result{}, err)
		}
		return nil
	}
	var cmd tea.Cmd
	st.title, cmd = st.title.Update(msg)
	return cmd
}

func (m *appModel) editorKey(msg tea.KeyMsg) tea.Cmd {
	ed := m.editor
	switch {
	case key.Matches(msg, m.keys.SaveFinal):
		if _, err := m.page.Save(m.ctx, ed.se, ed.ta.Value(), false); err == nil {
			m.lastSaved = time.Now()
			if m.page.CloseEditor(ed.se, ed.ta.Value()) {
				m.editor = nil
			}
		}
		m.afterEdit()
		return nil
	case key.Matches(msg, m.keys.SaveDraft):
		if _, err := m.page.Save(m.ctx, ed.se, ed.ta.Value(), true); err == nil {
			m.lastSaved = time.Now()
		}
		m.afterEdit()
		return nil
	case key.Matches(msg, m.keys.Close), msg.String() == "ctrl+c":
		m.closeEditor()
		return nil
	}
	var cmd tea.Cmd
	ed.ta, cmd = ed.ta.Update(msg)
	return cmd
}

func (m *appModel) openEditor() {
	var err error
	if id, ok := m.cursorID(); ok {
		_, err = m.page.WriteNode(m.ctx, id)
	} else {
		_, err = m.page.Write(m.ctx)
	}
	if err != nil && !errors.Is(err, page.ErrNoSelection) {
		m.log.Warn("open editor", zap.Error(err))
	}
	m.refresh()
}

func (m *appModel) closeEditor() {
	ed := m.editor
	if m.page.CloseEditor(ed.se, ed.ta.Value()) {
		m.editor = nil
		m.afterEdit()
		return
	}
	prompt := m.gate.take()
	if prompt == "" {
		return
	}
	m.confirm = &confirmState{prompt: prompt, focus: confirmFocusCancel, onYes: func() {
		m.gate.arm()
		if m.page.CloseEditor(ed.se, ed.ta.Value()) {
			m.editor = nil
		}
		m.afterEdit()
	}}
}

func (m *appModel) afterEdit() {
	m.refresh()
	m.markEvents()
	if m.editor == nil && m.pendingReload {
		m.onStoreChanged()
	}
}

// runCommand runs cmd against target. A refused confirmation is asked again in a modal and the
// command is rerun once the user agrees.
func (m *appModel) runCommand(cmd dispatch.Command, target model.NodeID, viaMenu bool) {
	var (
		res dispatch.Result
		err error
	)
	if viaMenu {
		res, err = m.page.ChooseMenu(m.ctx, cmd)
	} else {
		res, err = m.page.Run(m.ctx, cmd, target)
	}
	if errors.Is(err, dispatch.ErrCancelled) {
		if prompt := m.gate.take(); prompt != "" {
			m.confirm = &confirmState{prompt: prompt, focus: confirmFocusCancel, onYes: func() {
				m.gate.arm()
				m.afterResult(m.page.Run(m.ctx, cmd, target))
			}}
		}
		return
	}
	m.afterResult(res, err)
}

func (m *appModel) afterResult(res dispatch.Result, err error) {
	if err != nil {
		m.log.Debug("command failed", zap.String("command", string(res.Command)), zap.Error(err))
	}
	m.refresh()
	if res.Added != nil {
		m.moveCursorTo(res.Added.ID)
	}
	m.markEvents()
}

func (m *appModel) copyActive() {
	n, ok := m.page.Selection().ActiveNode()
	if !ok {
		return
	}
	body, err := m.page.Content().CurrentContent(m.ctx, n.ID)
	if err != nil {
		m.flash(err.Error(), true)
		return
	}
	if err := writeClipboard(clipboardText(n.Number, n.Title, body)); err != nil {
		m.flash("copy failed: "+err.Error(), true)
		return
	}
	m.flash("copied "+nodeLabel(n), false)
}

// markEvents remembers the newest event so our own writes don't trigger a reload.
func (m *appModel) markEvents() {
	if id, ok := m.newestEventID(); ok {
		m.lastEventID = id
	}
}

func (m *appModel) newestEventID() (string, bool) {
	evs, err := m.opts.Backend.Events(m.ctx, 1)
	if err != nil || len(evs) == 0 {
		return "", false
	}
	return evs[len(evs)-1].ID, true
}

func (m *appModel) onStoreChanged() {
	if m.editor != nil || m.confirm != nil || m.settings != nil {
		m.pendingReload = true
		return
	}
	m.pendingReload = false
	if id, ok := m.newestEventID(); !ok || id == m.lastEventID {
		return
	}
	m.reload()
}

func (m *appModel) reload() {
	st := m.snapshotState()
	if err := m.load(); err != nil {
		m.log.Warn("reload", zap.Error(err))
		m.flash(err.Error(), true)
		return
	}
	m.applyState(st)
	m.refresh()
	m.markEvents()
	m.log.Debug("reloaded outline", zap.Int("nodes", m.page.Tree().Len()))
}

func (m *appModel) snapshotState() *store.TUIState {
	st := &store.TUIState{Version: 1, ShowPreview: m.showPreview}
	tree := m.page.Tree()
	if id, ok := m.page.Selection().Active(); ok {
		st.SelectedPath, _ = tree.PathString(id)
	}
	for _, n := range tree.Nodes() {
		if !n.Collapsed {
			continue
		}
		if qn, err := tree.QualifiedNumber(n.ID); err == nil {
			st.Collapsed = append(st.Collapsed, qn)
		}
	}
	return st
}

func (m *appModel) applyState(st *store.TUIState) {
	if st == nil {
		return
	}
	tree := m.page.Tree()
	for _, qn := range st.Collapsed {
		if n, ok := tree.FindByNumber(qn); ok && len(n.Children) > 0 {
			_ = tree.Update(n.ID, func(n *outline.Node) { n.Collapsed = true })
		}
	}
	if st.SelectedPath != "" {
		if n, err := tree.Resolve(st.SelectedPath); err == nil {
			_ = m.page.ClickDescription(m.ctx, n.ID)
		}
	}
	m.showPreview = st.ShowPreview
}

func (m *appModel) saveState() {
	if err := m.opts.Store.SaveTUIState(m.snapshotState()); err != nil {
		m.log.Warn("save tui state", zap.Error(err))
	}
}
