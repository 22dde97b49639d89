package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"folio/internal/dispatch"
	"folio/internal/model"
	"folio/internal/outline"
)

const (
	headerLines = 2
	footerLines = 1
	rowsPerNode = 2
)

type zone int

const (
	zoneTitle zone = iota
	zoneDescription
	zoneMore
	zoneMenu
)

// hit is a clickable span on screen.
type hit struct {
	y      int
	x0, x1 int
	id     model.NodeID
	zone   zone
	cmd    dispatch.Command
}

func (m *appModel) refresh() {
	m.entries = m.page.Tree().Entries(true)
	if m.followActive {
		m.followActive = false
		if id, ok := m.page.Selection().Active(); ok {
			m.moveCursorTo(id)
		}
	}
	m.clampCursor()
	m.refreshPreview()
}

func (m *appModel) refreshPreview() {
	if !m.showPreview {
		return
	}
	id, ok := m.page.Selection().Active()
	if !ok {
		m.preview.SetContent("")
		return
	}
	body, err := m.page.Content().CurrentContent(m.ctx, id)
	if err != nil {
		m.preview.SetContent(err.Error())
		return
	}
	m.preview.SetContent(renderContent(body, m.preview.Width))
	m.preview.GotoTop()
}

func (m *appModel) cursorID() (model.NodeID, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return "", false
	}
	return m.entries[m.cursor].ID, true
}

func (m *appModel) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *appModel) moveCursorTo(id model.NodeID) {
	for i, e := range m.entries {
		if e.ID == id {
			m.cursor = i
			m.clampCursor()
			return
		}
	}
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.bodyHeight() / rowsPerNode
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *appModel) bodyHeight() int {
	h := m.height - headerLines - footerLines
	if h < rowsPerNode {
		h = rowsPerNode
	}
	return h
}

// paneWidths splits the body into the outline and the editing pane, with a one column rule.
func (m *appModel) paneWidths() (left, right int) {
	w := m.width
	if w < 20 {
		w = 20
	}
	left = w * 2 / 5
	if left < 24 {
		left = 24
	}
	if left > w-8 {
		left = w - 8
	}
	return left, w - left - 1
}

func (m *appModel) editorSize() (int, int) {
	_, rw := m.paneWidths()
	h := m.bodyHeight() - 4
	if h < 3 {
		h = 3
	}
	return rw, h
}

func (m *appModel) resize() {
	_, rw := m.paneWidths()
	m.preview.Width = rw
	m.preview.Height = m.bodyHeight() - 4
	if m.preview.Height < 1 {
		m.preview.Height = 1
	}
	if m.editor != nil {
		w, h := m.editorSize()
		m.editor.ta.SetWidth(w)
		m.editor.ta.SetHeight(h)
	}
	m.clampCursor()
	m.refreshPreview()
}

// outlineLines renders the outline pane and the clickable spans in it.
func (m *appModel) outlineLines(width, height int) ([]string, []hit) {
	var (
		lines []string
		hits  []hit
	)
	active, _ := m.page.Selection().Active()
	menuTarget, menuOpen := m.page.Selection().MenuTarget()
	more := " " + glyphMore() + " "
	moreW := xansi.StringWidth(more)

	for i := m.offset; i < len(m.entries) && len(lines)+rowsPerNode <= height; i++ {
		e := m.entries[i]
		y := headerLines + len(lines)
		indent := strings.Repeat("  ", e.Depth)

		twisty := " "
		if e.HasChildren {
			twisty = glyphTwistyExpanded()
			if e.Collapsed {
				twisty = glyphTwistyCollapsed()
			}
		}
		state := glyphState(e.State == model.StateDraft, e.State == model.StateFinal)
		head := fitWidth(indent+twisty+" "+e.Number+" "+e.Title, width-moreW-2) + " " + state
		desc := fitWidth(indent+"  "+e.Preview, width)

		base := lipgloss.NewStyle()
		switch {
		case i == m.cursor:
			base = styleSelected()
		case e.ID == active:
			base = base.Bold(true).Foreground(colorAccent)
		}
		lines = append(lines,
			base.Render(head)+styleChrome().Render(more),
			styleMuted().Render(desc),
		)
		hits = append(hits,
			hit{y: y, x0: 0, x1: width - moreW, id: e.ID, zone: zoneTitle},
			hit{y: y, x0: width - moreW, x1: width, id: e.ID, zone: zoneMore},
			hit{y: y + 1, x0: 0, x1: width, id: e.ID, zone: zoneDescription},
		)

		if menuOpen && e.ID == menuTarget {
			for j, cmd := range dispatch.Commands() {
				if len(lines) >= height {
					break
				}
				label := fitWidth(indent+"    "+cmd.Label(m.page.Locale()), width)
				st := lipgloss.NewStyle().Foreground(colorSurfaceFg).Background(colorControlBg)
				if j == m.menuIndex {
					st = styleAccent()
				}
				hits = append(hits, hit{y: headerLines + len(lines), x0: 0, x1: width, id: e.ID, zone: zoneMenu, cmd: cmd})
				lines = append(lines, st.Render(label))
			}
		}
	}
	if len(m.entries) == 0 {
		lines = append(lines, styleMuted().Render("(empty outline: A adds a chapter)"))
	}
	return lines, hits
}

func (m *appModel) handleMouse(msg tea.MouseMsg) {
	if m.confirm != nil || m.settings != nil {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-1)
		return
	case tea.MouseButtonWheelDown:
		m.moveCursor(1)
		return
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.editor != nil {
		return
	}

	lw, _ := m.paneWidths()
	_, hits := m.outlineLines(lw, m.bodyHeight())
	for _, h := range hits {
		if msg.Y != h.y || msg.X < h.x0 || msg.X >= h.x1 {
			continue
		}
		m.onHit(h)
		return
	}
	_ = m.page.ClickOutside(m.ctx)
}

func (m *appModel) onHit(h hit) {
	switch h.zone {
	case zoneTitle:
		_ = m.page.ClickTitle(m.ctx, h.id)
		m.moveCursorTo(h.id)
	case zoneDescription:
		_ = m.page.ClickDescription(m.ctx, h.id)
	case zoneMore:
		_ = m.page.ClickMoreOptions(m.ctx, h.id)
		m.menuIndex = 0
		m.moveCursorTo(h.id)
		return
	case zoneMenu:
		m.runCommand(h.cmd, h.id, true)
		return
	}
	m.refresh()
}

func (m *appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if modal := m.viewModal(); modal != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	lw, rw := m.paneWidths()
	bh := m.bodyHeight()
	left, _ := m.outlineLines(lw, bh)
	sep := styleChrome().Render(strings.TrimRight(strings.Repeat("│\n", bh), "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(strings.Join(left, "\n"), lw, bh),
		sep,
		normalizePane(m.viewPane(rw), rw, bh),
	)

	return strings.Join([]string{m.viewHeader(), body, m.viewFooter()}, "\n")
}

func (m *appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("folio")
	where := styleChrome().Render("  " + m.opts.Name)
	rule := styleChrome().Render(strings.Repeat(glyphHRule(), max(m.width, 1)))
	return fitWidth(title+where, m.width) + "\n" + rule
}

func (m *appModel) viewPane(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(fitWidth(m.heading.Text, width)))
	b.WriteString("\n")
	if n, ok := m.page.Selection().ActiveNode(); ok {
		status := string(n.State)
		if !m.lastSaved.IsZero() {
			status += "  saved " + humanize.Time(m.lastSaved)
		}
		b.WriteString(styleMuted().Render(status))
	}
	b.WriteString("\n")
	b.WriteString(styleChrome().Render(strings.Repeat(glyphHRule(), max(width, 1))))
	b.WriteString("\n")

	switch {
	case m.editor != nil:
		b.WriteString(m.editor.ta.View())
	case m.showPreview:
		b.WriteString(m.preview.View())
	default:
		desc := m.heading.Description
		if n, ok := m.page.Selection().ActiveNode(); ok && n.Preview != "" {
			desc = n.Preview
		}
		for _, ln := range wrapText(desc, width, m.bodyHeight()-4) {
			b.WriteString(ln)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *appModel) viewFooter() string {
	if m.flashMsg != "" {
		st := styleAccent()
		if m.flashErr {
			st = lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorFlashErrorBg).Bold(true)
		}
		return fitWidth(st.Render(" "+m.flashMsg+" "), m.width)
	}
	bindings := m.keys.outlineHelp()
	if m.editor != nil {
		bindings = m.keys.editorHelp()
	}
	return fitWidth(m.help.ShortHelpView(bindings), m.width)
}

func (m *appModel) viewModal() string {
	switch {
	case m.confirm != nil:
		return renderConfirmModal(m.width, "Confirm", m.confirm.prompt, "Yes", "No", m.confirm.focus)
	case m.settings != nil:
		return renderSettingsModal(m.width, m.settings)
	}
	return ""
}

func nodeLabel(n outline.Node) string {
	return strings.TrimSpace(n.Number + " " + n.Title)
}
