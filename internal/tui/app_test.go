package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"folio/internal/model"
	"folio/internal/outline"
	"folio/internal/store"
)

var book = []model.Row{
	{Kind: model.RowChapter, Number: "第一章", Title: "I"},
	{Kind: model.RowSection, Number: "第一节", Title: "a"},
	{Kind: model.RowSection, Number: "第二节", Title: "b"},
	{Kind: model.RowChapter, Number: "第二章", Title: "II"},
}

type testApp struct {
	*appModel
	mem *store.Memory
	dir string
}

func newTestApp(t *testing.T, rows []model.Row) *testApp {
	t.Helper()
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	mem := store.NewMemory()
	if rows != nil {
		if err := mem.SaveRows(context.Background(), rows); err != nil {
			t.Fatalf("SaveRows: %v", err)
		}
	}
	dir := t.TempDir()
	return &testApp{appModel: openTestApp(t, mem, dir), mem: mem, dir: dir}
}

func openTestApp(t *testing.T, mem *store.Memory, dir string) *appModel {
	t.Helper()
	m, err := newAppModel(context.Background(), Options{Name: "test", Store: store.Store{Dir: dir}, Backend: mem})
	if err != nil {
		t.Fatalf("newAppModel: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (a *testApp) press(keys ...string) {
	for _, k := range keys {
		a.Update(keyMsg(k))
	}
}

func (a *testApp) click(x, y int) {
	a.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func (a *testApp) node(t *testing.T, title string) outline.Node {
	t.Helper()
	for _, n := range a.page.Tree().Nodes() {
		if n.Title == title {
			return n
		}
	}
	t.Fatalf("no node titled %q", title)
	return outline.Node{}
}

func (a *testApp) active(t *testing.T) string {
	t.Helper()
	n, ok := a.page.Selection().ActiveNode()
	if !ok {
		t.Fatalf("no active node")
	}
	return n.Title
}

// Rows are two lines each below a two-line header; the outline pane is 40 columns wide and
// the ASCII more-options marker " ... " takes its last five.
func rowY(i int) int { return headerLines + i*rowsPerNode }

const moreX = 37

func TestApp_StartsOnFirstChapter(t *testing.T) {
	a := newTestApp(t, book)
	if a.heading.Text != "编写 第一章 I" {
		t.Fatalf("heading %q", a.heading.Text)
	}
	if a.cursor != 0 || len(a.entries) != 4 {
		t.Fatalf("cursor=%d entries=%d", a.cursor, len(a.entries))
	}
	v := a.View()
	for _, want := range []string{"folio", "第一章 I", "第二节 b"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
}

func TestApp_KeyboardSelectAndCollapse(t *testing.T) {
	a := newTestApp(t, book)

	a.press("down", "enter")
	if got := a.active(t); got != "a" {
		t.Fatalf("active = %q, want a", got)
	}
	if a.heading.Text != "编写 第一节 a" {
		t.Fatalf("heading %q", a.heading.Text)
	}

	a.press("up", "space")
	if !a.node(t, "I").Collapsed {
		t.Fatalf("expected chapter I collapsed")
	}
	if len(a.entries) != 2 {
		t.Fatalf("visible entries = %d, want 2", len(a.entries))
	}
	a.press("space")
	if len(a.entries) != 4 {
		t.Fatalf("visible entries = %d after expand, want 4", len(a.entries))
	}
}

func TestApp_AddAndDeleteAsksFirst(t *testing.T) {
	a := newTestApp(t, book)

	a.press("a")
	added := a.node(t, "章节内容概述")
	if added.Number != "第三节" {
		t.Fatalf("added %q, want 第三节", added.Number)
	}
	if id, _ := a.cursorID(); id != added.ID {
		t.Fatalf("cursor not on the added node")
	}

	a.press("d")
	if a.confirm == nil || !strings.Contains(a.confirm.prompt, "第三节") {
		t.Fatalf("expected a delete confirmation, got %#v", a.confirm)
	}
	a.press("n")
	if a.confirm != nil || !a.page.Tree().Contains(added.ID) {
		t.Fatalf("declined delete should keep the node")
	}

	a.press("d", "y")
	if a.page.Tree().Contains(added.ID) {
		t.Fatalf("confirmed delete should remove the node")
	}
}

func TestApp_MouseMenuOutsideAndDelete(t *testing.T) {
	a := newTestApp(t, book)
	chapter := a.node(t, "I")

	a.click(moreX, rowY(0))
	if target, ok := a.page.Selection().MenuTarget(); !ok || target != chapter.ID {
		t.Fatalf("expected menu open on chapter I")
	}
	if v := a.View(); !strings.Contains(v, "新增子章节") || !strings.Contains(v, "删除") {
		t.Fatalf("menu not rendered:\n%s", v)
	}

	a.click(70, 25)
	if _, ok := a.page.Selection().MenuTarget(); ok {
		t.Fatalf("outside click should close the menu")
	}

	// Menu rows follow the target's two lines: add child, settings, delete.
	a.click(moreX, rowY(0))
	a.click(5, rowY(1)+2)
	if a.confirm == nil {
		t.Fatalf("expected a confirmation after choosing delete")
	}
	a.press("y")
	if a.page.Tree().Contains(chapter.ID) || len(a.entries) != 1 {
		t.Fatalf("chapter I not deleted; entries=%d", len(a.entries))
	}
	if got := a.entries[0].Number; got != "第二章" {
		t.Fatalf("remaining chapter %q, want 第二章 (numbers kept)", got)
	}
}

func TestApp_MouseDescriptionSelectsAndTitleCollapses(t *testing.T) {
	a := newTestApp(t, book)

	a.click(5, rowY(2)+1)
	if got := a.active(t); got != "b" {
		t.Fatalf("active = %q, want b", got)
	}

	a.click(5, rowY(0))
	if !a.node(t, "I").Collapsed {
		t.Fatalf("title click should collapse")
	}
	if got := a.active(t); got != "b" {
		t.Fatalf("title click changed selection to %q", got)
	}
}

func TestApp_EditorDraftFinalAndDiscard(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, book)
	chapter := a.node(t, "I")

	a.press("w")
	if a.editor == nil {
		t.Fatalf("expected editor open")
	}
	if got := a.editor.ta.Value(); got != "<p>开始编写 第一章 的内容...</p>" {
		t.Fatalf("baseline %q", got)
	}

	a.editor.ta.SetValue("<p>x</p>")
	a.press("ctrl+d")
	if a.editor == nil || a.flashMsg != "草稿已保存" {
		t.Fatalf("draft save: editor=%v flash=%q", a.editor != nil, a.flashMsg)
	}
	a.press("ctrl+s")
	if a.editor != nil {
		t.Fatalf("final save should close the editor")
	}
	if n := a.node(t, "I"); n.State != model.StateFinal {
		t.Fatalf("state %q, want final", n.State)
	}

	a.press("w")
	a.editor.ta.SetValue("changed")
	a.press("esc")
	if a.confirm == nil || a.confirm.prompt != "有未保存的更改，确定要关闭吗？" {
		t.Fatalf("expected discard confirmation, got %#v", a.confirm)
	}
	a.press("y")
	if a.editor != nil {
		t.Fatalf("editor still open after discarding")
	}
	st, err := a.page.Content().Load(ctx, chapter.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Final != "<p>x</p>" {
		t.Fatalf("final %q", st.Final)
	}
}

func TestApp_SettingsRename(t *testing.T) {
	a := newTestApp(t, book)

	a.press("s")
	if a.settings == nil || a.settings.s.Number != "第一章" {
		t.Fatalf("expected settings modal for chapter I")
	}
	if !strings.Contains(a.View(), "Settings") {
		t.Fatalf("settings modal not rendered")
	}
	a.settings.title.SetValue("Intro")
	a.press("enter")
	if a.settings != nil {
		t.Fatalf("settings still open")
	}
	if a.heading.Text != "编写 第一章 Intro" {
		t.Fatalf("heading %q", a.heading.Text)
	}
}

func TestApp_CopyActive(t *testing.T) {
	a := newTestApp(t, book)
	var got string
	prev := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	t.Cleanup(func() { writeClipboard = prev })

	a.press("y")
	if got != "## 第一章 I\n" {
		t.Fatalf("clipboard %q", got)
	}
	if a.flashMsg != "copied 第一章 I" {
		t.Fatalf("flash %q", a.flashMsg)
	}
}

func TestApp_StateRestored(t *testing.T) {
	a := newTestApp(t, book)
	a.press("space", "down", "enter", "p")
	a.saveState()

	b := openTestApp(t, a.mem, a.dir)
	if !b.page.Tree().Entries(false)[0].Collapsed {
		t.Fatalf("collapse not restored")
	}
	n, ok := b.page.Selection().ActiveNode()
	if !ok || n.Title != "II" {
		t.Fatalf("selection not restored: %+v", n)
	}
	if !b.showPreview {
		t.Fatalf("preview toggle not restored")
	}
}

func TestApp_ReloadsOnlyForForeignEvents(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, book)

	rows := append(append([]model.Row{}, book...), model.Row{Kind: model.RowChapter, Number: "第三章", Title: "III"})
	if err := a.mem.SaveRows(ctx, rows); err != nil {
		t.Fatalf("SaveRows: %v", err)
	}
	a.Update(storeChangedMsg{})
	if len(a.entries) != 4 {
		t.Fatalf("reloaded without a new event")
	}

	if _, err := a.mem.AppendEvent(ctx, "node.add", "第三章", nil); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	a.press("w")
	a.Update(storeChangedMsg{})
	if len(a.entries) != 4 || !a.pendingReload {
		t.Fatalf("reload should wait for the editor")
	}
	a.press("esc")
	if len(a.entries) != 5 {
		t.Fatalf("entries = %d after reload, want 5", len(a.entries))
	}
}

func TestApp_EmptyOutline(t *testing.T) {
	a := newTestApp(t, nil)
	if !strings.Contains(a.View(), "empty outline") {
		t.Fatalf("expected empty outline hint")
	}
	a.press("w")
	if a.editor != nil || a.flashMsg != "请先点击左侧章节内容概述来选择要编写的章节" {
		t.Fatalf("editor=%v flash=%q", a.editor != nil, a.flashMsg)
	}
	a.press("A")
	if len(a.entries) != 1 || a.entries[0].Number != "第一章" {
		t.Fatalf("entries %+v", a.entries)
	}
}
