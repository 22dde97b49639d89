package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Collapse key.Binding
	Menu     key.Binding
	Add      key.Binding
	Chapter  key.Binding
	Delete   key.Binding
	Settings key.Binding
	Write    key.Binding
	Copy     key.Binding
	Preview  key.Binding
	Quit     key.Binding

	SaveFinal key.Binding
	SaveDraft key.Binding
	Close     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "down")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Collapse: key.NewBinding(key.WithKeys(" ", "tab"), key.WithHelp("space", "collapse")),
		Menu:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Chapter:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "chapter")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Write:    key.NewBinding(key.WithKeys("w", "e"), key.WithHelp("w", "write")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Preview:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		SaveFinal: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		SaveDraft: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "draft")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (k keyMap) outlineHelp() []key.Binding {
	return []key.Binding{k.Select, k.Collapse, k.Menu, k.Add, k.Delete, k.Write, k.Preview, k.Quit}
}

func (k keyMap) editorHelp() []key.Binding {
	return []key.Binding{k.SaveFinal, k.SaveDraft, k.Close}
}
