// Package tui is the interactive outline editor.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"folio/internal/page"
	"folio/internal/store"
)

type Options struct {
	// Name is shown in the header (usually the workspace name).
	Name string
	// Store is the workspace directory: TUI state is kept there and the database in it is
	// watched for changes made by other processes.
	Store   store.Store
	Backend page.Backend
	// Page carries locale, renumbering and preview settings; the TUI installs its own hooks.
	Page   page.Options
	Glyphs string
	Logger *zap.Logger
}

func Run(ctx context.Context, o Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference(o.Glyphs)

	m, err := newAppModel(ctx, o)
	if err != nil {
		return err
	}
	if o.Store.Dir != "" {
		w, err := watchStore(o.Store.Dir, 150*time.Millisecond, m.log)
		if err != nil {
			m.log.Warn("store watcher disabled", zap.Error(err))
		} else {
			m.watcher = w
			defer w.Close()
		}
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	m.saveState()
	return err
}
