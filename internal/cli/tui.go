package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"folio/internal/logging"
	"folio/internal/store"
	"folio/internal/tui"
)

// runTUI owns stdout, so logs go to the log file.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	logPath, err := store.LogPath(app.cfg)
	if err != nil {
		return writeErr(cmd, err)
	}
	log, err := logging.New(logging.Options{Level: app.cfg.Logging.Level, Verbose: app.Verbose, File: logPath})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = log.Sync() }()
	app.log = log

	s, err := resolveDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	db, err := s.Open(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer db.Close()

	name := app.Workspace
	if name == "" {
		name = s.Dir
	}
	log.Info("tui starting", zap.String("dir", s.Dir))
	return tui.Run(ctx, tui.Options{
		Name:    name,
		Store:   s,
		Backend: db,
		Page:    app.pageOptions(nil),
		Glyphs:  app.cfg.Glyphs(),
		Logger:  log,
	})
}
