package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"folio/internal/logging"
	"folio/internal/mcpserver"
	"folio/internal/store"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workspace over MCP (stdio)",
		Long:  "Serve the workspace to MCP clients over stdin/stdout. Logs go to the log file, never stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ws, err := mcpserver.Open(ctx, db, app.pageOptions(nil))
			if err != nil {
				return writeErr(cmd, err)
			}
			log.Info("mcp server starting", zap.String("dir", s.Dir), zap.String("version", Version))
			return mcpserver.ServeStdio(mcpserver.New(ws, Version))
		},
	}
}
