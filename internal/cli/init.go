package cli

import (
	"github.com/spf13/cobra"

	"folio/internal/store"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace (creates its database)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			if _, saved, err := ws.db.LoadRows(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			} else if !saved {
				if err := ws.db.SaveRows(cmd.Context(), ws.page.Tree().Flatten()); err != nil {
					return writeErr(cmd, err)
				}
			}

			// If we're in workspace mode but no current workspace is set, set it.
			if app.Workspace != "" && app.cfg.CurrentWorkspace == "" {
				app.cfg.CurrentWorkspace = app.Workspace
				_ = store.SaveConfig(app.cfg)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":         ws.store.Dir,
					"workspace":   app.Workspace,
					"sqlitePath":  ws.db.Path(),
					"workspaceId": ws.db.WorkspaceID(),
					"nodes":       ws.page.Tree().Len(),
				},
			})
		},
	}
	return cmd
}
