package cli

import (
	"github.com/spf13/cobra"

	"folio/internal/store"
)

func newDoctorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace database for integrity problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := s.Open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			rep, err := store.Doctor(cmd.Context(), db)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := writeOut(cmd, app, map[string]any{"data": rep}); err != nil {
				return err
			}
			if rep.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}
}

func newBackupCmd(app *App) *cobra.Command {
	var (
		to        string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "backup --to <file>",
		Short: "Copy the workspace database to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := s.Open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			res, err := db.Backup(cmd.Context(), to, overwrite)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("workspace backed up")
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing target")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
