package cli

import (
	"github.com/spf13/cobra"

	"folio/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the global config (~/.folio/config.yaml)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every config key with its effective value",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := map[string]string{}
			for _, k := range store.ConfigKeys() {
				v, err := app.cfg.Get(k)
				if err != nil {
					return writeErr(cmd, err)
				}
				out[k] = v
			}
			path, _ := store.ConfigPath()
			return writeOut(cmd, app, map[string]any{"data": out, "path": path})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.cfg.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]string{args[0]: v}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(app.cfg); err != nil {
				return writeErr(cmd, err)
			}
			v, _ := app.cfg.Get(args[0])
			return writeOut(cmd, app, map[string]any{"data": map[string]string{args[0]: v}})
		},
	})

	return cmd
}
