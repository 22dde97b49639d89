package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type eventRow struct {
	ID       string `json:"id" yaml:"id"`
	TS       string `json:"ts" yaml:"ts"`
	Ago      string `json:"ago" yaml:"ago"`
	Type     string `json:"type" yaml:"type"`
	EntityID string `json:"entityId" yaml:"entityId"`
	Payload  any    `json:"payload" yaml:"payload"`
}

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the command audit log (oldest first)",
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

			evs, err := db.Events(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]eventRow, 0, len(evs))
			for _, ev := range evs {
				out = append(out, eventRow{
					ID:       ev.ID,
					TS:       ev.TS.Format("2006-01-02T15:04:05Z07:00"),
					Ago:      humanize.Time(ev.TS),
					Type:     ev.Type,
					EntityID: ev.EntityID,
					Payload:  ev.Payload,
				})
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max events to show (0 = all)")
	return cmd
}
