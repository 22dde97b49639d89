package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/docs"
	"folio/internal/publish"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{"topics": docs.Topics()},
					"_hints": []string{
						"folio docs outline",
						"folio docs mcp",
					},
				})
			}
			topic := strings.TrimSpace(args[0])
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown topic %q (topics: %s)", topic, strings.Join(docs.Topics(), ", ")))
			}
			if !raw {
				if out, err := publish.RenderTerminal(body, 80); err == nil {
					body = out
				}
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print Markdown source")
	return cmd
}
