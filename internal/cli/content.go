package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newReadCmd(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Print a node's content (final, else draft, else placeholder)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			n, err := ws.page.Resolve(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			body, err := ws.page.Content().CurrentContent(ctx, n.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if raw {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), body)
				return err
			}
			stored, err := ws.page.Content().Load(ctx, n.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"number":  n.Number,
				"title":   n.Title,
				"state":   stored.State(),
				"content": body,
				"stored":  stored,
			}})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the content only (no envelope)")
	return cmd
}

func newWriteCmd(app *App) *cobra.Command {
	var (
		file  string
		text  string
		draft bool
	)
	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Save a node's content from --text, --file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			body := text
			switch {
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return writeErr(cmd, err)
				}
				body = string(b)
			case text == "":
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				body = string(b)
			}
			if strings.TrimSpace(body) == "" {
				return writeErr(cmd, fmt.Errorf("no content given (use --text, --file or stdin)"))
			}

			ws, err := openWorkspace(ctx, app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			n, err := ws.page.Resolve(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			se, err := ws.page.WriteNode(ctx, n.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err = ws.page.Save(ctx, se, strings.TrimSpace(body), draft)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"number":  n.Number,
				"state":   n.State,
				"preview": n.Preview,
				"draft":   draft,
			}})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read content from a file")
	cmd.Flags().StringVar(&text, "text", "", "Content (HTML)")
	cmd.Flags().BoolVar(&draft, "draft", false, "Save as draft (keeps any final version)")
	return cmd
}
