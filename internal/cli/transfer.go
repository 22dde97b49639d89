package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/importer"
	"folio/internal/numbering"
	"folio/internal/outline"
	"folio/internal/publish"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		replace bool
		from    string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an outline with contents from Markdown (.md) or an outline page (.html)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			kind := strings.ToLower(strings.TrimSpace(from))
			if kind == "" {
				kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}

			f, err := os.Open(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			var doc importer.Document
			switch kind {
			case "md", "markdown":
				doc, err = importer.Markdown(f)
			case "html", "htm":
				doc, err = importer.HTML(f)
			default:
				return writeErr(cmd, fmt.Errorf("unknown import format %q (use --from md|html)", kind))
			}
			if err != nil {
				return writeErr(cmd, fmt.Errorf("%s: %w", path, err))
			}

			ws, err := openWorkspace(ctx, app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			if ws.page.Tree().Len() > 0 {
				if !replace {
					return writeErr(cmd, errors.New("workspace already has an outline (use --replace)"))
				}
				keys, err := ws.db.Keys(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				for _, k := range keys {
					if err := ws.db.Delete(ctx, k); err != nil {
						return writeErr(cmd, err)
					}
				}
			}

			tree, err := importer.Apply(ctx, doc, ws.db, outline.ParseOptions{
				Numbers: numbering.Formatter{Locale: app.cfg.NumberLocale()},
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := ws.db.AppendEvent(ctx, "outline.import", path, map[string]any{
				"nodes":   tree.Len(),
				"replace": replace,
			}); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("imported outline")
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"imported": path,
				"nodes":    tree.Len(),
				"entries":  tree.Entries(false),
			}})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the existing outline and its contents")
	cmd.Flags().StringVar(&from, "from", "", "Input format (md|html; default: file extension)")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		to           string
		overwrite    bool
		finalOnly    bool
		includeEmpty bool
		title        string
		render       bool
		width        int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the outline with contents as Markdown",
		Example: strings.TrimSpace(`
  folio export --to book.md --title "毕业论文"
  folio export --render
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			opt := publish.RenderOptions{Title: title, FinalOnly: finalOnly, IncludeEmpty: includeEmpty}
			if strings.TrimSpace(to) != "" {
				res, err := publish.WriteMarkdown(ctx, ws.page.Tree(), ws.page.Content(), to, publish.WriteOptions{
					Render:    opt,
					Overwrite: overwrite,
				})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			md, err := publish.RenderMarkdown(ctx, ws.page.Tree(), ws.page.Content(), opt)
			if err != nil {
				return writeErr(cmd, err)
			}
			if render {
				md, err = publish.RenderTerminal(md, width)
				if err != nil {
					return writeErr(cmd, err)
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing --to file")
	cmd.Flags().BoolVar(&finalOnly, "final-only", false, "Skip draft-only contents")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Keep headings of nodes without content")
	cmd.Flags().StringVar(&title, "title", "", "Document title (adds a leading heading)")
	cmd.Flags().BoolVar(&render, "render", false, "Style the Markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}
