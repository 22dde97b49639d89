package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/dispatch"
)

func newShowCmd(app *App) *cobra.Command {
	var visible bool
	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show the outline, or one node and its descendants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			entries := ws.page.Tree().Entries(visible)
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"entries": entries}})
			}
			n, err := ws.page.Resolve(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := ws.page.Dispatcher().SettingsFor(n.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			sub := entries[:0:0]
			for _, e := range entries {
				if e.Path == st.Path || strings.HasPrefix(e.Path, st.Path+".") {
					sub = append(sub, e)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"node": st, "entries": sub}})
		},
	}
	cmd.Flags().BoolVar(&visible, "visible", false, "Hide children of collapsed nodes")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add [parent-path]",
		Short: "Add a child under a node, or a chapter when no path is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			var res dispatch.Result
			if len(args) == 0 {
				res, err = ws.page.AddChapter(ctx, title)
			} else {
				parent, rerr := ws.page.Resolve(args[0])
				if rerr != nil {
					return writeErr(cmd, rerr)
				}
				res, err = ws.page.AddChild(ctx, parent.ID, title)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			path, _ := ws.page.Tree().PathString(res.Added.ID)
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"added": res.Added, "path": path}})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title of the new node (default: the standard summary text)")
	return cmd
}

// stdinConfirmer asks on stderr and reads the answer from stdin; yes skips the question.
func stdinConfirmer(cmd *cobra.Command, yes bool) dispatch.Confirmer {
	return dispatch.ConfirmFunc(func(prompt string) bool {
		if yes {
			return true
		}
		fmt.Fprint(cmd.ErrOrStderr(), prompt+" [y/N] ")
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "是", "确定":
			return true
		}
		return false
	})
}

func newRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <path>",
		Aliases: []string{"delete"},
		Short:   "Delete a node and its descendants",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, app, stdinConfirmer(cmd, yes))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			n, err := ws.page.Resolve(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := ws.page.Run(ctx, dispatch.CmdDelete, n.ID)
			if errors.Is(err, dispatch.ErrCancelled) {
				return writeErr(cmd, fmt.Errorf("not deleted: %s %s", n.Number, n.Title))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"removed":    res.Removed,
				"renumbered": res.Renumbered,
			}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <title>",
		Short: "Change a node's title",
		Args:  cobra.ExactArgs(2),
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
			n, err = ws.page.Rename(ctx, n.ID, args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": n})
		},
	}
}

func newSettingsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "settings <path>",
		Short: "Show a node's settings",
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
			res, err := ws.page.Run(ctx, dispatch.CmdOpenSettings, n.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Settings})
		},
	}
}
