package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"folio/internal/dispatch"
	"folio/internal/format"
	"folio/internal/logging"
	"folio/internal/page"
	"folio/internal/store"
)

type App struct {
	Dir        string
	Workspace  string
	PrettyJSON bool
	Format     string
	Verbose    bool

	cfg *store.GlobalConfig
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "folio",
		Short:        "folio: chapter outline editor (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  folio

  # Scriptable commands
  folio show
  folio add 1 --title "研究背景"
  folio write 1.1 --draft < draft.html

  # Serve the workspace to agents
  folio mcp
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		level := cfg.Logging.Level
		if level == "" {
			// Keep scripted output quiet unless asked.
			level = "warn"
		}
		log, err := logging.New(logging.Options{Level: level, Verbose: app.Verbose})
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log = log
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.log != nil {
			_ = app.log.Sync()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("FOLIO_DIR", ""), "Path to workspace dir (advanced: overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("FOLIO_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FOLIO_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newSettingsCmd(app))
	cmd.AddCommand(newReadCmd(app))
	cmd.AddCommand(newWriteCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newMCPCmd(app))

	return cmd
}

// resolveDir picks the workspace directory.
//
// Workspace-first:
// 1) --dir
// 2) --workspace
// 3) config currentWorkspace
// 4) default workspace ("default")
func resolveDir(app *App) (store.Store, error) {
	if app.Dir != "" {
		return store.Store{Dir: app.Dir}, nil
	}
	name := app.Workspace
	if name == "" && app.cfg != nil {
		name = app.cfg.CurrentWorkspace
	}
	if name == "" {
		name = "default"
	}
	dir, err := store.WorkspaceDir(name)
	if err != nil {
		return store.Store{}, err
	}
	app.Workspace = name
	app.Dir = dir
	return store.Store{Dir: dir}, nil
}

// workspace is an opened store with its page.
type workspace struct {
	store store.Store
	db    *store.SQLite
	page  *page.Page
}

func (w *workspace) Close() error { return w.db.Close() }

func (app *App) pageOptions(c dispatch.Confirmer) page.Options {
	return page.Options{
		Locale:         app.cfg.NumberLocale(),
		StrictRenumber: app.cfg.StrictRenumber(),
		PreviewLimit:   app.cfg.Preview(),
		Confirmer:      c,
		Logger:         app.log,
	}
}

func openWorkspace(ctx context.Context, app *App, c dispatch.Confirmer) (*workspace, error) {
	s, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	p, err := page.Load(ctx, db, app.pageOptions(c))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := p.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &workspace{store: s, db: db, page: p}, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
