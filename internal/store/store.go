// Package store persists outlines, written contents and the audit log.
//
// A workspace is a directory holding a single sqlite file. Content entries are addressed by a
// composite Key ("<kind>_<number>_<variant>"). The number part is the node's qualified number,
// its ancestors' display numbers joined with "/" ("section_第一章/第二节_final"), so equally
// numbered sections of different chapters get separate entries. A missing entry is reported as
// absence, never as an error.
package store

import (
	"context"
	"os"
	"path/filepath"

	"folio/internal/model"
)

const sqliteFileName = "folio.sqlite"

// ContentStore is the composite-key persistence the content synchronizer reads and writes.
type ContentStore interface {
	// Get returns ok=false when no entry exists for key.
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}

// OutlineStore keeps the flat outline layout.
type OutlineStore interface {
	// LoadRows returns ok=false if no outline was ever saved.
	LoadRows(ctx context.Context) (rows []model.Row, ok bool, err error)
	SaveRows(ctx context.Context, rows []model.Row) error
}

// EventLog is the append-only audit log of commands.
type EventLog interface {
	AppendEvent(ctx context.Context, typ, entityID string, payload any) (model.Event, error)
	// Events returns events oldest first; limit > 0 keeps only the newest limit events.
	Events(ctx context.Context, limit int) ([]model.Event, error)
}

// Store is a workspace directory.
type Store struct {
	Dir string
}

func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) SQLitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// Open creates the workspace directory if needed and opens its database.
func (s Store) Open(ctx context.Context) (*SQLite, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return OpenSQLite(ctx, s.SQLitePath())
}
