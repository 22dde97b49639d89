package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type BackupResult struct {
	Path        string    `json:"path" yaml:"path"`
	Bytes       int64     `json:"bytes" yaml:"bytes"`
	WorkspaceID string    `json:"workspaceId" yaml:"workspaceId"`
	At          time.Time `json:"at" yaml:"at"`
}

// Backup writes a consistent copy of the database to dest while other connections may be
// writing. An existing dest is replaced only when overwrite is set.
func (s *SQLite) Backup(ctx context.Context, dest string, overwrite bool) (BackupResult, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return BackupResult{}, err
	}
	if same, _ := filepath.Abs(s.path); same == dest {
		return BackupResult{}, errors.New("backup target is the workspace database")
	}
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return BackupResult{}, errors.New("file exists (use --overwrite): " + dest)
		}
		if err := os.Remove(dest); err != nil {
			return BackupResult{}, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return BackupResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return BackupResult{}, err
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return BackupResult{}, fmt.Errorf("backup to %s: %w", dest, err)
	}
	st, err := os.Stat(dest)
	if err != nil {
		return BackupResult{}, err
	}
	return BackupResult{
		Path:        dest,
		Bytes:       st.Size(),
		WorkspaceID: s.workspaceID,
		At:          s.now().UTC(),
	}, nil
}
