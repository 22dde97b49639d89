package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"folio/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite is a workspace database. It implements ContentStore, OutlineStore and EventLog.
type SQLite struct {
	db          *sql.DB
	path        string
	workspaceID string
	now         func() time.Time
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked"
	// when the CLI runs next to an open TUI.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	wsID, err := ensureMetaUUID(ctx, db, "workspace_id")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, path: path, workspaceID: wsID, now: time.Now}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS content (
			key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			number TEXT NOT NULL,
			variant TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outline_rows (
			pos INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			number TEXT NOT NULL,
			title TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			workspace_id TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func ensureMetaUUID(ctx context.Context, db *sql.DB, key string) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, key).Scan(&v)
	if err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id := uuid.NewString()
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, key, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Path() string { return s.path }

// WorkspaceID is a uuid generated when the database is first created.
func (s *SQLite) WorkspaceID() string { return s.workspaceID }

func (s *SQLite) Get(ctx context.Context, key Key) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM content WHERE key = ?`, key.String()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLite) Set(ctx context.Context, key Key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content(key, kind, number, variant, value, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_unixms = excluded.updated_at_unixms`,
		key.String(), string(key.Kind), key.Number, string(key.Variant), value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE key = ?`, key.String()); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored content key in sorted order.
func (s *SQLite) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, number, variant FROM content ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Key
	for rows.Next() {
		var kind, number, variant string
		if err := rows.Scan(&kind, &number, &variant); err != nil {
			return nil, err
		}
		out = append(out, Key{Kind: model.Kind(kind), Number: number, Variant: model.Variant(variant)})
	}
	return out, rows.Err()
}

func (s *SQLite) LoadRows(ctx context.Context) ([]model.Row, bool, error) {
	var saved string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'outline_saved'`).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, number, title FROM outline_rows ORDER BY pos`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	out := []model.Row{}
	for rows.Next() {
		var r model.Row
		var kind string
		if err := rows.Scan(&kind, &r.Number, &r.Title); err != nil {
			return nil, false, err
		}
		r.Kind = model.RowKind(kind)
		out = append(out, r)
	}
	return out, true, rows.Err()
}

// SaveRows replaces the stored outline in one transaction.
func (s *SQLite) SaveRows(ctx context.Context, rows []model.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM outline_rows`); err != nil {
		return err
	}
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO outline_rows(pos, kind, number, title) VALUES(?, ?, ?, ?)`,
			i, string(r.Kind), r.Number, r.Title); err != nil {
			return fmt.Errorf("save outline row %d: %w", i, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('outline_saved', ?)`,
		s.now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) AppendEvent(ctx context.Context, typ, entityID string, payload any) (model.Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return model.Event{}, err
	}
	ev := model.Event{
		ID:       uuid.NewString(),
		TS:       s.now().UTC(),
		Type:     typ,
		EntityID: entityID,
		Payload:  payload,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events(event_id, workspace_id, type, entity_id, payload_json, issued_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?)`,
		ev.ID, s.workspaceID, ev.Type, ev.EntityID, string(b), ev.TS.UnixMilli())
	if err != nil {
		return model.Event{}, fmt.Errorf("append event %s: %w", typ, err)
	}
	return ev, nil
}

func (s *SQLite) Events(ctx context.Context, limit int) ([]model.Event, error) {
	q := `SELECT event_id, type, entity_id, payload_json, issued_at_unixms FROM events ORDER BY seq`
	var args []any
	if limit > 0 {
		q = `SELECT * FROM (
			SELECT seq, event_id, type, entity_id, payload_json, issued_at_unixms FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var payload string
		var ms int64
		if limit > 0 {
			var seq int64
			err = rows.Scan(&seq, &ev.ID, &ev.Type, &ev.EntityID, &payload, &ms)
		} else {
			err = rows.Scan(&ev.ID, &ev.Type, &ev.EntityID, &payload, &ms)
		}
		if err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(ms).UTC()
		if payload != "" && payload != "null" {
			var v any
			if err := json.Unmarshal([]byte(payload), &v); err == nil {
				ev.Payload = v
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
