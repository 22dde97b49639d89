package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceDir_UnderConfigDir(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("FOLIO_CONFIG_DIR", cfgDir)

	dir, err := WorkspaceDir("  book ")
	if err != nil {
		t.Fatalf("WorkspaceDir: %v", err)
	}
	if want := filepath.Join(cfgDir, "workspaces", "book"); dir != want {
		t.Fatalf("expected %q, got %q", want, dir)
	}
	if _, err := WorkspaceDir("a/b"); err == nil {
		t.Fatalf("expected error for name with a separator")
	}
}

func TestListWorkspaces_SortedDirsOnly(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("FOLIO_CONFIG_DIR", cfgDir)

	ws, err := ListWorkspaces()
	if err != nil || len(ws) != 0 {
		t.Fatalf("expected no workspaces, got %#v (%v)", ws, err)
	}

	root := filepath.Join(cfgDir, "workspaces")
	for _, name := range []string{"novel", "default"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws, err = ListWorkspaces()
	if err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	if len(ws) != 2 || ws[0] != "default" || ws[1] != "novel" {
		t.Fatalf("unexpected workspaces: %#v", ws)
	}
}
