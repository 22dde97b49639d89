package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"folio/internal/model"
)

func openTestSQLite(t *testing.T) (*SQLite, Store) {
	t.Helper()
	s := Store{Dir: t.TempDir()}
	db, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, s
}

func TestSQLite_ContentGetSetDelete(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestSQLite(t)

	k := Key{Kind: model.KindSection, Number: "第一章/第二节", Variant: model.VariantDraft}
	if _, ok, err := db.Get(ctx, k); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := db.Set(ctx, k, "<p>one</p>"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set(ctx, k, "<p>two</p>"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := db.Get(ctx, k)
	if err != nil || !ok || v != "<p>two</p>" {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}

	other := Key{Kind: model.KindSection, Number: "第二章/第二节", Variant: model.VariantDraft}
	if _, ok, _ := db.Get(ctx, other); ok {
		t.Fatalf("sections of different chapters must not share content")
	}

	keys, err := db.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]Key{k}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if err := db.Delete(ctx, k); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := db.Get(ctx, k); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestSQLite_RowsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestSQLite(t)

	if _, ok, err := db.LoadRows(ctx); err != nil || ok {
		t.Fatalf("expected no saved outline, ok=%v err=%v", ok, err)
	}
	rows := []model.Row{
		{Kind: model.RowChapter, Number: "第一章", Title: "I"},
		{Kind: model.RowSection, Number: "第一节", Title: "a"},
		{Kind: model.RowGroupStart},
		{Kind: model.RowSubsection, Number: "一", Title: "i"},
		{Kind: model.RowGroupEnd},
	}
	if err := db.SaveRows(ctx, rows); err != nil {
		t.Fatalf("SaveRows: %v", err)
	}
	if err := db.SaveRows(ctx, rows[:2]); err != nil {
		t.Fatalf("SaveRows (shrink): %v", err)
	}
	got, ok, err := db.LoadRows(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadRows ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(rows[:2], got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	if err := db.SaveRows(ctx, nil); err != nil {
		t.Fatalf("SaveRows (empty): %v", err)
	}
	got, ok, err = db.LoadRows(ctx)
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("expected saved empty outline, got %d rows ok=%v err=%v", len(got), ok, err)
	}
}

func TestSQLite_EventsAppendAndTail(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestSQLite(t)

	for _, typ := range []string{"node.add", "content.save", "node.delete"} {
		if _, err := db.AppendEvent(ctx, typ, "第一章", map[string]any{"type": typ}); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}
	all, err := db.Events(ctx, 0)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(all) != 3 || all[0].Type != "node.add" || all[2].Type != "node.delete" {
		t.Fatalf("unexpected events: %#v", all)
	}
	tail, err := db.Events(ctx, 2)
	if err != nil {
		t.Fatalf("Events tail: %v", err)
	}
	if len(tail) != 2 || tail[0].Type != "content.save" || tail[1].Type != "node.delete" {
		t.Fatalf("unexpected tail: %#v", tail)
	}
	p, ok := tail[1].Payload.(map[string]any)
	if !ok || p["type"] != "node.delete" {
		t.Fatalf("payload not decoded: %#v", tail[1].Payload)
	}
}

func TestSQLite_WorkspaceIDStableAcrossReopen(t *testing.T) {
	ctx := context.Background()
	db, s := openTestSQLite(t)
	id := db.WorkspaceID()
	if id == "" {
		t.Fatalf("expected workspace id")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := s.Open(ctx)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if again.WorkspaceID() != id {
		t.Fatalf("workspace id changed: %q -> %q", id, again.WorkspaceID())
	}
}
