package publish

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/content"
	"folio/internal/model"
	"folio/internal/outline"
	"folio/internal/store"
)

func fixture(t *testing.T) (*outline.Tree, *content.Synchronizer) {
	t.Helper()
	ctx := context.Background()
	tree, err := outline.Parse([]model.Row{
		{Kind: model.RowChapter, Number: "第一章", Title: "I"},
		{Kind: model.RowSection, Number: "第一节", Title: "a"},
		{Kind: model.RowSection, Number: "第二节", Title: "b"},
		{Kind: model.RowChapter, Number: "第二章", Title: "II"},
	}, outline.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mem := store.NewMemory()
	set := func(kind model.Kind, number string, v model.Variant, val string) {
		if err := mem.Set(ctx, store.Key{Kind: kind, Number: number, Variant: v}, val); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	set(model.KindChapter, "第一章", model.VariantFinal, "<p>Hello <strong>world</strong></p><ul><li>a</li><li>b</li></ul>")
	set(model.KindSection, "第一章/第一节", model.VariantDraft, "<p>draft text</p>")
	set(model.KindSection, "第一章/第二节", model.VariantDraft, "<p>开始编写 第二节 的内容...</p>")
	return tree, content.New(tree, mem, content.Options{})
}

func TestRenderMarkdown_SkipsEmptyNodes(t *testing.T) {
	t.Parallel()
	tree, src := fixture(t)
	md, err := RenderMarkdown(context.Background(), tree, src, RenderOptions{})
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	want := "# 第一章 I\n\nHello **world**\n\n- a\n- b\n\n## 第一节 a\n\ndraft text\n"
	if md != want {
		t.Fatalf("got:\n%s\nwant:\n%s", md, want)
	}
}

func TestRenderMarkdown_FinalOnlyWithTitle(t *testing.T) {
	t.Parallel()
	tree, src := fixture(t)
	md, err := RenderMarkdown(context.Background(), tree, src, RenderOptions{Title: "Book", FinalOnly: true, IncludeEmpty: true})
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	for _, want := range []string{"# Book\n", "## 第一章 I\n", "### 第一节 a\n", "### 第二节 b\n", "## 第二章 II\n"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "draft text") || strings.Contains(md, "开始编写") {
		t.Fatalf("drafts and placeholders must not be exported:\n%s", md)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>line<br>two</p>", "line  \ntwo"},
		{`<p><em>x</em> and <u>y</u> <a href="http://e">link</a></p>`, "*x* and <u>y</u> [link](http://e)"},
		{"<ol><li>one<ul><li>sub</li></ul></li><li>two</li></ol>", "1. one\n  - sub\n2. two"},
		{"<blockquote><p>q</p></blockquote>", "> q"},
		{"<div><p>a</p><p>b</p></div>", "a\n\nb"},
		{"<h2>Head</h2><p>x</p>", "## Head\n\nx"},
	}
	for _, tt := range tests {
		if got := HTMLToMarkdown(tt.in); got != tt.want {
			t.Fatalf("HTMLToMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteMarkdown_RefusesOverwrite(t *testing.T) {
	t.Parallel()
	tree, src := fixture(t)
	path := filepath.Join(t.TempDir(), "out", "book.md")
	res, err := WriteMarkdown(context.Background(), tree, src, path, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if len(res.Written) != 1 || res.Written[0] != path {
		t.Fatalf("unexpected result %+v", res)
	}
	b, err := os.ReadFile(path)
	if err != nil || len(b) != res.Bytes {
		t.Fatalf("read back: %v (%d vs %d bytes)", err, len(b), res.Bytes)
	}
	if _, err := WriteMarkdown(context.Background(), tree, src, path, WriteOptions{}); err == nil {
		t.Fatalf("expected an error without Overwrite")
	}
	if _, err := WriteMarkdown(context.Background(), tree, src, path, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestRenderTerminal(t *testing.T) {
	t.Parallel()
	out, err := RenderTerminal("# Title\n\nHello **world**\n", 40)
	if err != nil {
		t.Fatalf("RenderTerminal: %v", err)
	}
	if !strings.Contains(out, "Hello") || !strings.Contains(out, "world") {
		t.Fatalf("unexpected render %q", out)
	}
}
