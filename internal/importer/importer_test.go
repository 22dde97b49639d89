package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"folio/internal/model"
	"folio/internal/outline"
	"folio/internal/store"
)

const outlineMD = `# 第一章 绪论

Intro paragraph.

## 第一节 背景

### 研究现状

#### Notes

- one
- two

## 第二节 方法

# Chapter Two Results
`

func TestMarkdown_Headings(t *testing.T) {
	doc, err := Markdown(strings.NewReader(outlineMD))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	want := []model.Row{
		{Kind: model.RowChapter, Number: "第一章", Title: "绪论"},
		{Kind: model.RowSection, Number: "第一节", Title: "背景"},
		{Kind: model.RowGroupStart},
		{Kind: model.RowSubsection, Title: "研究现状"},
		{Kind: model.RowGroupEnd},
		{Kind: model.RowSection, Number: "第二节", Title: "方法"},
		{Kind: model.RowChapter, Number: "Chapter Two", Title: "Results"},
	}
	if diff := cmp.Diff(want, doc.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if doc.Nodes() != 5 || len(doc.Bodies) != 5 {
		t.Fatalf("expected 5 nodes with aligned bodies, got %d/%d", doc.Nodes(), len(doc.Bodies))
	}
	if doc.Bodies[0] != "<p>Intro paragraph.</p>" {
		t.Fatalf("unexpected chapter body %q", doc.Bodies[0])
	}
	if !strings.Contains(doc.Bodies[2], "<h4>Notes</h4>") || !strings.Contains(doc.Bodies[2], "<li>two</li>") {
		t.Fatalf("deeper headings should fold into the subsection body, got %q", doc.Bodies[2])
	}
	if doc.Bodies[1] != "" {
		t.Fatalf("section without text should have no body, got %q", doc.Bodies[1])
	}
}

func TestMarkdown_SectionBeforeChapter(t *testing.T) {
	_, err := Markdown(strings.NewReader("## Orphan\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected a positioned error, got %v", err)
	}
}

const pageHTML = `<html><body>
<div class="outline">
  <div class="chapter-item active-chapter">
    <div class="chapter-title"><div class="chapter-number">第一章</div></div>
    <div class="chapter-desc">章节内容概述</div>
    <div class="chapter-content-preview">ignored</div>
  </div>
  <div class="section-item">
    <div class="section-title"><div class="section-number">第一节</div><div class="dropdown-icon"></div></div>
    <div class="section-desc">背景</div>
  </div>
  <div class="subsection-list">
    <div class="subsection-item">
      <div class="subsection-title"><div class="subsection-number">一</div></div>
      <div class="subsection-desc">  研究
        现状 </div>
    </div>
  </div>
  <div class="section-item">
    <div class="section-title"><div class="section-number">第二节</div></div>
    <div class="section-desc">方法</div>
  </div>
  <div class="subsection-item">
    <div class="subsection-title"><div class="subsection-number">一</div></div>
    <div class="subsection-desc">loose</div>
  </div>
</div>
<script>var x = "<div class='chapter-item'>";</script>
</body></html>`

func TestHTML_PageLayout(t *testing.T) {
	doc, err := HTML(strings.NewReader(pageHTML))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	want := []model.Row{
		{Kind: model.RowChapter, Number: "第一章", Title: "章节内容概述"},
		{Kind: model.RowSection, Number: "第一节", Title: "背景"},
		{Kind: model.RowGroupStart},
		{Kind: model.RowSubsection, Number: "一", Title: "研究 现状"},
		{Kind: model.RowGroupEnd},
		{Kind: model.RowSection, Number: "第二节", Title: "方法"},
		{Kind: model.RowGroupStart},
		{Kind: model.RowSubsection, Number: "一", Title: "loose"},
		{Kind: model.RowGroupEnd},
	}
	if diff := cmp.Diff(want, doc.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestHTML_SubsectionUnderChapter(t *testing.T) {
	const bad = `<div class="chapter-item"><div class="chapter-desc">I</div></div>
<div class="subsection-item"><div class="subsection-desc">x</div></div>`
	if _, err := HTML(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected an error for a subsection directly under a chapter")
	}
}

func TestApply_WritesRowsAndBodies(t *testing.T) {
	ctx := context.Background()
	doc, err := Markdown(strings.NewReader(outlineMD))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	mem := store.NewMemory()
	tree, err := Apply(ctx, doc, mem, outline.ParseOptions{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tree.Len() != 5 {
		t.Fatalf("expected 5 nodes, got %d", tree.Len())
	}
	rows, ok, _ := mem.LoadRows(ctx)
	if !ok || len(rows) != len(doc.Rows) {
		t.Fatalf("rows not saved: ok=%v len=%d", ok, len(rows))
	}
	// The subsection had no number; it is filled from position.
	if rows[3].Number != "一" {
		t.Fatalf("expected a filled-in subsection number, got %q", rows[3].Number)
	}
	got, ok, _ := mem.Get(ctx, store.Key{Kind: model.KindChapter, Number: "第一章", Variant: model.VariantFinal})
	if !ok || got != "<p>Intro paragraph.</p>" {
		t.Fatalf("chapter body not stored: %q ok=%v", got, ok)
	}
	if _, ok, _ := mem.Get(ctx, store.Key{Kind: model.KindSubsection, Number: "第一章/第一节/一", Variant: model.VariantFinal}); !ok {
		t.Fatalf("subsection body not stored; keys=%v", mem.Keys())
	}
	if _, ok, _ := mem.Get(ctx, store.Key{Kind: model.KindSection, Number: "第一章/第一节", Variant: model.VariantFinal}); ok {
		t.Fatalf("empty body must not be stored")
	}
}
