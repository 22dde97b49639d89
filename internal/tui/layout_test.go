package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestNormalizePane_PadsAndCuts(t *testing.T) {
	out := normalizePane("short\n"+strings.Repeat("x", 30)+"\nthird\nfourth", 10, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 10 {
			t.Fatalf("line %d width = %d, want 10 (%q)", i, w, ln)
		}
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("cut line should end in an ellipsis: %q", lines[1])
	}
}

func TestFitWidth_WideRunes(t *testing.T) {
	got := fitWidth("第一章 研究背景与意义", 9)
	if w := xansi.StringWidth(got); w != 9 {
		t.Fatalf("width = %d, want 9 (%q)", w, got)
	}
}

func TestWrapText_LimitsLines(t *testing.T) {
	lines := wrapText("one two three four five six seven eight", 10, 2)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2: %q", len(lines), lines)
	}
	if !strings.Contains(lines[1], "…") {
		t.Fatalf("truncated wrap should mark the cut: %q", lines[1])
	}
}

func TestApproval_RefusesThenRunsOnce(t *testing.T) {
	a := &approval{}
	if a.Confirm("delete?") {
		t.Fatalf("unarmed gate should refuse")
	}
	if got := a.take(); got != "delete?" {
		t.Fatalf("take = %q", got)
	}
	a.arm()
	if !a.Confirm("delete?") {
		t.Fatalf("armed gate should accept")
	}
	if a.Confirm("again?") {
		t.Fatalf("gate should disarm after one answer")
	}
}

func TestClipboardText(t *testing.T) {
	got := clipboardText("第一节", "背景", "<p>Hello <strong>world</strong></p>")
	want := "## 第一节 背景\n\nHello **world**\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
