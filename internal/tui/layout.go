package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines, so split panes
// line up under lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		lines[i] = fitWidth(ln, width)
	}
	return strings.Join(lines, "\n")
}

// fitWidth pads or cuts ln to width columns; cut lines end in an ellipsis.
func fitWidth(ln string, width int) string {
	if width <= 0 {
		return ""
	}
	// Bound the width computation on huge lines.
	if len(ln) > 8192 {
		ln = xansi.Cut(ln, 0, width+1)
	}
	w := xansi.StringWidth(ln)
	if w > width {
		if width == 1 {
			ln = xansi.Cut(ln, 0, 1)
		} else {
			ln = xansi.Cut(ln, 0, width-1) + "…"
		}
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// wrapText word-wraps plain text to width and never returns more than maxLines lines.
func wrapText(s string, width, maxLines int) []string {
	if width < 4 {
		width = 4
	}
	lines := strings.Split(wordwrap.String(s, width), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = fitWidth(lines[maxLines-1]+" …", width)
	}
	return lines
}
