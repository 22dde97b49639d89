package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminals can't change the user's font, but we can pick between Unicode and ASCII glyphs
// for twisties, rules and the more-options marker.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference uses FOLIO_TUI_GLYPHS, else the configured value.
func applyGlyphPreference(configured string) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FOLIO_TUI_GLYPHS")))
	if v == "" {
		v = strings.ToLower(strings.TrimSpace(configured))
	}
	switch v {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphTwistyCollapsed() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphTwistyExpanded() string {
	if glyphs() == glyphSetASCII {
		return "v"
	}
	return "▾"
}

func glyphMore() string {
	if glyphs() == glyphSetASCII {
		return "..."
	}
	return "⋯"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}

func glyphState(draft, final bool) string {
	switch {
	case final && glyphs() == glyphSetASCII:
		return "*"
	case final:
		return "●"
	case draft && glyphs() == glyphSetASCII:
		return "o"
	case draft:
		return "◐"
	default:
		return " "
	}
}
