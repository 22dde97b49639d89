// Package numbering derives outline display numbers from (level, ordinal).
//
// Ordinals 1..10 use a locale's ordinal-word table wrapped per level ("第三节",
// "Chapter Three"). Anything above ten falls back to a bare Arabic numeral ("11"),
// without the per-level wrapping.
package numbering

import (
	"strconv"
	"strings"
)

// WordLimit is the largest ordinal rendered with the ordinal-word table.
const WordLimit = 10

type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleZH
)

type levelStyle struct {
	words  [WordLimit]string
	prefix string
	suffix string
}

type localeTable struct {
	levels [3]levelStyle
}

var zhWords = [WordLimit]string{"一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

var enCapWords = [WordLimit]string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten"}

var enOrdWords = [WordLimit]string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

var tables = map[Locale]localeTable{
	LocaleZH: {levels: [3]levelStyle{
		{words: zhWords, prefix: "第", suffix: "章"},
		{words: zhWords, prefix: "第", suffix: "节"},
		{words: zhWords},
	}},
	LocaleEN: {levels: [3]levelStyle{
		{words: enCapWords, prefix: "Chapter "},
		{words: enCapWords, prefix: "Section "},
		{words: enOrdWords},
	}},
}

// ParseLocale normalizes a locale name; unknown names map to DefaultLocale.
func ParseLocale(s string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zh", "zh-cn", "zh_cn", "cn":
		return LocaleZH, true
	case "en", "en-us", "en_us", "en-gb":
		return LocaleEN, true
	default:
		return DefaultLocale, false
	}
}

// Locales lists the supported locales.
func Locales() []Locale { return []Locale{LocaleZH, LocaleEN} }

type Formatter struct {
	Locale Locale
}

func (f Formatter) table() localeTable {
	if t, ok := tables[f.Locale]; ok {
		return t
	}
	return tables[DefaultLocale]
}

// Number returns the display number for the ordinal-th node at level (1=chapter, 2=section,
// 3=subsection). It never fails: out-of-range input degrades to the Arabic form.
func (f Formatter) Number(level, ordinal int) string {
	if ordinal < 1 || ordinal > WordLimit || level < 1 || level > 3 {
		return strconv.Itoa(ordinal)
	}
	st := f.table().levels[level-1]
	return st.prefix + st.words[ordinal-1] + st.suffix
}

// Parse is the inverse of Number for the given level. It accepts both the ordinal-word form
// and the Arabic fallback.
func (f Formatter) Parse(level int, s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	if level < 1 || level > 3 {
		return 0, false
	}
	st := f.table().levels[level-1]
	if !strings.HasPrefix(s, st.prefix) || !strings.HasSuffix(s, st.suffix) {
		return 0, false
	}
	core := strings.TrimSuffix(strings.TrimPrefix(s, st.prefix), st.suffix)
	for i, w := range st.words {
		if strings.EqualFold(core, w) {
			return i + 1, true
		}
	}
	// The original page wrapped larger section numbers as 第11节.
	if n, err := strconv.Atoi(core); err == nil && n > 0 {
		return n, true
	}
	return 0, false
}

// Number formats with DefaultLocale.
func Number(level, ordinal int) string {
	return Formatter{Locale: DefaultLocale}.Number(level, ordinal)
}

// Parse reads a display number of the given locale back into its ordinal.
func Parse(locale Locale, level int, s string) (int, bool) {
	return Formatter{Locale: locale}.Parse(level, s)
}
