package tui

import (
	"strings"

	"github.com/atotto/clipboard"

	"folio/internal/content"
	"folio/internal/publish"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// clipboardText is the node heading followed by its content as Markdown.
func clipboardText(number, title, body string) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(strings.TrimSpace(number + " " + title))
	b.WriteString("\n")
	if md := publish.HTMLToMarkdown(body); md != "" && !content.IsPlaceholder(body) {
		b.WriteString("\n")
		b.WriteString(md)
		b.WriteString("\n")
	}
	return strings.ReplaceAll(b.String(), "\r\n", "\n")
}
