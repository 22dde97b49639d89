package page

import "folio/internal/numbering"

type messages struct {
	draftSaved    string
	saved         string
	notFound      string
	selectFirst   string
	discardPrompt string
}

var catalog = map[numbering.Locale]messages{
	numbering.LocaleZH: {
		draftSaved:    "草稿已保存",
		saved:         "内容已保存",
		notFound:      "章节不存在",
		selectFirst:   "请先点击左侧章节内容概述来选择要编写的章节",
		discardPrompt: "有未保存的更改，确定要关闭吗？",
	},
	numbering.LocaleEN: {
		draftSaved:    "Draft saved",
		saved:         "Content saved",
		notFound:      "That node no longer exists",
		selectFirst:   "Select a chapter in the outline before writing",
		discardPrompt: "You have unsaved changes. Close anyway?",
	},
}

func messagesFor(loc numbering.Locale) messages {
	if m, ok := catalog[loc]; ok {
		return m
	}
	return catalog[numbering.DefaultLocale]
}
