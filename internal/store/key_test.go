package store

import (
	"testing"

	"folio/internal/model"
)

func TestKey_StringAndParse(t *testing.T) {
	k := Key{Kind: model.KindSubsection, Number: "第一章/第一节/一", Variant: model.VariantFinal}
	if got := k.String(); got != "subsection_第一章/第一节/一_final" {
		t.Fatalf("unexpected key string %q", got)
	}
	back, err := ParseKey(k.String())
	if err != nil || back != k {
		t.Fatalf("ParseKey = %#v, %v", back, err)
	}

	under := Key{Kind: model.KindChapter, Number: "my_title", Variant: model.VariantDraft}
	if back, err := ParseKey(under.String()); err != nil || back != under {
		t.Fatalf("ParseKey with underscore = %#v, %v", back, err)
	}

	for _, bad := range []string{"", "chapter", "chapter_x", "appendix_1_final", "chapter_1_published"} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("ParseKey(%q): expected error", bad)
		}
	}
}
