package model

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindChapter    Kind = "chapter"
	KindSection    Kind = "section"
	KindSubsection Kind = "subsection"
)

// Level returns the hierarchy depth of k (chapter=1, section=2, subsection=3), or 0 if unknown.
func (k Kind) Level() int {
	switch k {
	case KindChapter:
		return 1
	case KindSection:
		return 2
	case KindSubsection:
		return 3
	default:
		return 0
	}
}

// ChildKind returns the kind a node of kind k may contain. Subsections have no children.
func (k Kind) ChildKind() (Kind, bool) {
	switch k {
	case KindChapter:
		return KindSection, true
	case KindSection:
		return KindSubsection, true
	default:
		return "", false
	}
}

func (k Kind) Valid() bool { return k.Level() > 0 }

func KindForLevel(level int) (Kind, bool) {
	switch level {
	case 1:
		return KindChapter, true
	case 2:
		return KindSection, true
	case 3:
		return KindSubsection, true
	default:
		return "", false
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chapter", "ch":
		return KindChapter, nil
	case "section", "sec":
		return KindSection, nil
	case "subsection", "sub":
		return KindSubsection, nil
	default:
		return "", fmt.Errorf("unknown node kind: %q", s)
	}
}

type ContentState string

const (
	StateEmpty ContentState = "empty"
	StateDraft ContentState = "draft"
	StateFinal ContentState = "final"
)

type Variant string

const (
	VariantDraft Variant = "draft"
	VariantFinal Variant = "final"
)

// NodeID identifies a node within one loaded outline. IDs are assigned by the tree and are
// stable for the lifetime of the tree, not across loads.
type NodeID string

// RowKind tags an entry of the flat outline layout.
type RowKind string

const (
	RowChapter    RowKind = "chapter"
	RowSection    RowKind = "section"
	RowSubsection RowKind = "subsection"
	RowGroupStart RowKind = "group-start"
	RowGroupEnd   RowKind = "group-end"
)

// Row is one entry of the flat, document-ordered outline layout. Group rows carry no
// number/title; they bracket a run of subsection rows owned by the preceding section.
type Row struct {
	Kind   RowKind `json:"kind" yaml:"kind"`
	Number string  `json:"number,omitempty" yaml:"number,omitempty"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
}

func RowKindFor(k Kind) RowKind {
	switch k {
	case KindChapter:
		return RowChapter
	case KindSection:
		return RowSection
	default:
		return RowSubsection
	}
}

func (r RowKind) NodeKind() (Kind, bool) {
	switch r {
	case RowChapter:
		return KindChapter, true
	case RowSection:
		return KindSection, true
	case RowSubsection:
		return KindSubsection, true
	default:
		return "", false
	}
}

type Event struct {
	ID       string    `json:"id" yaml:"id"`
	TS       time.Time `json:"ts" yaml:"ts"`
	Type     string    `json:"type" yaml:"type"`
	EntityID string    `json:"entityId" yaml:"entityId"`
	Payload  any       `json:"payload" yaml:"payload"`
}
