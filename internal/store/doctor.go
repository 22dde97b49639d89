package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"folio/internal/model"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level" yaml:"level"`
	Code    string           `json:"code" yaml:"code"`
	Message string           `json:"message" yaml:"message"`

	Row     int    `json:"row,omitempty" yaml:"row,omitempty"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	EventID string `json:"eventId,omitempty" yaml:"eventId,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues" yaml:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

var ErrDoctorIssuesFound = errors.New("doctor: issues found")

// Doctor checks a workspace database: sqlite integrity, the saved outline layout, content
// entries no node owns, and unreadable audit events. Problems are reported as issues; only a
// failure to read the database at all is returned as an error.
func Doctor(ctx context.Context, db *SQLite) (DoctorReport, error) {
	var issues []DoctorIssue

	var integrity string
	if err := db.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return DoctorReport{}, err
	}
	if integrity != "ok" {
		issues = append(issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "sqlite_integrity",
			Message: integrity,
		})
	}

	rows, saved, err := db.LoadRows(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	owned, rowIssues := qualifiedNumbers(rows)
	issues = append(issues, rowIssues...)

	keys, err := db.Keys(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, k := range keys {
		kind, ok := owned[k.Number]
		switch {
		case !k.Kind.Valid() || (k.Variant != model.VariantDraft && k.Variant != model.VariantFinal):
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "content_key_malformed",
				Message: "unknown kind or variant",
				Key:     k.String(),
			})
		case saved && !ok:
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "content_orphaned",
				Message: fmt.Sprintf("no node numbered %s", k.Number),
				Key:     k.String(),
			})
		case saved && kind != k.Kind:
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "content_kind_mismatch",
				Message: fmt.Sprintf("%s is a %s", k.Number, kind),
				Key:     k.String(),
			})
		}
	}

	evRows, err := db.db.QueryContext(ctx, `SELECT event_id, type, payload_json FROM events ORDER BY seq`)
	if err != nil {
		return DoctorReport{}, err
	}
	defer evRows.Close()
	for evRows.Next() {
		var id, typ, payload string
		if err := evRows.Scan(&id, &typ, &payload); err != nil {
			return DoctorReport{}, err
		}
		if strings.TrimSpace(typ) == "" {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "event_missing_type",
				Message: "event has no type",
				EventID: id,
			})
		}
		if !json.Valid([]byte(payload)) {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "event_payload_invalid",
				Message: "payload is not valid JSON",
				EventID: id,
			})
		}
	}
	if err := evRows.Err(); err != nil {
		return DoctorReport{}, err
	}

	return DoctorReport{Issues: issuesOrEmpty(issues)}, nil
}

// qualifiedNumbers walks the flat layout the way the tree builder does and returns the kind
// of every qualified number it defines.
func qualifiedNumbers(rows []model.Row) (map[string]model.Kind, []DoctorIssue) {
	var (
		issues  []DoctorIssue
		chapter string
		section string
		depth   int
	)
	out := map[string]model.Kind{}
	add := func(i int, q string, kind model.Kind) {
		if _, dup := out[q]; dup {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "outline_duplicate_number",
				Message: fmt.Sprintf("%s is used twice", q),
				Row:     i + 1,
			})
			return
		}
		out[q] = kind
	}
	for i, r := range rows {
		switch r.Kind {
		case model.RowChapter:
			chapter, section = r.Number, ""
			add(i, chapter, model.KindChapter)
		case model.RowSection:
			if chapter == "" {
				issues = append(issues, orphanRow(i, r))
				continue
			}
			section = chapter + "/" + r.Number
			add(i, section, model.KindSection)
		case model.RowSubsection:
			if section == "" {
				issues = append(issues, orphanRow(i, r))
				continue
			}
			add(i, section+"/"+r.Number, model.KindSubsection)
		case model.RowGroupStart:
			depth++
		case model.RowGroupEnd:
			depth--
			if depth < 0 {
				issues = append(issues, DoctorIssue{
					Level:   DoctorIssueLevelError,
					Code:    "outline_unbalanced_group",
					Message: "group end without a start",
					Row:     i + 1,
				})
				depth = 0
			}
		default:
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "outline_unknown_row",
				Message: fmt.Sprintf("unknown row kind %q", r.Kind),
				Row:     i + 1,
			})
		}
	}
	if depth > 0 {
		issues = append(issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "outline_unbalanced_group",
			Message: "group start without an end",
			Row:     len(rows),
		})
	}
	return out, issues
}

func orphanRow(i int, r model.Row) DoctorIssue {
	return DoctorIssue{
		Level:   DoctorIssueLevelError,
		Code:    "outline_orphan_row",
		Message: fmt.Sprintf("%s %s has no parent", r.Kind, r.Number),
		Row:     i + 1,
	}
}

func issuesOrEmpty(xs []DoctorIssue) []DoctorIssue {
	if xs == nil {
		return []DoctorIssue{}
	}
	return xs
}
