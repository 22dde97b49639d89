package format

import (
	"bytes"
	"strings"
	"testing"
)

type row struct {
	Kind   string `json:"kind" yaml:"kind"`
	Number string `json:"number" yaml:"number"`
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": row{Kind: "chapter", Number: "第一章"}}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `{"data":{"kind":"chapter","number":"第一章"}}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWrite_PrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, row{Kind: "section"}, "json", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"kind\": \"section\"") {
		t.Fatalf("expected indented JSON, got %q", buf.String())
	}
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": []row{{Kind: "chapter", Number: "1"}}}, "yaml", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "data:\n  - kind: chapter\n    number: \"1\"\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestWrite_JSONKeepsHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]string{"content": "<p>a & b</p>"}, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != `{"content":"<p>a & b</p>"}`+"\n" {
		t.Fatalf("got %q", buf.String())
	}
}
