package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, strings.NewReader(""), args)
}

func runCLIWithInput(t *testing.T, in io.Reader, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetIn(in)
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// isolate points config and workspace resolution at temp dirs.
func isolate(t *testing.T) (cfgDir string) {
	t.Helper()
	cfgDir = t.TempDir()
	t.Setenv("FOLIO_CONFIG_DIR", cfgDir)
	t.Setenv("FOLIO_DIR", "")
	t.Setenv("FOLIO_WORKSPACE", "")
	t.Setenv("FOLIO_FORMAT", "")
	return cfgDir
}

func mustRun(t *testing.T, args ...string) []byte {
	t.Helper()
	out, errOut, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func data(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	d, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object in %s", out)
	}
	return d
}

func entries(t *testing.T, out []byte) []map[string]any {
	t.Helper()
	raw, _ := data(t, out)["entries"].([]any)
	var es []map[string]any
	for _, r := range raw {
		es = append(es, r.(map[string]any))
	}
	return es
}

func TestWriteReadExportFlow(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	if got := data(t, mustRun(t, "--dir", dir, "init"))["nodes"]; got != float64(0) {
		t.Fatalf("init nodes = %v", got)
	}

	d := data(t, mustRun(t, "--dir", dir, "add", "--title", "绪论"))
	if d["path"] != "1" || d["added"].(map[string]any)["number"] != "第一章" {
		t.Fatalf("add chapter: %#v", d)
	}
	d = data(t, mustRun(t, "--dir", dir, "add", "1", "--title", "背景"))
	if d["path"] != "1.1" || d["added"].(map[string]any)["number"] != "第一节" {
		t.Fatalf("add section: %#v", d)
	}

	d = data(t, mustRun(t, "--dir", dir, "write", "1.1", "--text", "<p>Hello <strong>world</strong></p>"))
	if d["state"] != "final" {
		t.Fatalf("write state = %v", d["state"])
	}
	// A later draft never demotes the final version.
	d = data(t, mustRun(t, "--dir", dir, "write", "1.1", "--draft", "--text", "<p>later</p>"))
	if d["state"] != "final" {
		t.Fatalf("draft write state = %v", d["state"])
	}

	if got := string(mustRun(t, "--dir", dir, "read", "1.1", "--raw")); got != "<p>Hello <strong>world</strong></p>\n" {
		t.Fatalf("read --raw = %q", got)
	}
	d = data(t, mustRun(t, "--dir", dir, "read", "第一章/第一节"))
	if d["number"] != "第一节" || d["state"] != "final" {
		t.Fatalf("read by qualified number: %#v", d)
	}

	es := entries(t, mustRun(t, "--dir", dir, "show"))
	if len(es) != 2 || es[1]["state"] != "final" || es[1]["path"] != "1.1" {
		t.Fatalf("show entries: %#v", es)
	}

	got := string(mustRun(t, "--dir", dir, "export"))
	want := "# 第一章 绪论\n\n## 第一节 背景\n\nHello **world**\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("export (-want +got):\n%s", diff)
	}

	to := filepath.Join(t.TempDir(), "out", "book.md")
	mustRun(t, "--dir", dir, "export", "--to", to, "--title", "论文")
	b, err := os.ReadFile(to)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(b), "# 论文\n\n## 第一章 绪论\n") {
		t.Fatalf("export file:\n%s", b)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "export", "--to", to}); err == nil {
		t.Fatalf("expected refusal to overwrite without --overwrite")
	}
}

func TestWrite_StdinAndEmpty(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add")

	out, errOut, err := runCLIWithInput(t, strings.NewReader("<p>from stdin</p>\n"), []string{"--dir", dir, "write", "1"})
	if err != nil {
		t.Fatalf("write: %v\n%s", err, errOut)
	}
	if data(t, out)["preview"] != "from stdin" {
		t.Fatalf("preview: %s", out)
	}

	if _, _, err := runCLIWithInput(t, strings.NewReader("  \n"), []string{"--dir", dir, "write", "1"}); err == nil {
		t.Fatalf("expected an error for empty content")
	}
}

func TestRm_AsksOnStdin(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add", "--title", "A")
	mustRun(t, "--dir", dir, "add", "--title", "B")

	_, errOut, err := runCLIWithInput(t, strings.NewReader("n\n"), []string{"--dir", dir, "rm", "1"})
	if err == nil {
		t.Fatalf("expected refusal")
	}
	if !strings.Contains(string(errOut), "确定要删除此章节吗") {
		t.Fatalf("prompt not shown: %s", errOut)
	}

	out, errOut, err := runCLIWithInput(t, strings.NewReader("是\n"), []string{"--dir", dir, "rm", "1"})
	if err != nil {
		t.Fatalf("rm: %v\n%s", err, errOut)
	}
	removed, _ := data(t, out)["removed"].([]any)
	if len(removed) != 1 {
		t.Fatalf("removed: %s", out)
	}

	es := entries(t, mustRun(t, "--dir", dir, "show"))
	if len(es) != 1 || es[0]["title"] != "B" || es[0]["number"] != "第二章" {
		t.Fatalf("after rm: %#v", es)
	}

	mustRun(t, "--dir", dir, "rm", "1", "--yes")
	if es := entries(t, mustRun(t, "--dir", dir, "show")); len(es) != 0 {
		t.Fatalf("rm --yes left %#v", es)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "rm", "9"}); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestRenameAndSettings(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add")

	d := data(t, mustRun(t, "--dir", dir, "rename", "1", "Intro"))
	if d["title"] != "Intro" {
		t.Fatalf("rename: %#v", d)
	}
	d = data(t, mustRun(t, "--dir", dir, "settings", "1"))
	if d["title"] != "Intro" || d["qualifiedNumber"] != "第一章" || d["kind"] != "chapter" {
		t.Fatalf("settings: %#v", d)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "rename", "1", " "}); err == nil {
		t.Fatalf("expected an error for a blank title")
	}
}

func TestImportMarkdown(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "book.md")
	md := "# 第一章 绪论\n\nintro text\n\n## 第一节 背景\n\nHello\n"
	if err := os.WriteFile(src, []byte(md), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d := data(t, mustRun(t, "--dir", dir, "import", src))
	if d["nodes"] != float64(2) {
		t.Fatalf("import: %#v", d)
	}
	if got := string(mustRun(t, "--dir", dir, "read", "1", "--raw")); !strings.Contains(got, "intro text") {
		t.Fatalf("read after import: %q", got)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "import", src}); err == nil {
		t.Fatalf("expected refusal without --replace")
	}
	mustRun(t, "--dir", dir, "import", src, "--replace")
	if es := entries(t, mustRun(t, "--dir", dir, "show")); len(es) != 2 {
		t.Fatalf("after replace: %#v", es)
	}

	bad := filepath.Join(t.TempDir(), "book.txt")
	_ = os.WriteFile(bad, []byte(md), 0o644)
	if _, _, err := runCLI(t, []string{"--dir", dir, "import", bad}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestWorkspacePrecedence(t *testing.T) {
	isolate(t)

	mustRun(t, "workspace", "use", "alpha")
	mustRun(t, "add", "--title", "in alpha")

	if es := entries(t, mustRun(t, "show")); len(es) != 1 || es[0]["title"] != "in alpha" {
		t.Fatalf("current workspace: %#v", es)
	}
	if es := entries(t, mustRun(t, "--workspace", "beta", "show")); len(es) != 0 {
		t.Fatalf("--workspace should override config: %#v", es)
	}

	d := data(t, mustRun(t, "workspace", "list"))
	if d["current"] != "alpha" {
		t.Fatalf("workspace list: %#v", d)
	}
	if _, _, err := runCLI(t, []string{"workspace", "use", "../x"}); err == nil {
		t.Fatalf("expected invalid workspace name error")
	}
}

func TestConfigLocale(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	mustRun(t, "config", "set", "locale", "en")
	if d := data(t, mustRun(t, "config", "get", "locale")); d["locale"] != "en" {
		t.Fatalf("config get: %#v", d)
	}
	d := data(t, mustRun(t, "--dir", dir, "add"))
	if d["added"].(map[string]any)["number"] != "Chapter One" {
		t.Fatalf("en numbering: %#v", d)
	}
	if _, _, err := runCLI(t, []string{"config", "set", "nope", "x"}); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestEventsAndYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add")

	var env struct {
		Data []eventRow `json:"data"`
	}
	if err := json.Unmarshal(mustRun(t, "--dir", dir, "events"), &env); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(env.Data) == 0 {
		t.Fatalf("no events")
	}
	last := env.Data[len(env.Data)-1]
	if last.Type != "node.add" || last.EntityID != "第一章" || last.Ago == "" {
		t.Fatalf("events: %#v", env.Data)
	}

	out := string(mustRun(t, "--dir", dir, "--format", "yaml", "show"))
	if !strings.HasPrefix(out, "data:\n  entries:\n") {
		t.Fatalf("yaml output:\n%s", out)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "--format", "edn", "show"}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestDocs(t *testing.T) {
	isolate(t)

	d := data(t, mustRun(t, "docs"))
	topics, _ := d["topics"].([]any)
	found := false
	for _, tp := range topics {
		if tp == "mcp" {
			found = true
		}
	}
	if !found {
		t.Fatalf("topics: %#v", topics)
	}
	if got := string(mustRun(t, "docs", "outline", "--raw")); !strings.HasPrefix(got, "# ") {
		t.Fatalf("raw topic: %q", got)
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestDoctorAndBackup(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add", "--title", "A")
	mustRun(t, "--dir", dir, "write", "1", "--text", "<p>x</p>")

	issues, _ := data(t, mustRun(t, "--dir", dir, "doctor"))["issues"].([]any)
	if len(issues) != 0 {
		t.Fatalf("doctor issues: %#v", issues)
	}

	to := filepath.Join(t.TempDir(), "copy.sqlite")
	d := data(t, mustRun(t, "--dir", dir, "backup", "--to", to))
	if d["path"] != to {
		t.Fatalf("backup: %#v", d)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "backup", "--to", to}); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "backup"}); err == nil {
		t.Fatalf("expected --to to be required")
	}
}

func TestAdd_TitledChildIsOneCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add", "--title", "绪论")
	mustRun(t, "--dir", dir, "add", "1", "--title", "背景")

	var env struct {
		Data []eventRow `json:"data"`
	}
	if err := json.Unmarshal(mustRun(t, "--dir", dir, "events"), &env); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	var types []string
	for _, ev := range env.Data {
		types = append(types, ev.Type)
	}
	if diff := cmp.Diff([]string{"node.add", "node.add"}, types); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if es := entries(t, mustRun(t, "--dir", dir, "show")); es[1]["title"] != "背景" {
		t.Fatalf("entries: %#v", es)
	}
}
