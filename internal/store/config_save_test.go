package store

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("FOLIO_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{CurrentWorkspace: "seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 32
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.CurrentWorkspace = fmt.Sprintf("ws-%d", i)
			cfg.PreviewLimit = 100 + i
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}
	if t.Failed() {
		return
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config.yaml: %v", err)
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("config.yaml corrupted/unparseable: %v\nraw:\n%s", err, string(raw))
	}

	ents, err := os.ReadDir(cfgDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
	if bak, err := os.ReadFile(path + ".bak"); err == nil && len(bak) > 0 {
		var bakCfg GlobalConfig
		if err := yaml.Unmarshal(bak, &bakCfg); err != nil {
			t.Fatalf("config.yaml.bak corrupted/unparseable: %v", err)
		}
	}
}

func TestConfig_SetAndGetKeys(t *testing.T) {
	cfg := &GlobalConfig{}
	defaults := map[string]string{
		"locale":       "zh",
		"renumber":     "lazy",
		"previewLimit": "120",
		"tui.glyphs":   "unicode",
	}
	for k, want := range defaults {
		got, err := cfg.Get(k)
		if err != nil || got != want {
			t.Fatalf("default %s = %q (%v), want %q", k, got, err, want)
		}
	}

	sets := map[string]string{
		"locale":        "en",
		"renumber":      "STRICT",
		"previewLimit":  "40",
		"logging.level": "Debug",
		"tui.glyphs":    "ascii",
	}
	for k, v := range sets {
		if err := cfg.Set(k, v); err != nil {
			t.Fatalf("Set(%s, %s): %v", k, v, err)
		}
	}
	if !cfg.StrictRenumber() || cfg.Preview() != 40 || cfg.NumberLocale() != "en" || cfg.Glyphs() != "ascii" {
		t.Fatalf("unexpected config after Set: %#v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Logging.Level)
	}

	bad := map[string]string{
		"locale":           "fr",
		"renumber":         "sometimes",
		"previewLimit":     "-1",
		"tui.glyphs":       "emoji",
		"currentWorkspace": "../x",
		"nope":             "1",
	}
	for k, v := range bad {
		if err := cfg.Set(k, v); err == nil {
			t.Fatalf("Set(%s, %s): expected error", k, v)
		}
	}
}

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("FOLIO_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CurrentWorkspace != "" || cfg.StrictRenumber() {
		t.Fatalf("expected zero config, got %#v", cfg)
	}
}
