package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"folio/internal/numbering"
)

const (
	RenumberLazy   = "lazy"
	RenumberStrict = "strict"

	DefaultPreviewLimit = 120
)

type GlobalConfig struct {
	CurrentWorkspace string `yaml:"currentWorkspace,omitempty"`

	// Locale selects the numbering and placeholder language ("zh" or "en").
	Locale string `yaml:"locale,omitempty"`

	// Renumber is "lazy" (numbers fixed at creation) or "strict" (siblings renumbered after a delete).
	Renumber string `yaml:"renumber,omitempty"`

	PreviewLimit int `yaml:"previewLimit,omitempty"`

	Logging LoggingConfig `yaml:"logging,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `yaml:"tui,omitempty"`
}

type LoggingConfig struct {
	// Level is a zap level name (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`
	// File overrides <configDir>/logs/folio.log for TUI and MCP modes.
	File string `yaml:"file,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `yaml:"glyphs,omitempty"`
}

// NumberLocale returns the configured numbering locale.
func (c *GlobalConfig) NumberLocale() numbering.Locale {
	if c == nil {
		return numbering.DefaultLocale
	}
	loc, _ := numbering.ParseLocale(c.Locale)
	return loc
}

// StrictRenumber reports whether siblings are renumbered after a delete.
func (c *GlobalConfig) StrictRenumber() bool {
	return c != nil && strings.EqualFold(strings.TrimSpace(c.Renumber), RenumberStrict)
}

func (c *GlobalConfig) Preview() int {
	if c == nil || c.PreviewLimit <= 0 {
		return DefaultPreviewLimit
	}
	return c.PreviewLimit
}

func (c *GlobalConfig) Glyphs() string {
	if c == nil || c.TUI == nil || strings.TrimSpace(c.TUI.Glyphs) == "" {
		return "unicode"
	}
	return strings.TrimSpace(c.TUI.Glyphs)
}

// ConfigKeys lists the keys accepted by Get and Set.
func ConfigKeys() []string {
	return []string{"currentWorkspace", "locale", "renumber", "previewLimit", "logging.level", "logging.file", "tui.glyphs"}
}

// Get returns the value of a dotted config key.
func (c *GlobalConfig) Get(key string) (string, error) {
	switch key {
	case "currentWorkspace":
		return c.CurrentWorkspace, nil
	case "locale":
		return string(c.NumberLocale()), nil
	case "renumber":
		if c.StrictRenumber() {
			return RenumberStrict, nil
		}
		return RenumberLazy, nil
	case "previewLimit":
		return strconv.Itoa(c.Preview()), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.file":
		return c.Logging.File, nil
	case "tui.glyphs":
		return c.Glyphs(), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set validates and assigns a dotted config key.
func (c *GlobalConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "currentWorkspace":
		if value != "" {
			if _, err := NormalizeWorkspaceName(value); err != nil {
				return err
			}
		}
		c.CurrentWorkspace = value
	case "locale":
		loc, ok := numbering.ParseLocale(value)
		if !ok {
			return fmt.Errorf("unknown locale: %q", value)
		}
		c.Locale = string(loc)
	case "renumber":
		v := strings.ToLower(value)
		if v != RenumberLazy && v != RenumberStrict {
			return fmt.Errorf("renumber must be %q or %q", RenumberLazy, RenumberStrict)
		}
		c.Renumber = v
	case "previewLimit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("previewLimit must be a positive integer")
		}
		c.PreviewLimit = n
	case "logging.level":
		c.Logging.Level = strings.ToLower(value)
	case "logging.file":
		c.Logging.File = value
	case "tui.glyphs":
		if value != "unicode" && value != "ascii" {
			return fmt.Errorf("tui.glyphs must be unicode or ascii")
		}
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		c.TUI.Glyphs = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.folio).
	if v := strings.TrimSpace(os.Getenv("FOLIO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".folio"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogPath returns the log file used when stdout is owned by the TUI or the MCP transport.
func LogPath(cfg *GlobalConfig) (string, error) {
	if cfg != nil && strings.TrimSpace(cfg.Logging.File) != "" {
		return cfg.Logging.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "folio.log"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Keep the previous config next to the new one; failures here never block the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.yaml.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

func NormalizeWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("workspace name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid workspace name: %q", name)
	}
	return name, nil
}

// ListWorkspaces returns the names of the directories under <configDir>/workspaces.
func ListWorkspaces() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	out := []string{}
	ents, err := os.ReadDir(filepath.Join(dir, "workspaces"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range ents {
		if e.IsDir() && strings.TrimSpace(e.Name()) != "" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
