// Package config loads checklist settings from a TOML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"checklist-cli/internal/fsutil"

	"github.com/BurntSushi/toml"
)

const (
	DefaultImportBatchSize  = 50
	DefaultReorderBatchSize = 10
	DefaultDeletePolicy     = "cascade"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultTheme            = "auto"

	fileName = "config.toml"
)

type Config struct {
	Checklist ChecklistConfig `toml:"checklist" json:"checklist"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Log       LogConfig       `toml:"log" json:"log"`
	TUI       TUIConfig       `toml:"tui" json:"tui"`
}

type ChecklistConfig struct {
	ImportBatchSize  int    `toml:"import_batch_size" json:"import_batch_size"`
	ReorderBatchSize int    `toml:"reorder_batch_size" json:"reorder_batch_size"`
	DeletePolicy     string `toml:"delete_policy" json:"delete_policy"`
}

type StorageConfig struct {
	// DatabaseURL is a postgres:// URL or a SQLite file path. Empty means the workspace SQLite file.
	DatabaseURL string `toml:"database_url" json:"database_url"`
	// RedisURL enables the shared UI state store.
	RedisURL string `toml:"redis_url" json:"redis_url"`
}

type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

type TUIConfig struct {
	// Theme is "auto", "dark", "light" or "none".
	Theme string `toml:"theme" json:"theme"`
}

func Default() *Config {
	return &Config{
		Checklist: ChecklistConfig{
			ImportBatchSize:  DefaultImportBatchSize,
			ReorderBatchSize: DefaultReorderBatchSize,
			DeletePolicy:     DefaultDeletePolicy,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		TUI: TUIConfig{Theme: DefaultTheme},
	}
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.checklist).
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".checklist"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the user config file (if any), then applies CHECKLIST_* env overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.finalize()
}

// LoadFile decodes path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.finalize()
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_DATABASE_URL")); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_REDIS_URL")); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_DELETE_POLICY")); v != "" {
		cfg.Checklist.DeletePolicy = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_THEME")); v != "" {
		cfg.TUI.Theme = v
	}
	for name, dst := range map[string]*int{
		"CHECKLIST_IMPORT_BATCH_SIZE":  &cfg.Checklist.ImportBatchSize,
		"CHECKLIST_REORDER_BATCH_SIZE": &cfg.Checklist.ReorderBatchSize,
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) finalize() error {
	if c.Checklist.ImportBatchSize <= 0 {
		return fmt.Errorf("import_batch_size must be positive (got %d)", c.Checklist.ImportBatchSize)
	}
	if c.Checklist.ReorderBatchSize <= 0 {
		return fmt.Errorf("reorder_batch_size must be positive (got %d)", c.Checklist.ReorderBatchSize)
	}
	c.Checklist.DeletePolicy = strings.ToLower(strings.TrimSpace(c.Checklist.DeletePolicy))
	switch c.Checklist.DeletePolicy {
	case "":
		c.Checklist.DeletePolicy = DefaultDeletePolicy
	case "cascade", "promote":
	default:
		return fmt.Errorf("delete_policy must be cascade or promote (got %q)", c.Checklist.DeletePolicy)
	}
	c.TUI.Theme = strings.ToLower(strings.TrimSpace(c.TUI.Theme))
	if c.TUI.Theme == "" {
		c.TUI.Theme = DefaultTheme
	}
	return nil
}

// Save writes cfg to the user config path atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := cfg.finalize(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(path, buf.Bytes(), 0o600)
}

// Keys lists the settings Set accepts, in file order.
func Keys() []string {
	return []string{
		"checklist.import_batch_size",
		"checklist.reorder_batch_size",
		"checklist.delete_policy",
		"storage.database_url",
		"storage.redis_url",
		"log.level",
		"log.format",
		"tui.theme",
	}
}

// Set assigns one dotted key. The section prefix may be omitted for unambiguous keys.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !strings.Contains(key, ".") {
		for _, k := range Keys() {
			if strings.HasSuffix(k, "."+key) {
				key = k
				break
			}
		}
	}
	value = strings.TrimSpace(value)
	switch key {
	case "checklist.import_batch_size", "checklist.reorder_batch_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "checklist.import_batch_size" {
			c.Checklist.ImportBatchSize = n
		} else {
			c.Checklist.ReorderBatchSize = n
		}
	case "checklist.delete_policy":
		c.Checklist.DeletePolicy = value
	case "storage.database_url":
		c.Storage.DatabaseURL = value
	case "storage.redis_url":
		c.Storage.RedisURL = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "tui.theme":
		c.TUI.Theme = value
	default:
		return fmt.Errorf("unknown config key %q (one of: %s)", key, strings.Join(Keys(), ", "))
	}
	return c.finalize()
}
