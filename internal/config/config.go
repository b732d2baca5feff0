// Package config loads the application configuration. Values from the file
// given on the command line are laid over the embedded defaults.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfig []byte

// AppName names the data directory and the logger.
const AppName = "pagebuilder"

type (
	DatabaseConfig struct {
		Path string `yaml:"path"`
	}

	CatalogConfig struct {
		Dir   string `yaml:"dir"`
		Watch bool   `yaml:"watch"`
	}

	PreviewConfig struct {
		InputDebounce time.Duration `yaml:"input_debounce"`
	}

	HistoryConfig struct {
		Limit         int    `yaml:"limit"`
		PruneSchedule string `yaml:"prune_schedule"`
	}

	MCPConfig struct {
		DefaultSource   string        `yaml:"default_source"`
		RequireApproval bool          `yaml:"require_approval"`
		ApprovalTimeout time.Duration `yaml:"approval_timeout"`
	}

	Config struct {
		DataDir  string         `yaml:"data_dir"`
		Database DatabaseConfig `yaml:"database"`
		Catalog  CatalogConfig  `yaml:"catalog"`
		Preview  PreviewConfig  `yaml:"preview"`
		History  HistoryConfig  `yaml:"history"`
		MCP      MCPConfig      `yaml:"mcp"`
		Logging  LoggingConfig  `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// only fields we defined, typos in the file are errors
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration file at path on top of the defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if c.Preview.InputDebounce < 0 {
		return fmt.Errorf("preview.input_debounce must not be negative")
	}
	if c.MCP.RequireApproval && c.MCP.ApprovalTimeout <= 0 {
		return fmt.Errorf("mcp.approval_timeout must be positive when approvals are required")
	}
	if c.History.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.History.PruneSchedule); err != nil {
			return fmt.Errorf("history.prune_schedule: %w", err)
		}
	}
	return c.Logging.validate()
}

// Dump renders the effective configuration.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// ── Derived paths ───────────────────────────────────────────

// DataPath returns the data directory.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// DBPath returns the SQLite file path.
func (c *Config) DBPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.DataPath(), AppName+".db")
}

// CatalogDir returns the directory of section definitions.
func (c *Config) CatalogDir() string {
	if c.Catalog.Dir != "" {
		return c.Catalog.Dir
	}
	return filepath.Join(c.DataPath(), "sections")
}
