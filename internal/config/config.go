package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pageindex/internal/logging"
)

// DefaultFileName is looked up in the workspace when no --config is given.
const DefaultFileName = "pageindex.yaml"

// Config holds all pageindex configuration.
type Config struct {
	// Model used for node summaries and document descriptions.
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`

	// Tree generation switches and thresholds
	Index IndexConfig `yaml:"index"`

	// Directory that receives <doc_name>_code_structure.json files
	OutputDir string `yaml:"output_dir"`

	Store   StoreConfig   `yaml:"store"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig mirrors the yes/no switches of the code tree pipeline.
type IndexConfig struct {
	IfAddNodeID         YesNo `yaml:"if_add_node_id"`
	IfAddNodeSummary    YesNo `yaml:"if_add_node_summary"`
	IfAddDocDescription YesNo `yaml:"if_add_doc_description"`
	IfAddNodeText       YesNo `yaml:"if_add_node_text"`
	IfThinning          YesNo `yaml:"if_thinning"`

	ThinningThreshold     int `yaml:"thinning_threshold"`
	SummaryTokenThreshold int `yaml:"summary_token_threshold"`
	SummaryConcurrency    int `yaml:"summary_concurrency"`
	ParseConcurrency      int `yaml:"parse_concurrency"`
}

// StoreConfig configures the SQLite run store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: "gemini-2.0-flash",
		Index: IndexConfig{
			IfAddNodeID:           true,
			IfAddNodeSummary:      false,
			IfAddDocDescription:   false,
			IfAddNodeText:         false,
			IfThinning:            false,
			ThinningThreshold:     5000,
			SummaryTokenThreshold: 200,
			SummaryConcurrency:    8,
			ParseConcurrency:      4,
		},
		OutputDir: "./results",
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(".pageindex", "index.db"),
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets the environment win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PAGEINDEX_MODEL"); v != "" {
		c.Model = v
	}
	// GEMINI_API_KEY takes precedence over GOOGLE_API_KEY.
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PAGEINDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks thresholds and enum-like fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.Index.ThinningThreshold < 0 {
		return fmt.Errorf("thinning_threshold must be >= 0, got %d", c.Index.ThinningThreshold)
	}
	if c.Index.SummaryTokenThreshold < 0 {
		return fmt.Errorf("summary_token_threshold must be >= 0, got %d", c.Index.SummaryTokenThreshold)
	}
	if c.Index.SummaryConcurrency < 1 {
		return fmt.Errorf("summary_concurrency must be >= 1, got %d", c.Index.SummaryConcurrency)
	}
	if c.Index.ParseConcurrency < 1 {
		return fmt.Errorf("parse_concurrency must be >= 1, got %d", c.Index.ParseConcurrency)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	for name := range c.Logging.Categories {
		if !logging.IsKnownCategory(name) {
			return fmt.Errorf("unknown logging category %q", name)
		}
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return err
	}
	return nil
}

// LoggerConfig converts the logging section for logging.Initialize.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.JSONFormat,
		Categories: c.Logging.Categories,
		OutputPath: c.Logging.File,
	}
}
