package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// envFeatureFlag gates the whole suggestion engine. Unset means enabled;
// "0", "false" or "off" disables it so the surrounding editor can fall back
// to plain viewing.
const envFeatureFlag = "REDLINE_ENGINE"

type Config struct {
	Engine struct {
		UndoDepth   int    `yaml:"undo_depth"`   // bounded undo history (default: 50)
		DriftPolicy string `yaml:"drift_policy"` // "relocate" (default) or "invalidate"
	} `yaml:"engine"`

	Document struct {
		Path string `yaml:"path"` // file the CLI loads and saves
	} `yaml:"document"`

	Log struct {
		Path  string `yaml:"path"`  // empty = logging off
		Level string `yaml:"level"` // "debug", "info" (default), "warn", "error"
	} `yaml:"log"`

	Tools ToolsConfig `yaml:"tools"`
}

// ToolsConfig holds per-tool configuration with explicit enable/disable
type ToolsConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"` // per-call wall clock (default: 30)

	HighlightText    HighlightTextToolConfig `yaml:"highlight_text"`
	GetLineContent   GetLineToolConfig       `yaml:"get_line_content"`
	GetDocumentStats ToggleToolConfig        `yaml:"get_document_stats"`
	FinishReview     ToggleToolConfig        `yaml:"finish_review"`
}

// HighlightTextToolConfig configures the highlight_text tool
type HighlightTextToolConfig struct {
	Enabled        *bool   `yaml:"enabled"`         // nil = enabled
	MinConfidence  float64 `yaml:"min_confidence"`  // drop proposals below this (0 = keep all)
	MaxSuggestions int     `yaml:"max_suggestions"` // cap per review (0 = unlimited)
}

// GetLineToolConfig configures the get_line_content tool
type GetLineToolConfig struct {
	Enabled       *bool `yaml:"enabled"`
	MaxWindowSize int   `yaml:"max_window_size"` // widest context window served (default: 50)
}

// ToggleToolConfig covers tools with no knobs beyond on/off
type ToggleToolConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a yaml config file, fills defaults, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.Document.Path != "" {
		abs, err := filepath.Abs(cfg.Document.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve document path: %w", err)
		}
		cfg.Document.Path = abs
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.UndoDepth == 0 {
		c.Engine.UndoDepth = 50
	}
	if c.Engine.DriftPolicy == "" {
		c.Engine.DriftPolicy = "relocate"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Tools.TimeoutSeconds == 0 {
		c.Tools.TimeoutSeconds = 30
	}
	if c.Tools.GetLineContent.MaxWindowSize == 0 {
		c.Tools.GetLineContent.MaxWindowSize = 50
	}
}

func (c *Config) validate() error {
	switch c.Engine.DriftPolicy {
	case "relocate", "invalidate":
	default:
		return fmt.Errorf("engine.drift_policy: unknown value %q", c.Engine.DriftPolicy)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown value %q", c.Log.Level)
	}
	if c.Engine.UndoDepth < 0 {
		return fmt.Errorf("engine.undo_depth must be positive")
	}
	if c.Tools.HighlightText.MinConfidence < 0 || c.Tools.HighlightText.MinConfidence > 1 {
		return fmt.Errorf("tools.highlight_text.min_confidence must be within [0,1]")
	}
	return nil
}

// EngineEnabled reports whether the feature flag allows the engine to run.
func EngineEnabled() bool {
	switch strings.ToLower(os.Getenv(envFeatureFlag)) {
	case "0", "false", "off":
		return false
	}
	return true
}

// IsToolEnabled returns true if the tool is enabled in config
func (c *Config) IsToolEnabled(toolName string) bool {
	switch toolName {
	case "highlight_text":
		return enabled(c.Tools.HighlightText.Enabled)
	case "get_line_content":
		return enabled(c.Tools.GetLineContent.Enabled)
	case "get_document_stats":
		return enabled(c.Tools.GetDocumentStats.Enabled)
	case "finish_review":
		return enabled(c.Tools.FinishReview.Enabled)
	default:
		return false
	}
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}
