// Package acconfig loads the engine's tunables from layered sources:
// built-in defaults, an optional YAML file, then environment variable
// overrides, in that order.
package acconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"acsearch/pkg/acsearch/model"
)

// Config holds every tunable named in the configuration defaults table.
type Config struct {
	K uint `yaml:"k"`

	TopK uint `yaml:"top_k"`

	TextUnit    model.TextUnit `yaml:"-"`
	TextUnitRaw string         `yaml:"text_unit"`

	WindowSize uint `yaml:"window_size"`
	WindowStep uint `yaml:"window_step"`

	SearchMode    model.SearchMode `yaml:"-"`
	SearchModeRaw string           `yaml:"search_mode"`

	MaxCandidates       int `yaml:"max_candidates"`
	MaxPrefixTerms      int `yaml:"max_prefix_terms"`
	MaxPrefixCandidates int `yaml:"max_prefix_candidates"`
}

// Defaults returns the configuration defaults table of §6.
func Defaults() Config {
	return Config{
		K:                   3,
		TopK:                5,
		TextUnit:            model.UnitLine,
		TextUnitRaw:         "line",
		WindowSize:          3,
		WindowStep:          1,
		SearchMode:          model.ModeSubstring,
		SearchModeRaw:       "substring",
		MaxCandidates:       15000,
		MaxPrefixTerms:      5000,
		MaxPrefixCandidates: 20000,
	}
}

// Load builds a Config starting from Defaults(), overlaying an
// optional YAML file at yamlPath (ignored if absent), then overlaying
// any recognized ACSEARCH_* environment variables.
func Load(yamlPath string) (Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("acconfig: parsing %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("acconfig: reading %s: %w", yamlPath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveEnums(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACSEARCH_K"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.K = uint(n)
		}
	}
	if v := os.Getenv("ACSEARCH_TOP_K"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.TopK = uint(n)
		}
	}
	if v := os.Getenv("ACSEARCH_TEXT_UNIT"); v != "" {
		cfg.TextUnitRaw = v
	}
	if v := os.Getenv("ACSEARCH_WINDOW_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.WindowSize = uint(n)
		}
	}
	if v := os.Getenv("ACSEARCH_WINDOW_STEP"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.WindowStep = uint(n)
		}
	}
	if v := os.Getenv("ACSEARCH_SEARCH_MODE"); v != "" {
		cfg.SearchModeRaw = v
	}
	if v := os.Getenv("ACSEARCH_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCandidates = n
		}
	}
	if v := os.Getenv("ACSEARCH_MAX_PREFIX_TERMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPrefixTerms = n
		}
	}
	if v := os.Getenv("ACSEARCH_MAX_PREFIX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPrefixCandidates = n
		}
	}
}

func resolveEnums(cfg *Config) error {
	switch strings.ToLower(cfg.TextUnitRaw) {
	case "", "line":
		cfg.TextUnit = model.UnitLine
	case "paragraph":
		cfg.TextUnit = model.UnitParagraph
	case "window":
		cfg.TextUnit = model.UnitWindow
	default:
		return fmt.Errorf("acconfig: unknown text_unit %q", cfg.TextUnitRaw)
	}

	switch strings.ToLower(cfg.SearchModeRaw) {
	case "", "substring":
		cfg.SearchMode = model.ModeSubstring
	case "prefix":
		cfg.SearchMode = model.ModePrefix
	default:
		return fmt.Errorf("acconfig: unknown search_mode %q", cfg.SearchModeRaw)
	}
	return nil
}
