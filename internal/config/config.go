// Package config handles configuration loading for RAP HeadLine HQ.
// It supports YAML config files with environment variable overrides and
// validates everything at startup: a bad threshold or malformed weight set is
// fatal before the first request, never during one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Config represents the complete application configuration.
type Config struct {
	Sources []SourceConfig `mapstructure:"sources" yaml:"sources"`
	Fetch   FetchConfig    `mapstructure:"fetch"   yaml:"fetch"`
	Dedup   DedupConfig    `mapstructure:"dedup"   yaml:"dedup"`
	Scoring ScoringConfig  `mapstructure:"scoring" yaml:"scoring"`
	Session SessionConfig  `mapstructure:"session" yaml:"session"`
	LLM     LLMConfig      `mapstructure:"llm"     yaml:"llm"`
	API     APIConfig      `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// SourceConfig describes one configured news source.
type SourceConfig struct {
	ID          string   `mapstructure:"id"          yaml:"id"`          // e.g. "rss", "duckduckgo", "searx"
	Kind        string   `mapstructure:"kind"        yaml:"kind"`        // implementation selector
	Enabled     bool     `mapstructure:"enabled"     yaml:"enabled"`
	Credibility float64  `mapstructure:"credibility" yaml:"credibility"` // static trust weight, [0,1]
	BaseURL     string   `mapstructure:"base_url"    yaml:"base_url"`    // for relative URL resolution / API endpoint
	Feeds       []string `mapstructure:"feeds"       yaml:"feeds"`       // extra RSS feed URLs (rss kind only)
}

// FetchConfig holds fetcher-pool timing and limits.
type FetchConfig struct {
	PerSourceTimeout  time.Duration `mapstructure:"per_source_timeout" yaml:"per_source_timeout"`
	PoolDeadline      time.Duration `mapstructure:"pool_deadline" yaml:"pool_deadline"`
	PipelineDeadline  time.Duration `mapstructure:"pipeline_deadline" yaml:"pipeline_deadline"`
	MaxItemsPerSource int           `mapstructure:"max_items_per_source" yaml:"max_items_per_source"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// DedupConfig holds deduplication tuning knobs.
type DedupConfig struct {
	SimilarityThreshold float64       `mapstructure:"similarity_threshold" yaml:"similarity_threshold"` // (0,1]
	ProximityWindow     time.Duration `mapstructure:"proximity_window"     yaml:"proximity_window"`     // max publish-time gap to merge
	TitleWeight         float64       `mapstructure:"title_weight"         yaml:"title_weight"`
	FingerprintWeight   float64       `mapstructure:"fingerprint_weight"   yaml:"fingerprint_weight"`
}

// ScoringConfig holds impact-score weights. Weights are configuration, not
// hardcoded logic, so they can be tuned without algorithm changes.
type ScoringConfig struct {
	RecencyWeight       float64            `mapstructure:"recency_weight"       yaml:"recency_weight"`
	CredibilityWeight   float64            `mapstructure:"credibility_weight"   yaml:"credibility_weight"`
	CategoryWeight      float64            `mapstructure:"category_weight"      yaml:"category_weight"`
	RelevanceWeight     float64            `mapstructure:"relevance_weight"     yaml:"relevance_weight"`
	CategoryMultipliers map[string]float64 `mapstructure:"category_multipliers" yaml:"category_multipliers"` // salience per category, (0,1]
	DefaultThreshold    float64            `mapstructure:"default_threshold"    yaml:"default_threshold"`    // [1,10]
	MaxBundleItems      int                `mapstructure:"max_bundle_items"     yaml:"max_bundle_items"`     // bundle cap after ranking
}

// SessionConfig holds conversation context settings.
type SessionConfig struct {
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit"` // bounded turn count, FIFO eviction
	DefaultStyle string `mapstructure:"default_style" yaml:"default_style"`
	DefaultRange string `mapstructure:"default_range" yaml:"default_range"` // window preset name
}

// LLMConfig holds generation collaborator configuration.
type LLMConfig struct {
	Primary     string        `mapstructure:"primary"      yaml:"primary"` // "ollama" or "openai"
	OllamaURL   string        `mapstructure:"ollama_url"   yaml:"ollama_url"`
	OpenAIKey   string        `mapstructure:"openai_key"   yaml:"openai_key"`
	Model       string        `mapstructure:"model"        yaml:"model"`
	Temperature float64       `mapstructure:"temperature"  yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"   yaml:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"  yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"  yaml:"retry_delay"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.rapiq/config.yaml (home directory)
//  3. /etc/rapiq/config.yaml (system)
//
// Environment variables override config file values, e.g. RAPIQ_LLM_OPENAI_KEY.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".rapiq"))
	v.AddConfigPath("/etc/rapiq")

	v.SetEnvPrefix("RAPIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; fall back to defaults and env vars.
	}

	return finish(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("RAPIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultSources returns the built-in source set used when the config file
// names none. Credibility ordering: curated financial feeds > general search.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			ID:          "rss",
			Kind:        "rss",
			Enabled:     true,
			Credibility: 0.9,
			BaseURL:     "https://news.google.com",
		},
		{
			ID:          "duckduckgo",
			Kind:        "duckduckgo",
			Enabled:     true,
			Credibility: 0.6,
			BaseURL:     "https://html.duckduckgo.com",
		},
		{
			ID:          "searx",
			Kind:        "searx",
			Enabled:     false, // requires a reachable instance; enable via config
			Credibility: 0.7,
			BaseURL:     "http://localhost:8888",
		},
	}
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Fetch defaults
	v.SetDefault("fetch.per_source_timeout", "15s")
	v.SetDefault("fetch.pool_deadline", "25s")
	v.SetDefault("fetch.pipeline_deadline", "60s")
	v.SetDefault("fetch.max_items_per_source", 15)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	// Dedup defaults (tunable, not load-bearing)
	v.SetDefault("dedup.similarity_threshold", 0.8)
	v.SetDefault("dedup.proximity_window", "48h")
	v.SetDefault("dedup.title_weight", 0.6)
	v.SetDefault("dedup.fingerprint_weight", 0.4)

	// Scoring defaults
	v.SetDefault("scoring.recency_weight", 0.35)
	v.SetDefault("scoring.credibility_weight", 0.25)
	v.SetDefault("scoring.category_weight", 0.2)
	v.SetDefault("scoring.relevance_weight", 0.2)
	v.SetDefault("scoring.category_multipliers", map[string]float64{
		"M&A":       1.0,
		"Legal":     0.95,
		"Financial": 0.85,
		"Product":   0.6,
		"Other":     0.4,
	})
	v.SetDefault("scoring.default_threshold", 5.0)
	v.SetDefault("scoring.max_bundle_items", 10)

	// Session defaults
	v.SetDefault("session.history_limit", 10)
	v.SetDefault("session.default_style", "professional")
	v.SetDefault("session.default_range", "24h")

	// LLM defaults
	v.SetDefault("llm.primary", "ollama")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "qwen2.5:7b")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", "1s")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("RAPIQ_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
}

// Validate checks the configuration for values that would corrupt scoring or
// deduplication at request time. Any error here is terminal.
func (c *Config) Validate() error {
	enabled := 0
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.ID == "" {
			return fmt.Errorf("config: source with empty id")
		}
		if seen[s.ID] {
			return fmt.Errorf("config: duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Credibility < 0 || s.Credibility > 1 {
			return fmt.Errorf("config: source %q credibility %f outside [0,1]", s.ID, s.Credibility)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("config: no enabled sources")
	}

	if c.Fetch.PerSourceTimeout <= 0 || c.Fetch.PoolDeadline <= 0 || c.Fetch.PipelineDeadline <= 0 {
		return fmt.Errorf("config: fetch timeouts must be positive")
	}
	if c.Fetch.MaxItemsPerSource <= 0 {
		return fmt.Errorf("config: max_items_per_source must be positive")
	}

	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity threshold %f outside (0,1]", c.Dedup.SimilarityThreshold)
	}
	if c.Dedup.ProximityWindow <= 0 {
		return fmt.Errorf("config: dedup proximity window must be positive")
	}
	if c.Dedup.TitleWeight < 0 || c.Dedup.FingerprintWeight < 0 ||
		c.Dedup.TitleWeight+c.Dedup.FingerprintWeight <= 0 {
		return fmt.Errorf("config: dedup similarity weights malformed")
	}

	sc := c.Scoring
	if sc.RecencyWeight < 0 || sc.CredibilityWeight < 0 || sc.CategoryWeight < 0 || sc.RelevanceWeight < 0 {
		return fmt.Errorf("config: scoring weights must be non-negative")
	}
	if sc.RecencyWeight+sc.CredibilityWeight+sc.CategoryWeight+sc.RelevanceWeight <= 0 {
		return fmt.Errorf("config: scoring weights sum to zero")
	}
	for cat, m := range sc.CategoryMultipliers {
		if m <= 0 || m > 1 {
			return fmt.Errorf("config: category multiplier for %q is %f, want (0,1]", cat, m)
		}
	}
	if sc.DefaultThreshold < 1 || sc.DefaultThreshold > 10 {
		return fmt.Errorf("config: default impact threshold %f outside [1,10]", sc.DefaultThreshold)
	}
	if sc.MaxBundleItems < 1 {
		return fmt.Errorf("config: max_bundle_items must be at least 1")
	}

	if c.Session.HistoryLimit < 1 {
		return fmt.Errorf("config: session history limit must be at least 1")
	}
	if _, err := utils.ParseWindow(c.Session.DefaultRange); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: llm max_retries must be non-negative")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("config: api port %d out of range", c.API.Port)
	}

	return nil
}

// SourceByID returns the configuration for a source, if present.
func (c *Config) SourceByID(id string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// EnabledSources returns only the sources marked enabled.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
