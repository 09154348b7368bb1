// Package config holds all configuration for promptsmith.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for an optimization run.
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Search    SearchConfig    `json:"search"`
	Corpus    CorpusConfig    `json:"corpus"`
	Artifacts ArtifactsConfig `json:"artifacts"`
}

// LLMConfig holds the OpenAI-compatible API configuration shared by the
// generator and mutator oracles.
type LLMConfig struct {
	URL         string        `json:"url"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"-"`
	TimeoutStr  string        `json:"timeout,omitempty"`
}

// SearchConfig holds the driver parameters.
type SearchConfig struct {
	Generations int `json:"generations"`
	Variants    int `json:"variants"`
	// MaxConcurrentCases bounds per-case oracle fan-out inside one candidate
	// evaluation, to respect generator rate limits.
	MaxConcurrentCases int `json:"max_concurrent_cases"`
}

// CorpusConfig locates the labeled test corpus.
type CorpusConfig struct {
	Dir string `json:"dir"`
}

// ArtifactsConfig locates the per-generation artifact store.
type ArtifactsConfig struct {
	Dir string `json:"dir"`
}

// DefaultConfig returns the default configuration with env var overrides
// applied (PROMPTSMITH_LLM_URL, PROMPTSMITH_LLM_API_KEY, ...).
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			URL:         GetEnv("PROMPTSMITH_LLM_URL", "http://localhost:8000/v1"),
			APIKey:      GetEnv("PROMPTSMITH_LLM_API_KEY", ""),
			Model:       GetEnv("PROMPTSMITH_LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:   GetEnvInt("PROMPTSMITH_LLM_MAX_TOKENS", 4096),
			Temperature: GetEnvFloat("PROMPTSMITH_LLM_TEMPERATURE", 0.7),
			Timeout:     GetEnvDuration("PROMPTSMITH_LLM_TIMEOUT", 120*time.Second),
		},
		Search: SearchConfig{
			Generations:        GetEnvInt("PROMPTSMITH_GENERATIONS", 3),
			Variants:           GetEnvInt("PROMPTSMITH_VARIANTS", 2),
			MaxConcurrentCases: GetEnvInt("PROMPTSMITH_MAX_CONCURRENT_CASES", 4),
		},
		Corpus: CorpusConfig{
			Dir: GetEnv("PROMPTSMITH_CORPUS_DIR", "corpus"),
		},
		Artifacts: ArtifactsConfig{
			Dir: GetEnv("PROMPTSMITH_ARTIFACTS_DIR", "artifacts"),
		},
	}
}

// Load reads the optional JSON config file over the env-derived defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.LLM.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.LLM.TimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("parse llm timeout %q: %w", cfg.LLM.TimeoutStr, err)
		}
		cfg.LLM.Timeout = d
	}

	return cfg, nil
}

// Validate fails fast on parameters that would make the search meaningless.
// Runs before any oracle call.
func (c *Config) Validate() error {
	if c.Search.Generations < 1 {
		return fmt.Errorf("invalid configuration: generations must be >= 1, got %d", c.Search.Generations)
	}
	if c.Search.Variants < 1 {
		return fmt.Errorf("invalid configuration: variants must be >= 1, got %d", c.Search.Variants)
	}
	if c.Search.MaxConcurrentCases < 1 {
		return fmt.Errorf("invalid configuration: max_concurrent_cases must be >= 1, got %d", c.Search.MaxConcurrentCases)
	}
	return nil
}
