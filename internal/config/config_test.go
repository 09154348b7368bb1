package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.URL == "" {
		t.Error("LLM URL should not be empty")
	}
	if cfg.LLM.Model == "" {
		t.Error("LLM Model should not be empty")
	}
	if cfg.LLM.MaxTokens <= 0 {
		t.Error("LLM MaxTokens should be positive")
	}
	if cfg.LLM.Timeout <= 0 {
		t.Error("LLM Timeout should be positive")
	}

	if cfg.Search.Generations <= 0 {
		t.Error("Search Generations should be positive")
	}
	if cfg.Search.Variants <= 0 {
		t.Error("Search Variants should be positive")
	}
	if cfg.Search.MaxConcurrentCases <= 0 {
		t.Error("Search MaxConcurrentCases should be positive")
	}

	if cfg.Corpus.Dir == "" {
		t.Error("Corpus Dir should not be empty")
	}
	if cfg.Artifacts.Dir == "" {
		t.Error("Artifacts Dir should not be empty")
	}
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PROMPTSMITH_LLM_MODEL", "test-model")
	t.Setenv("PROMPTSMITH_GENERATIONS", "7")
	t.Setenv("PROMPTSMITH_LLM_TEMPERATURE", "0.2")
	t.Setenv("PROMPTSMITH_LLM_TIMEOUT", "45s")

	cfg := DefaultConfig()
	if cfg.LLM.Model != "test-model" {
		t.Errorf("expected 'test-model', got '%s'", cfg.LLM.Model)
	}
	if cfg.Search.Generations != 7 {
		t.Errorf("expected 7 generations, got %d", cfg.Search.Generations)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %s", cfg.LLM.Timeout)
	}
}

func TestDefaultConfig_InvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("PROMPTSMITH_GENERATIONS", "not_a_number")
	t.Setenv("PROMPTSMITH_LLM_TEMPERATURE", "not_a_float")

	cfg := DefaultConfig()
	if cfg.Search.Generations != 3 {
		t.Errorf("expected default 3 generations, got %d", cfg.Search.Generations)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %f", cfg.LLM.Temperature)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Search.Generations != 3 {
			t.Errorf("expected default generations, got %d", cfg.Search.Generations)
		}
	})

	t.Run("nonexistent file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg == nil {
			t.Fatal("expected config")
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		data := `{"search": {"generations": 5, "variants": 4, "max_concurrent_cases": 2}, "llm": {"model": "from-file", "timeout": "30s"}}`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Search.Generations != 5 {
			t.Errorf("expected 5 generations, got %d", cfg.Search.Generations)
		}
		if cfg.Search.Variants != 4 {
			t.Errorf("expected 4 variants, got %d", cfg.Search.Variants)
		}
		if cfg.LLM.Model != "from-file" {
			t.Errorf("expected model 'from-file', got '%s'", cfg.LLM.Model)
		}
		if cfg.LLM.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %s", cfg.LLM.Timeout)
		}
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})

	t.Run("bad timeout string is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(`{"llm": {"timeout": "soon"}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for bad timeout string")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(cfg *Config) {}, ""},
		{"zero generations", func(cfg *Config) { cfg.Search.Generations = 0 }, "generations"},
		{"negative generations", func(cfg *Config) { cfg.Search.Generations = -1 }, "generations"},
		{"zero variants", func(cfg *Config) { cfg.Search.Variants = 0 }, "variants"},
		{"zero concurrency", func(cfg *Config) { cfg.Search.MaxConcurrentCases = 0 }, "max_concurrent_cases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
