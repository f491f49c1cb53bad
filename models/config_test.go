package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestPresetByName(t *testing.T) {
	tests := []struct {
		name    string
		preset  string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:   "default",
			preset: "default",
			check: func(t *testing.T, cfg Config) {
				if cfg.Fetcher.MaxRetries != 3 {
					t.Errorf("max retries = %d, want 3", cfg.Fetcher.MaxRetries)
				}
				if !cfg.Fetcher.RespectRobots {
					t.Error("default preset should respect robots")
				}
			},
		},
		{
			name:   "fast drops robots and metadata",
			preset: "fast",
			check: func(t *testing.T, cfg Config) {
				if cfg.Fetcher.RespectRobots {
					t.Error("fast preset should skip robots")
				}
				if cfg.Fetcher.MaxRetries != 1 {
					t.Errorf("max retries = %d, want 1", cfg.Fetcher.MaxRetries)
				}
				if len(cfg.Extractor.Methods) != 1 {
					t.Errorf("methods = %v, want single strategy", cfg.Extractor.Methods)
				}
				if cfg.Extractor.ExtractMetadata {
					t.Error("fast preset should skip metadata")
				}
			},
		},
		{
			name:   "thorough retries harder",
			preset: "thorough",
			check: func(t *testing.T, cfg Config) {
				if cfg.Fetcher.MaxRetries != 5 {
					t.Errorf("max retries = %d, want 5", cfg.Fetcher.MaxRetries)
				}
				if cfg.Fetcher.ReadTimeout.Std() != 60*time.Second {
					t.Errorf("read timeout = %s, want 60s", cfg.Fetcher.ReadTimeout)
				}
			},
		},
		{
			name:   "llm uses token chunking",
			preset: "llm",
			check: func(t *testing.T, cfg Config) {
				if cfg.Chunker.Method != "token" {
					t.Errorf("chunk method = %q, want token", cfg.Chunker.Method)
				}
				if !cfg.Cleaner.RemoveURLs {
					t.Error("llm preset should strip URLs")
				}
			},
		},
		{
			name:    "unknown preset",
			preset:  "turbo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := PresetByName(tt.preset)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("PresetByName(%q): %v", tt.preset, err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("preset %q should validate: %v", tt.preset, err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{
			name:   "overlap equals size",
			mutate: func(cfg *Config) { cfg.Chunker.Size = 100; cfg.Chunker.Overlap = 100 },
			field:  "chunker.overlap",
		},
		{
			name:   "negative overlap",
			mutate: func(cfg *Config) { cfg.Chunker.Overlap = -1 },
			field:  "chunker.overlap",
		},
		{
			name:   "zero chunk size",
			mutate: func(cfg *Config) { cfg.Chunker.Size = 0 },
			field:  "chunker.size",
		},
		{
			name:   "unknown chunk method",
			mutate: func(cfg *Config) { cfg.Chunker.Method = "semantic" },
			field:  "chunker.method",
		},
		{
			name:   "unknown extraction method",
			mutate: func(cfg *Config) { cfg.Extractor.Methods = []string{"trafilatura"} },
			field:  "extractor.methods",
		},
		{
			name:   "bad robots policy",
			mutate: func(cfg *Config) { cfg.Fetcher.RobotsOnError = "maybe" },
			field:  "fetcher.robots_on_error",
		},
		{
			name:   "zero read timeout",
			mutate: func(cfg *Config) { cfg.Fetcher.ReadTimeout = 0 },
			field:  "fetcher.read_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
fetcher:
  max_retries: 7
  read_timeout: 45s
  rate_limit_delay: 500ms
chunker:
  method: sentence
  size: 800
  overlap: 80
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fetcher.MaxRetries != 7 {
		t.Errorf("max retries = %d, want 7", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.ReadTimeout.Std() != 45*time.Second {
		t.Errorf("read timeout = %s, want 45s", cfg.Fetcher.ReadTimeout)
	}
	if cfg.Fetcher.RateLimitDelay.Std() != 500*time.Millisecond {
		t.Errorf("rate limit delay = %s, want 500ms", cfg.Fetcher.RateLimitDelay)
	}
	if cfg.Chunker.Method != "sentence" {
		t.Errorf("chunk method = %q, want sentence", cfg.Chunker.Method)
	}
	// Unset fields keep their defaults.
	if !cfg.Fetcher.RespectRobots {
		t.Error("respect_robots default should survive partial config")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("chunker:\n  size: 100\n  overlap: 200\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for overlap > size")
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{"suffixed string", `"1m30s"`, 90 * time.Second},
		{"bare seconds", `10`, 10 * time.Second},
		{"fractional seconds", `0.5`, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			if err := yaml.Unmarshal([]byte(tt.in), &d); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if d.Std() != tt.want {
				t.Errorf("got %s, want %s", d, tt.want)
			}
			out, err := yaml.Marshal(d)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var back Duration
			if err := yaml.Unmarshal(out, &back); err != nil {
				t.Fatalf("re-unmarshal %q: %v", out, err)
			}
			if back != d {
				t.Errorf("round trip changed value: %s != %s", back, d)
			}
		})
	}
}
