package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RobotsPolicy controls what happens when robots.txt cannot be fetched.
// This changes crawl-safety semantics, so it is an explicit flag rather
// than an implicit fallback.
type RobotsPolicy string

const (
	RobotsAllowOnError RobotsPolicy = "allow"
	RobotsDenyOnError  RobotsPolicy = "deny"
)

// FetcherConfig groups the fetch-stage options.
type FetcherConfig struct {
	ConnectTimeout Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout    Duration `yaml:"read_timeout" json:"read_timeout"`

	MaxRetries    int      `yaml:"max_retries" json:"max_retries"`
	BackoffBase   Duration `yaml:"backoff_base" json:"backoff_base"`
	BackoffMax    Duration `yaml:"backoff_max" json:"backoff_max"`
	BackoffJitter bool     `yaml:"backoff_jitter" json:"backoff_jitter"`

	// RetryAfterMax caps how long a 429 Retry-After header may ask us to
	// wait before the request is rejected with a RateLimitError.
	RetryAfterMax Duration `yaml:"retry_after_max" json:"retry_after_max"`

	// UserAgent pins a single user agent; when empty and RotateUserAgent is
	// set, a built-in browser pool is rotated per attempt.
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
	RotateUserAgent bool   `yaml:"rotate_user_agent" json:"rotate_user_agent"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`

	RespectRobots  bool         `yaml:"respect_robots" json:"respect_robots"`
	RobotsOnError  RobotsPolicy `yaml:"robots_on_error" json:"robots_on_error"`
	RobotsCacheTTL Duration     `yaml:"robots_cache_ttl" json:"robots_cache_ttl"`

	// RateLimitDelay is the minimum spacing between requests to one domain.
	// Zero disables internal throttling.
	RateLimitDelay Duration `yaml:"rate_limit_delay" json:"rate_limit_delay"`

	MaxRedirects        int      `yaml:"max_redirects" json:"max_redirects"`
	AllowedContentTypes []string `yaml:"allowed_content_types" json:"allowed_content_types"`
}

// ExtractorConfig groups the extraction-stage options.
type ExtractorConfig struct {
	// Methods is the strategy order; the first strategy to clear
	// MinContentLength wins.
	Methods          []string `yaml:"methods" json:"methods"`
	ExtractMetadata  bool     `yaml:"extract_metadata" json:"extract_metadata"`
	DetectLanguage   bool     `yaml:"detect_language" json:"detect_language"`
	MinContentLength int      `yaml:"min_content_length" json:"min_content_length"`
}

// CleanerConfig groups the cleaning-stage toggles. Transform order is fixed;
// these only switch individual steps on and off.
type CleanerConfig struct {
	DecodeEntities     bool `yaml:"decode_entities" json:"decode_entities"`
	StripTags          bool `yaml:"strip_tags" json:"strip_tags"`
	NormalizeUnicode   bool `yaml:"normalize_unicode" json:"normalize_unicode"`
	RemoveControlChars bool `yaml:"remove_control_chars" json:"remove_control_chars"`
	RemoveURLs         bool `yaml:"remove_urls" json:"remove_urls"`
	RemoveEmails       bool `yaml:"remove_emails" json:"remove_emails"`
	RemovePhoneNumbers bool `yaml:"remove_phone_numbers" json:"remove_phone_numbers"`
	CollapseWhitespace bool `yaml:"collapse_whitespace" json:"collapse_whitespace"`
	Lowercase          bool `yaml:"lowercase" json:"lowercase"`
	TrimWhitespace     bool `yaml:"trim_whitespace" json:"trim_whitespace"`

	MinContentLength int `yaml:"min_content_length" json:"min_content_length"`
	MinWordCount     int `yaml:"min_word_count" json:"min_word_count"`
}

// ChunkerConfig groups the chunking-stage options. Size and Overlap are
// measured in the unit of the selected method (characters, words or tokens).
type ChunkerConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Method  string `yaml:"method" json:"method"`
	Size    int    `yaml:"size" json:"size"`
	Overlap int    `yaml:"overlap" json:"overlap"`

	// MinChunkLength is the floor (in characters) below which a trailing
	// fragment is merged into the previous chunk instead of emitted.
	MinChunkLength int `yaml:"min_chunk_length" json:"min_chunk_length"`

	// TokenEncoding names the tiktoken encoding for the token method.
	TokenEncoding string `yaml:"token_encoding" json:"token_encoding"`
}

// Config is the full stage-grouped pipeline configuration. Presets are
// value-level sugar over this struct, not separate code paths.
type Config struct {
	Fetcher   FetcherConfig   `yaml:"fetcher" json:"fetcher"`
	Extractor ExtractorConfig `yaml:"extractor" json:"extractor"`
	Cleaner   CleanerConfig   `yaml:"cleaner" json:"cleaner"`
	Chunker   ChunkerConfig   `yaml:"chunker" json:"chunker"`

	LogLevel          string `yaml:"log_level" json:"log_level"`
	IncludeRawHTML    bool   `yaml:"include_raw_html" json:"include_raw_html"`
	IncludeStatistics bool   `yaml:"include_statistics" json:"include_statistics"`
}

// ChunkMethods lists the valid chunking strategies.
var ChunkMethods = []string{"character", "word", "sentence", "paragraph", "token"}

// ExtractionMethods lists the valid extraction strategies in default order.
var ExtractionMethods = []string{
	string(MethodReadability),
	string(MethodMarkdown),
	string(MethodManual),
}

// DefaultConfig returns the baseline configuration every preset starts from.
func DefaultConfig() Config {
	return Config{
		Fetcher: FetcherConfig{
			ConnectTimeout:  Duration(10 * time.Second),
			ReadTimeout:     Duration(30 * time.Second),
			MaxRetries:      3,
			BackoffBase:     Duration(time.Second),
			BackoffMax:      Duration(30 * time.Second),
			BackoffJitter:   true,
			RetryAfterMax:   Duration(2 * time.Minute),
			RotateUserAgent: true,
			RespectRobots:   true,
			RobotsOnError:   RobotsAllowOnError,
			RobotsCacheTTL:  Duration(time.Hour),
			MaxRedirects:    5,
			AllowedContentTypes: []string{
				"text/html",
				"application/xhtml+xml",
				"text/plain",
			},
		},
		Extractor: ExtractorConfig{
			Methods:          append([]string(nil), ExtractionMethods...),
			ExtractMetadata:  true,
			DetectLanguage:   true,
			MinContentLength: 50,
		},
		Cleaner: CleanerConfig{
			DecodeEntities:     true,
			StripTags:          true,
			NormalizeUnicode:   true,
			RemoveControlChars: true,
			CollapseWhitespace: true,
			TrimWhitespace:     true,
			MinContentLength:   50,
			MinWordCount:       10,
		},
		Chunker: ChunkerConfig{
			Enabled:        true,
			Method:         "paragraph",
			Size:           1000,
			Overlap:        100,
			MinChunkLength: 10,
			TokenEncoding:  "cl100k_base",
		},
		LogLevel:          "info",
		IncludeStatistics: true,
	}
}

// FastConfig trades coverage for speed: one retry, one extraction strategy,
// no robots lookup, no Unicode normalization.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.Fetcher.MaxRetries = 1
	cfg.Fetcher.RespectRobots = false
	cfg.Extractor.Methods = []string{string(MethodReadability)}
	cfg.Extractor.ExtractMetadata = false
	cfg.Extractor.DetectLanguage = false
	cfg.Cleaner.NormalizeUnicode = false
	cfg.IncludeStatistics = false
	return cfg
}

// ThoroughConfig retries harder and waits longer.
func ThoroughConfig() Config {
	cfg := DefaultConfig()
	cfg.Fetcher.MaxRetries = 5
	cfg.Fetcher.ReadTimeout = Duration(60 * time.Second)
	return cfg
}

// ArticlesConfig tunes the pipeline for article-like pages.
func ArticlesConfig() Config {
	cfg := DefaultConfig()
	cfg.Extractor.Methods = []string{string(MethodReadability)}
	cfg.Chunker.Method = "paragraph"
	return cfg
}

// LLMConfig tunes the pipeline for downstream language-model consumption:
// token-aware chunking with sentence-preserving cuts, URLs stripped.
func LLMConfig(maxTokens int) Config {
	cfg := DefaultConfig()
	if maxTokens <= 0 {
		maxTokens = 500
	}
	cfg.Cleaner.RemoveURLs = true
	cfg.Chunker.Method = "token"
	cfg.Chunker.Size = maxTokens
	cfg.Chunker.Overlap = maxTokens / 10
	return cfg
}

// PresetByName resolves a named preset.
func PresetByName(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "fast":
		return FastConfig(), nil
	case "thorough":
		return ThoroughConfig(), nil
	case "articles":
		return ArticlesConfig(), nil
	case "llm":
		return LLMConfig(0), nil
	}
	return Config{}, fmt.Errorf("unknown preset %q", name)
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects invalid configurations before any I/O happens.
func (c *Config) Validate() error {
	if c.Fetcher.ConnectTimeout <= 0 {
		return &ValidationError{Field: "fetcher.connect_timeout", Value: c.Fetcher.ConnectTimeout.String(), Reason: "must be positive"}
	}
	if c.Fetcher.ReadTimeout <= 0 {
		return &ValidationError{Field: "fetcher.read_timeout", Value: c.Fetcher.ReadTimeout.String(), Reason: "must be positive"}
	}
	if c.Fetcher.MaxRetries < 0 {
		return &ValidationError{Field: "fetcher.max_retries", Value: fmt.Sprint(c.Fetcher.MaxRetries), Reason: "cannot be negative"}
	}
	switch c.Fetcher.RobotsOnError {
	case RobotsAllowOnError, RobotsDenyOnError, "":
	default:
		return &ValidationError{Field: "fetcher.robots_on_error", Value: string(c.Fetcher.RobotsOnError), Reason: "must be allow or deny"}
	}
	for _, m := range c.Extractor.Methods {
		if !contains(ExtractionMethods, m) {
			return &ValidationError{Field: "extractor.methods", Value: m, Reason: "unknown extraction method"}
		}
	}
	if c.Chunker.Size <= 0 {
		return &ValidationError{Field: "chunker.size", Value: fmt.Sprint(c.Chunker.Size), Reason: "must be positive"}
	}
	if c.Chunker.Overlap < 0 {
		return &ValidationError{Field: "chunker.overlap", Value: fmt.Sprint(c.Chunker.Overlap), Reason: "cannot be negative"}
	}
	if c.Chunker.Overlap >= c.Chunker.Size {
		return &ValidationError{Field: "chunker.overlap", Value: fmt.Sprint(c.Chunker.Overlap), Reason: "must be less than chunker.size"}
	}
	if !contains(ChunkMethods, c.Chunker.Method) {
		return &ValidationError{Field: "chunker.method", Value: c.Chunker.Method, Reason: "unknown chunking method"}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
