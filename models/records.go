// Package models defines the data records, configuration, and error
// taxonomy shared by every pipeline stage.
package models

import "time"

// ExtractionMethod identifies which extraction strategy produced the text.
type ExtractionMethod string

const (
	MethodReadability ExtractionMethod = "readability"
	MethodMarkdown    ExtractionMethod = "markdown"
	MethodManual      ExtractionMethod = "manual"
)

// FetchResult is the immutable outcome of one successful fetch. It is
// consumed by the extractor and discarded afterwards.
type FetchResult struct {
	URL         string            `json:"url"` // final URL after redirects
	OriginalURL string            `json:"original_url"`
	StatusCode  int               `json:"status_code"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"-"` // decoded to UTF-8
	Elapsed     time.Duration     `json:"-"`
}

// Metadata holds document metadata derived from the page head and, when
// available, the readability article. Missing fields stay empty; they are
// never fabricated.
type Metadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Published   string `json:"published,omitempty" yaml:"published,omitempty"` // RFC 3339
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Canonical   string `json:"canonical,omitempty" yaml:"canonical,omitempty"`
	SiteName    string `json:"site_name,omitempty" yaml:"site_name,omitempty"`

	// Language is an ISO 639-1 code, or "unknown" when detection fails.
	Language           string  `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageConfidence float64 `json:"language_confidence,omitempty" yaml:"language_confidence,omitempty"`
}

// ExtractionResult carries the extracted plain text plus the strategy that
// produced it.
type ExtractionResult struct {
	Text     string           `json:"-"`
	Method   ExtractionMethod `json:"method"`
	Metadata Metadata         `json:"metadata"`
}

// CleanedText is the normalizer output: one string plus cleaning statistics.
type CleanedText struct {
	Content        string `json:"-"`
	OriginalLength int    `json:"original_length"`
	CleanedLength  int    `json:"cleaned_length"`
	WordCount      int    `json:"word_count"`
}

// Chunk is one bounded segment of cleaned text. Index is 0-based and
// contiguous. Overlap is the number of leading characters repeated from the
// tail of the previous chunk, so consumers can deduplicate by trimming that
// many characters from every non-first chunk.
type Chunk struct {
	Index     int    `json:"index" yaml:"index"`
	Text      string `json:"text" yaml:"text"`
	Length    int    `json:"length" yaml:"length"` // characters
	WordCount int    `json:"word_count" yaml:"word_count"`
	IsFirst   bool   `json:"is_first" yaml:"is_first"`
	IsLast    bool   `json:"is_last" yaml:"is_last"`
	Method    string `json:"method" yaml:"method"`
	Overlap   int    `json:"overlap" yaml:"overlap"` // characters shared with previous chunk
}

// Statistics aggregates per-stage observations. Purely observational; it
// never affects control flow.
type Statistics struct {
	Fetch   FetchStats  `json:"fetch" yaml:"fetch"`
	Extract ParseStats  `json:"extract" yaml:"extract"`
	Clean   CleanStats  `json:"clean" yaml:"clean"`
	Chunk   *ChunkStats `json:"chunk,omitempty" yaml:"chunk,omitempty"`
	Timing  TimingStats `json:"timing" yaml:"timing"`
}

type FetchStats struct {
	StatusCode  int     `json:"status_code" yaml:"status_code"`
	ContentType string  `json:"content_type" yaml:"content_type"`
	Seconds     float64 `json:"seconds" yaml:"seconds"`
}

type ParseStats struct {
	Method   ExtractionMethod `json:"method" yaml:"method"`
	Language string           `json:"language,omitempty" yaml:"language,omitempty"`
	Seconds  float64          `json:"seconds" yaml:"seconds"`
}

type CleanStats struct {
	OriginalLength int     `json:"original_length" yaml:"original_length"`
	CleanedLength  int     `json:"cleaned_length" yaml:"cleaned_length"`
	WordCount      int     `json:"word_count" yaml:"word_count"`
	Seconds        float64 `json:"seconds" yaml:"seconds"`
}

type ChunkStats struct {
	Count         int     `json:"count" yaml:"count"`
	Method        string  `json:"method" yaml:"method"`
	Size          int     `json:"size" yaml:"size"`
	Overlap       int     `json:"overlap" yaml:"overlap"`
	AverageLength float64 `json:"average_length" yaml:"average_length"`
	Seconds       float64 `json:"seconds" yaml:"seconds"`
}

type TimingStats struct {
	Fetch   float64 `json:"fetch" yaml:"fetch"`
	Extract float64 `json:"extract" yaml:"extract"`
	Clean   float64 `json:"clean" yaml:"clean"`
	Chunk   float64 `json:"chunk" yaml:"chunk"`
	Total   float64 `json:"total" yaml:"total"`
}

// PipelineResult is the externally visible artifact of one pipeline run.
// Immutable once returned.
type PipelineResult struct {
	URL         string      `json:"url" yaml:"url"` // final URL after redirects
	OriginalURL string      `json:"original_url" yaml:"original_url"`
	Metadata    Metadata    `json:"metadata" yaml:"metadata"`
	Content     string      `json:"content" yaml:"content"`
	RawHTML     string      `json:"raw_html,omitempty" yaml:"raw_html,omitempty"`
	Chunks      []Chunk     `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Stats       *Statistics `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Timestamp   time.Time   `json:"timestamp" yaml:"timestamp"`
}

// RobotsDecision is one cached per-origin robots verdict.
type RobotsDecision struct {
	Origin    string    `json:"origin" yaml:"origin"`
	Allowed   bool      `json:"allowed" yaml:"allowed"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}
