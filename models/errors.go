package models

import (
	"fmt"
	"time"
)

// Stage identifies a pipeline stage for error attribution.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
	StageClean    Stage = "clean"
	StageChunk    Stage = "chunk"
)

// FetchErrorKind classifies fetch failures for retry decisions.
type FetchErrorKind string

const (
	FetchTimeout            FetchErrorKind = "timeout"
	FetchNetwork            FetchErrorKind = "network"
	FetchHTTPStatus         FetchErrorKind = "http_status"
	FetchSSL                FetchErrorKind = "ssl"
	FetchUnsupportedContent FetchErrorKind = "unsupported_content_type"
)

// ValidationError reports malformed input rejected before any network I/O.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// RobotsDisallowedError is a policy refusal, never retried and never merged
// with ordinary fetch failures.
type RobotsDisallowedError struct {
	URL string
}

func (e *RobotsDisallowedError) Error() string {
	return fmt.Sprintf("robots.txt disallows fetching %s", e.URL)
}

// RateLimitError is raised when the remote rejects the request outright
// (429 with a Retry-After beyond the configured ceiling).
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited fetching %s (retry after %s)", e.URL, e.RetryAfter)
}

// FetchError is a classified fetch failure carrying the last underlying
// error and the number of attempts made.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s failed (%s", e.URL, e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" %d", e.StatusCode)
	}
	msg += ")"
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means every extraction strategy failed.
type ParseError struct {
	URL   string
	Tried []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("all extraction strategies failed for %s (tried %v)", e.URL, e.Tried)
}

// CleaningError reports content that fell below the configured minimums
// after cleaning, or that looks like an error page.
type CleaningError struct {
	Reason    string
	Length    int
	WordCount int
	MinLength int
	MinWords  int
}

func (e *CleaningError) Error() string {
	return fmt.Sprintf("cleaned content rejected: %s (length=%d min=%d, words=%d min=%d)",
		e.Reason, e.Length, e.MinLength, e.WordCount, e.MinWords)
}

// ChunkingError reports an invalid chunker configuration or input.
type ChunkingError struct {
	Reason string
}

func (e *ChunkingError) Error() string {
	return "chunking failed: " + e.Reason
}

// StageError wraps a stage failure with stage identity so callers can tell
// which stage short-circuited the pipeline.
type StageError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
