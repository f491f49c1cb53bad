package cleaner

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/models"
)

func permissiveConfig() models.CleanerConfig {
	cfg := models.DefaultConfig().Cleaner
	cfg.MinContentLength = 1
	cfg.MinWordCount = 1
	return cfg
}

func TestCleanTransforms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *models.CleanerConfig)
		in     string
		want   string
	}{
		{
			name: "decodes entities",
			in:   "Caf&eacute; &amp; more text here",
			want: "Café & more text here",
		},
		{
			name: "strips residual tags",
			in:   "<p>Hello</p> beautiful <b>world</b> today",
			want: "Hello beautiful world today",
		},
		{
			name: "normalizes unicode compatibility forms",
			in:   "ﬁnding ｆｕｌｌｗｉｄｔｈ characters",
			want: "finding fullwidth characters",
		},
		{
			name: "removes control characters",
			in:   "control\x00 characters\x07 vanish quietly",
			want: "control characters vanish quietly",
		},
		{
			name: "collapses whitespace runs",
			in:   "spaced   out\t\ttext   with   runs",
			want: "spaced out text with runs",
		},
		{
			name: "collapses newline runs to paragraph breaks",
			in:   "first paragraph here\n\n\n\n\nsecond paragraph here",
			want: "first paragraph here\n\nsecond paragraph here",
		},
		{
			name:   "strips urls when enabled",
			mutate: func(cfg *models.CleanerConfig) { cfg.RemoveURLs = true },
			in:     "read the full report at https://example.com/post published today",
			want:   "read the full report at published today",
		},
		{
			name:   "strips emails when enabled",
			mutate: func(cfg *models.CleanerConfig) { cfg.RemoveEmails = true },
			in:     "contact bob@example.com for details now",
			want:   "contact for details now",
		},
		{
			name:   "lowercases when enabled",
			mutate: func(cfg *models.CleanerConfig) { cfg.Lowercase = true },
			in:     "Mixed CASE Words Stay Readable",
			want:   "mixed case words stay readable",
		},
		{
			name:   "keeps urls by default",
			mutate: nil,
			in:     "read more at https://example.com/post today",
			want:   "read more at https://example.com/post today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := permissiveConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			c := New(cfg, zerolog.Nop())
			got, err := c.Clean(tt.in)
			if err != nil {
				t.Fatalf("Clean(%q): %v", tt.in, err)
			}
			if got.Content != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got.Content, tt.want)
			}
		})
	}
}

func TestCleanStatistics(t *testing.T) {
	c := New(permissiveConfig(), zerolog.Nop())
	in := "<p>five words of tagged text</p>"
	got, err := c.Clean(in)
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalLength != len(in) {
		t.Errorf("original length = %d, want %d", got.OriginalLength, len(in))
	}
	if got.CleanedLength != len(got.Content) {
		t.Errorf("cleaned length = %d, want %d", got.CleanedLength, len(got.Content))
	}
	if got.WordCount != 5 {
		t.Errorf("word count = %d, want 5", got.WordCount)
	}
}

func TestCleanValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *models.CleanerConfig)
		in     string
		reason string
	}{
		{
			name:   "too few words",
			mutate: func(cfg *models.CleanerConfig) { cfg.MinWordCount = 5 },
			in:     "only three words",
			reason: "too few words",
		},
		{
			name:   "too short",
			mutate: func(cfg *models.CleanerConfig) { cfg.MinContentLength = 500; cfg.MinWordCount = 1 },
			in:     "short but perfectly valid sentence right here",
			reason: "content too short",
		},
		{
			name:   "error page boilerplate",
			in:     "Sorry, this page not found. Please check the URL and try again later.",
			reason: "content looks like an error page",
		},
		{
			name:   "repetitive content",
			in:     strings.Repeat("aa bb ", 30),
			reason: "content too repetitive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := permissiveConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			c := New(cfg, zerolog.Nop())
			_, err := c.Clean(tt.in)
			if err == nil {
				t.Fatalf("Clean(%q) succeeded, want CleaningError", tt.in)
			}
			var cerr *models.CleaningError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *CleaningError, got %T: %v", err, err)
			}
			if cerr.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", cerr.Reason, tt.reason)
			}
		})
	}
}

func TestErrorIndicatorInLongContentIsKept(t *testing.T) {
	cfg := permissiveConfig()
	c := New(cfg, zerolog.Nop())
	body := "This article explains how servers respond when a page not found condition occurs. " +
		strings.Repeat("It goes into considerable depth about status codes and handler design. ", 8)
	got, err := c.Clean(body)
	if err != nil {
		t.Fatalf("long content mentioning an error phrase should pass: %v", err)
	}
	if got.WordCount == 0 {
		t.Error("expected non-zero word count")
	}
}
