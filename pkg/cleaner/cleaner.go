// Package cleaner normalizes extracted text into a single clean string.
// The transform order is fixed: each step assumes the output of the one
// before it.
package cleaner

import (
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/pagesift/pagesift/models"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	controlPattern    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	horizontalPattern = regexp.MustCompile(`[ \t\f\v]+`)
	edgeSpacePattern  = regexp.MustCompile(` ?\n ?`)
	newlinesPattern   = regexp.MustCompile(`\n{3,}`)
)

// errorIndicators are boilerplate phrases that mark a short page as an
// error page rather than content.
var errorIndicators = []string{
	"page not found",
	"404 error",
	"access denied",
	"forbidden",
	"server error",
	"500 error",
	"temporarily unavailable",
	"under maintenance",
}

// errorPageScanLimit bounds how much of the text the error-page heuristic
// inspects; indicators past this point are content, not boilerplate.
const errorPageScanLimit = 1000

// Cleaner applies the configured normalization steps. Stateless and safe
// for concurrent use.
type Cleaner struct {
	cfg models.CleanerConfig
	log zerolog.Logger
}

func New(cfg models.CleanerConfig, log zerolog.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, log: log.With().Str("component", "cleaner").Logger()}
}

// Clean runs the normalization pipeline over text. Deterministic; the only
// error path is the final validation against the configured minimums.
func (c *Cleaner) Clean(text string) (*models.CleanedText, error) {
	original := len(text)

	if c.cfg.DecodeEntities {
		text = html.UnescapeString(text)
	}
	if c.cfg.StripTags {
		text = tagPattern.ReplaceAllString(text, " ")
	}
	if c.cfg.NormalizeUnicode {
		text = norm.NFKC.String(text)
	}
	if c.cfg.RemoveControlChars {
		text = controlPattern.ReplaceAllString(text, "")
	}
	if c.cfg.RemoveURLs {
		text = urlPattern.ReplaceAllString(text, " ")
	}
	if c.cfg.RemoveEmails {
		text = emailPattern.ReplaceAllString(text, " ")
	}
	if c.cfg.RemovePhoneNumbers {
		text = phonePattern.ReplaceAllString(text, " ")
	}
	if c.cfg.CollapseWhitespace {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		text = horizontalPattern.ReplaceAllString(text, " ")
		text = edgeSpacePattern.ReplaceAllString(text, "\n")
		text = newlinesPattern.ReplaceAllString(text, "\n\n")
	}
	if c.cfg.Lowercase {
		text = strings.ToLower(text)
	}
	if c.cfg.TrimWhitespace {
		text = strings.TrimSpace(text)
	}

	words := len(strings.Fields(text))
	if err := c.validate(text, words); err != nil {
		return nil, err
	}

	c.log.Debug().
		Int("original_length", original).
		Int("cleaned_length", len(text)).
		Int("words", words).
		Msg("cleaned content")

	return &models.CleanedText{
		Content:        text,
		OriginalLength: original,
		CleanedLength:  len(text),
		WordCount:      words,
	}, nil
}

func (c *Cleaner) validate(text string, words int) error {
	if len(text) < c.cfg.MinContentLength {
		return &models.CleaningError{
			Reason:    "content too short",
			Length:    len(text),
			WordCount: words,
			MinLength: c.cfg.MinContentLength,
			MinWords:  c.cfg.MinWordCount,
		}
	}
	if words < c.cfg.MinWordCount {
		return &models.CleaningError{
			Reason:    "too few words",
			Length:    len(text),
			WordCount: words,
			MinLength: c.cfg.MinContentLength,
			MinWords:  c.cfg.MinWordCount,
		}
	}
	if looksLikeErrorPage(text) {
		return &models.CleaningError{
			Reason:    "content looks like an error page",
			Length:    len(text),
			WordCount: words,
			MinLength: c.cfg.MinContentLength,
			MinWords:  c.cfg.MinWordCount,
		}
	}
	if uniqueRunes(text) < 10 {
		return &models.CleaningError{
			Reason:    "content too repetitive",
			Length:    len(text),
			WordCount: words,
			MinLength: c.cfg.MinContentLength,
			MinWords:  c.cfg.MinWordCount,
		}
	}
	return nil
}

// looksLikeErrorPage flags short pages whose opening text is dominated by
// error boilerplate. Long pages mentioning an indicator phrase are content.
func looksLikeErrorPage(text string) bool {
	if len(text) >= 500 {
		return false
	}
	sample := strings.ToLower(text)
	if len(sample) > errorPageScanLimit {
		sample = sample[:errorPageScanLimit]
	}
	for _, indicator := range errorIndicators {
		if strings.Contains(sample, indicator) {
			return true
		}
	}
	return false
}

func uniqueRunes(text string) int {
	seen := make(map[rune]struct{}, 64)
	for _, r := range text {
		seen[r] = struct{}{}
		if len(seen) >= 10 {
			return len(seen)
		}
	}
	return len(seen)
}
