// Package extractor turns fetched HTML into plain text plus document
// metadata. Extraction strategies are tried in configured order; the first
// one producing enough content wins.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/models"
)

// strategy is one stateless extraction algorithm. A failure or a panic
// inside fn means "no result", never a fatal error.
type strategy struct {
	name models.ExtractionMethod
	fn   func(body []byte, pageURL *url.URL) (string, error)
}

type Extractor struct {
	cfg        models.ExtractorConfig
	log        zerolog.Logger
	strategies []strategy
}

func New(cfg models.ExtractorConfig, log zerolog.Logger) *Extractor {
	e := &Extractor{
		cfg: cfg,
		log: log.With().Str("component", "extractor").Logger(),
	}
	for _, name := range cfg.Methods {
		switch models.ExtractionMethod(name) {
		case models.MethodReadability:
			e.strategies = append(e.strategies, strategy{models.MethodReadability, extractReadability})
		case models.MethodMarkdown:
			e.strategies = append(e.strategies, strategy{models.MethodMarkdown, extractMarkdown})
		case models.MethodManual:
			e.strategies = append(e.strategies, strategy{models.MethodManual, extractManual})
		}
	}
	return e
}

// Extract runs the strategy chain over a fetched page. Metadata extraction
// is independent of which strategy produced the text.
func (e *Extractor) Extract(res *models.FetchResult) (*models.ExtractionResult, error) {
	pageURL, err := url.Parse(res.URL)
	if err != nil {
		pageURL = &url.URL{}
	}

	var (
		text   string
		method models.ExtractionMethod
		tried  []string
	)
	for _, s := range e.strategies {
		tried = append(tried, string(s.name))
		candidate, err := runStrategy(s, res.Body, pageURL)
		if err != nil {
			e.log.Debug().Str("url", res.URL).Str("strategy", string(s.name)).Err(err).Msg("strategy failed")
			continue
		}
		candidate = strings.TrimSpace(candidate)
		if len(candidate) < e.cfg.MinContentLength {
			e.log.Debug().
				Str("url", res.URL).
				Str("strategy", string(s.name)).
				Int("length", len(candidate)).
				Msg("strategy produced too little content")
			continue
		}
		text = candidate
		method = s.name
		break
	}
	if method == "" {
		return nil, &models.ParseError{URL: res.URL, Tried: tried}
	}

	result := &models.ExtractionResult{Text: text, Method: method}
	if e.cfg.ExtractMetadata {
		result.Metadata = extractMetadata(res.Body, pageURL)
	}
	if e.cfg.DetectLanguage {
		lang, conf := detectLanguage(text)
		result.Metadata.Language = lang
		result.Metadata.LanguageConfidence = conf
	}

	e.log.Debug().
		Str("url", res.URL).
		Str("method", string(method)).
		Int("length", len(text)).
		Msg("extracted content")
	return result, nil
}

// runStrategy converts panics inside a strategy into an ordinary failure so
// one misbehaving parser never takes down the chain.
func runStrategy(s strategy, body []byte, pageURL *url.URL) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.name, r)
		}
	}()
	return s.fn(body, pageURL)
}
