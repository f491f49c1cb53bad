// Package fetcher retrieves web pages with retry, per-domain rate limiting
// and robots.txt compliance.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/pagesift/pagesift/models"
)

const maxBodySize = 10 << 20

// Fetcher owns all per-domain crawl state: the HTTP client, rate limiter
// and robots cache. Independent Fetcher instances never interfere, so
// multiple pipelines can run side by side.
type Fetcher struct {
	cfg     models.FetcherConfig
	client  *http.Client
	limiter *rateLimiter
	robots  *RobotsGate
	agents  *agentPool
	retry   RetryPolicy
	log     zerolog.Logger
}

func New(cfg models.FetcherConfig, log zerolog.Logger) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout.Std(),
		}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		MaxIdleConnsPerHost: 4,
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.ReadTimeout.Std(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	agents := newAgentPool(cfg.UserAgent, cfg.RotateUserAgent)
	f := &Fetcher{
		cfg:     cfg,
		client:  client,
		limiter: newRateLimiter(cfg.RateLimitDelay.Std()),
		agents:  agents,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Base:       cfg.BackoffBase.Std(),
			Max:        cfg.BackoffMax.Std(),
			Jitter:     cfg.BackoffJitter,
		},
		log: log.With().Str("component", "fetcher").Logger(),
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsGate(client, agents, cfg.RobotsOnError, cfg.RobotsCacheTTL.Std(), log)
	}
	return f
}

// RobotsDecisions exposes the cached robots verdicts for persistence.
// Empty when robots compliance is disabled.
func (f *Fetcher) RobotsDecisions() []models.RobotsDecision {
	if f.robots == nil {
		return nil
	}
	return f.robots.Decisions()
}

// Fetch retrieves one page. The URL is normalized and policy-checked before
// any request is issued; transient failures are retried with exponential
// backoff up to the configured cap.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := CheckScrapable(normalized); err != nil {
		return nil, err
	}
	target, err := url.Parse(normalized)
	if err != nil {
		return nil, &models.ValidationError{Field: "url", Value: normalized, Reason: "unparseable"}
	}

	if f.robots != nil {
		if err := f.robots.Allowed(ctx, target); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := f.limiter.wait(ctx, target.Host); err != nil {
			lastErr = err
			break
		}
		attempts++

		result, retryIn, err := f.attempt(ctx, normalized, target, start)
		if err == nil {
			f.log.Debug().
				Str("url", normalized).
				Int("status", result.StatusCode).
				Int("attempt", attempts).
				Msg("fetched")
			return result, nil
		}
		lastErr = err

		retryable, delay := f.retryDecision(err, attempt, retryIn)
		if !retryable || attempt == f.cfg.MaxRetries {
			break
		}
		f.log.Debug().
			Str("url", normalized).
			Int("attempt", attempts).
			Dur("delay", delay).
			Err(err).
			Msg("retrying fetch")
		if err := sleepCtx(ctx, delay); err != nil {
			break
		}
	}

	if ferr, ok := lastErr.(*models.FetchError); ok {
		ferr.Attempts = attempts
		return nil, ferr
	}
	if rerr, ok := lastErr.(*models.RateLimitError); ok {
		return nil, rerr
	}
	return nil, &models.FetchError{
		URL:      normalized,
		Kind:     models.FetchNetwork,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// attempt issues one request. retryIn carries a server-mandated wait (from
// Retry-After) that overrides the backoff schedule when longer.
func (f *Fetcher) attempt(ctx context.Context, normalized string, target *url.URL, start time.Time) (result *models.FetchResult, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, 0, &models.FetchError{URL: normalized, Kind: models.FetchNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.agents.next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		kind, _ := classifyTransportError(err, 0)
		return nil, 0, &models.FetchError{URL: normalized, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if max := f.cfg.RetryAfterMax.Std(); max > 0 && wait > max {
			return nil, 0, &models.RateLimitError{URL: normalized, RetryAfter: wait}
		}
		return nil, wait, &models.FetchError{URL: normalized, Kind: models.FetchHTTPStatus, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, &models.FetchError{URL: normalized, Kind: models.FetchHTTPStatus, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !f.contentTypeAllowed(contentType) {
		return nil, 0, &models.FetchError{
			URL:  normalized,
			Kind: models.FetchUnsupportedContent,
			Err:  fmt.Errorf("content type %q not allowed", contentType),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		kind, _ := classifyTransportError(err, 0)
		return nil, 0, &models.FetchError{URL: normalized, Kind: kind, Err: err}
	}
	body, err := decodeToUTF8(raw, contentType)
	if err != nil {
		// Undecodable charset declarations fall back to the raw bytes.
		body = raw
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &models.FetchResult{
		URL:         resp.Request.URL.String(),
		OriginalURL: normalized,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Headers:     headers,
		Body:        body,
		Elapsed:     time.Since(start),
	}, 0, nil
}

// retryDecision folds status class, transport class and any Retry-After
// hint into one verdict.
func (f *Fetcher) retryDecision(err error, attempt int, retryIn time.Duration) (bool, time.Duration) {
	delay := f.retry.Delay(attempt)
	if retryIn > delay {
		delay = retryIn
	}

	switch e := err.(type) {
	case *models.RateLimitError:
		return false, 0
	case *models.FetchError:
		switch e.Kind {
		case models.FetchHTTPStatus:
			return retryableStatus(e.StatusCode), delay
		case models.FetchUnsupportedContent, models.FetchSSL:
			return false, 0
		case models.FetchTimeout:
			return true, delay
		default:
			if e.Err != nil {
				_, retryable := classifyTransportError(e.Err, attempt)
				return retryable, delay
			}
			return true, delay
		}
	}
	return false, 0
}

func (f *Fetcher) contentTypeAllowed(header string) bool {
	if len(f.cfg.AllowedContentTypes) == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	}
	for _, allowed := range f.cfg.AllowedContentTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// decodeToUTF8 converts the body to UTF-8 using the Content-Type charset
// or in-document declarations.
func decodeToUTF8(raw []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
