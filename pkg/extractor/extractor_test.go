package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/models"
)

const articleHTML = `<html>
<head>
<title>Understanding Tides - Ocean Journal</title>
<meta property="og:title" content="Understanding Tides">
<meta property="og:description" content="How the moon shapes coastal water levels.">
<meta property="og:site_name" content="Ocean Journal">
<meta name="author" content="R. Marsh">
<meta name="keywords" content="tides, ocean, moon">
<meta property="article:published_time" content="2024-03-05T09:30:00Z">
<link rel="canonical" href="/articles/understanding-tides">
</head>
<body>
<nav>Home | Articles | About</nav>
<article>
<h1>Understanding Tides</h1>
<p>Tides are the periodic rise and fall of sea levels caused by the combined
gravitational pull of the moon and the sun acting on the rotating earth.
Coastal communities have tracked these rhythms for thousands of years.</p>
<p>The moon contributes roughly twice the tidal force of the sun because
tidal forces fall off with the cube of distance. Spring tides occur when the
two bodies align and their effects reinforce each other.</p>
<p>Local geography amplifies or dampens the basic pattern. Funnel-shaped
bays such as the Bay of Fundy see ranges above fifteen meters, while
enclosed seas barely register a change at all.</p>
</article>
<footer>Copyright Ocean Journal</footer>
<script>trackPageView();</script>
</body>
</html>`

func testFetchResult(html string) *models.FetchResult {
	return &models.FetchResult{
		URL:         "https://ocean.example.com/articles/understanding-tides",
		OriginalURL: "https://ocean.example.com/articles/understanding-tides",
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(html),
	}
}

func testExtractor(cfg models.ExtractorConfig) *Extractor {
	return New(cfg, zerolog.Nop())
}

func TestExtractReadability(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.DetectLanguage = false
	e := testExtractor(cfg)

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != models.MethodReadability {
		t.Errorf("method = %s, want readability", got.Method)
	}
	if !strings.Contains(got.Text, "gravitational pull of the moon") {
		t.Error("text missing article content")
	}
	if strings.Contains(got.Text, "trackPageView") {
		t.Error("text contains script content")
	}
}

func TestExtractMetadata(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.DetectLanguage = false
	e := testExtractor(cfg)

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatal(err)
	}
	meta := got.Metadata
	if meta.Title != "Understanding Tides" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Author != "R. Marsh" {
		t.Errorf("author = %q", meta.Author)
	}
	if meta.Description != "How the moon shapes coastal water levels." {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.SiteName != "Ocean Journal" {
		t.Errorf("site name = %q", meta.SiteName)
	}
	if meta.Keywords != "tides, ocean, moon" {
		t.Errorf("keywords = %q", meta.Keywords)
	}
	if meta.Published != "2024-03-05T09:30:00Z" {
		t.Errorf("published = %q", meta.Published)
	}
	if meta.Canonical != "https://ocean.example.com/articles/understanding-tides" {
		t.Errorf("canonical = %q, want absolute URL", meta.Canonical)
	}
}

func TestExtractLanguage(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	e := testExtractor(cfg)

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.Language != "en" {
		t.Errorf("language = %q, want en", got.Metadata.Language)
	}
	if got.Metadata.LanguageConfidence <= 0 {
		t.Errorf("confidence = %f, want > 0", got.Metadata.LanguageConfidence)
	}
}

func TestExtractFallbackOrder(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.ExtractMetadata = false
	cfg.DetectLanguage = false
	cfg.MinContentLength = 10
	e := testExtractor(cfg)

	thirdRan := false
	e.strategies = []strategy{
		{models.MethodReadability, func([]byte, *url.URL) (string, error) {
			return "", fmt.Errorf("no article found")
		}},
		{models.MethodMarkdown, func([]byte, *url.URL) (string, error) {
			return "content recovered by the second strategy", nil
		}},
		{models.MethodManual, func([]byte, *url.URL) (string, error) {
			thirdRan = true
			return "should never be needed", nil
		}},
	}

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatal(err)
	}
	if got.Method != models.MethodMarkdown {
		t.Errorf("method = %s, want the second strategy", got.Method)
	}
	if thirdRan {
		t.Error("third strategy ran after the second succeeded")
	}
}

func TestExtractShortResultTriggersFallback(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.ExtractMetadata = false
	cfg.DetectLanguage = false
	cfg.MinContentLength = 50
	e := testExtractor(cfg)

	e.strategies = []strategy{
		{models.MethodReadability, func([]byte, *url.URL) (string, error) {
			return "too short", nil
		}},
		{models.MethodManual, func([]byte, *url.URL) (string, error) {
			return strings.Repeat("long enough content ", 5), nil
		}},
	}

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatal(err)
	}
	if got.Method != models.MethodManual {
		t.Errorf("method = %s, want fallback past the short result", got.Method)
	}
}

func TestExtractPanicIsContained(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.ExtractMetadata = false
	cfg.DetectLanguage = false
	cfg.MinContentLength = 10
	e := testExtractor(cfg)

	e.strategies = []strategy{
		{models.MethodReadability, func([]byte, *url.URL) (string, error) {
			panic("parser blew up")
		}},
		{models.MethodManual, func([]byte, *url.URL) (string, error) {
			return "recovered and moved to the next strategy", nil
		}},
	}

	got, err := e.Extract(testFetchResult(articleHTML))
	if err != nil {
		t.Fatal(err)
	}
	if got.Method != models.MethodManual {
		t.Errorf("method = %s, want fallback after panic", got.Method)
	}
}

func TestExtractAllStrategiesFail(t *testing.T) {
	cfg := models.DefaultConfig().Extractor
	cfg.ExtractMetadata = false
	cfg.DetectLanguage = false
	e := testExtractor(cfg)

	e.strategies = []strategy{
		{models.MethodReadability, func([]byte, *url.URL) (string, error) {
			return "", fmt.Errorf("failed")
		}},
		{models.MethodManual, func([]byte, *url.URL) (string, error) {
			return "", fmt.Errorf("failed")
		}},
	}

	_, err := e.Extract(testFetchResult(articleHTML))
	var perr *models.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if len(perr.Tried) != 2 {
		t.Errorf("tried = %v, want both strategies recorded", perr.Tried)
	}
}

func TestExtractManualStripsBoilerplate(t *testing.T) {
	page := `<html><body>
<nav>Home | About</nav>
<h1>Plain Heading</h1>
<p>First block of real page content with enough words to count.</p>
<p>Second block of real page content continuing the thought.</p>
<script>var x = 1;</script>
<footer>footer junk</footer>
</body></html>`

	text, err := extractManual([]byte(page), &url.URL{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "First block of real page content") {
		t.Error("missing paragraph content")
	}
	if strings.Contains(text, "Home | About") || strings.Contains(text, "footer junk") {
		t.Error("boilerplate survived stripping")
	}
	if strings.Contains(text, "var x") {
		t.Error("script content survived stripping")
	}
}

func TestExtractMarkdownKeepsStructure(t *testing.T) {
	u, _ := url.Parse("https://example.com/post")
	text, err := extractMarkdown([]byte(articleHTML), u)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "# Understanding Tides") {
		t.Errorf("markdown missing heading: %q", text[:min(120, len(text))])
	}
	if strings.Contains(text, "Home | Articles") {
		t.Error("markdown includes nav outside the article container")
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05T09:30:00Z", "2024-03-05T09:30:00Z"},
		{"March 5, 2024", "2024-03-05T00:00:00Z"},
		{"2024/03/05", "2024-03-05T00:00:00Z"},
		{"not a date", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.in); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
