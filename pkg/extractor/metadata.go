package extractor

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/pagesift/pagesift/models"
)

// extractMetadata reads document metadata from the page head, preferring
// OpenGraph fields, then standard meta tags, then in-body heuristics.
// Fields that cannot be determined stay empty; nothing is fabricated.
func extractMetadata(body []byte, pageURL *url.URL) models.Metadata {
	var meta models.Metadata
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	meta.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
		strings.TrimSpace(doc.Find("h1").First().Text()),
	)
	meta.Author = metaContent(doc,
		`meta[name="author"]`, `meta[property="article:author"]`)
	meta.Description = metaContent(doc,
		`meta[property="og:description"]`, `meta[name="description"]`)
	meta.Keywords = metaContent(doc, `meta[name="keywords"]`)
	meta.SiteName = metaContent(doc, `meta[property="og:site_name"]`)

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs, err := pageURL.Parse(strings.TrimSpace(href)); err == nil {
			meta.Canonical = abs.String()
		}
	}

	published := metaContent(doc,
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
		`meta[itemprop="datePublished"]`)
	if published == "" {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			published = dt
		}
	}
	meta.Published = normalizeDate(published)

	return meta
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// normalizeDate parses the many date formats found in the wild into
// RFC 3339. Unparseable dates are dropped rather than passed through.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
