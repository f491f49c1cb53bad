package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// mainContainers are tried in order by the markdown strategy to isolate the
// article body before conversion.
var mainContainers = []string{
	"article", "main", "[role=main]", ".content", "#content", ".post", ".entry",
}

// extractReadability distills the main article text with the readability
// algorithm.
func extractReadability(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.NewParser().Parse(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, nil
}

// extractMarkdown converts the page's main container to markdown, which
// preserves heading and list structure that plain text extraction loses.
func extractMarkdown(body []byte, pageURL *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	sel := doc.Find("body")
	for _, container := range mainContainers {
		if found := doc.Find(container); found.Length() > 0 {
			sel = found.First()
			break
		}
	}
	inner, err := sel.Html()
	if err != nil {
		return "", fmt.Errorf("serialize container: %w", err)
	}

	converter := md.NewConverter(pageURL.Host, true, nil)
	out, err := converter.ConvertString(inner)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return out, nil
}

// extractManual strips boilerplate elements and joins the remaining
// block-level text. Last resort: low precision, high recall.
func extractManual(body []byte, _ *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer, aside, noscript, iframe").Remove()

	var blocks []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
