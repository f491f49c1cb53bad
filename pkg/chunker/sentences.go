package chunker

import (
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// sentenceFallback approximates sentence boundaries on terminal
// punctuation. Used only when the segmenter yields nothing usable.
var sentenceFallback = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*|[^.!?]+$`)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// splitSentences segments text into trimmed sentences using Unicode
// sentence boundaries, with a punctuation-based regex fallback.
func splitSentences(text string) []string {
	var out []string
	iter := sentences.FromString(text)
	for iter.Next() {
		if s := strings.TrimSpace(iter.Value()); s != "" {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, m := range sentenceFallback.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitParagraphs splits on blank lines. Text without blank lines is one
// paragraph.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
