package extractor

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// languageSampleRunes bounds the text fed to the detector; a prefix is
// enough to identify the language and keeps detection fast on long pages.
const languageSampleRunes = 1000

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// detectLanguage returns an ISO 639-1 code and a confidence in [0, 1], or
// "unknown" with zero confidence when detection fails. The detector is
// built once per process; model loading is expensive.
func detectLanguage(text string) (string, float64) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "unknown", 0
	}
	if runes := []rune(sample); len(runes) > languageSampleRunes {
		sample = string(runes[:languageSampleRunes])
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build()
	})

	lang, ok := detector.DetectLanguageOf(sample)
	if !ok {
		return "unknown", 0
	}
	conf := detector.ComputeLanguageConfidence(sample, lang)
	return strings.ToLower(lang.IsoCode639_1().String()), conf
}
