// Package chunker splits cleaned text into bounded, optionally overlapping
// chunks. Five strategies share one overlap mechanism: the tail of each
// chunk is repeated at the head of the next, and every chunk records how
// many leading characters it shares with its predecessor.
package chunker

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/models"
)

// Chunker applies one configured strategy. Safe for concurrent use.
type Chunker struct {
	cfg    models.ChunkerConfig
	log    zerolog.Logger
	tokens TokenCounter
}

type Option func(*Chunker)

// WithTokenCounter substitutes the token counter used by the token
// strategy. Tests use this to avoid loading a real encoding.
func WithTokenCounter(tc TokenCounter) Option {
	return func(c *Chunker) { c.tokens = tc }
}

// New validates the configuration and, for the token strategy, resolves
// the tokenizer. Invalid configuration is the only error path.
func New(cfg models.ChunkerConfig, log zerolog.Logger, opts ...Option) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, &models.ChunkingError{Reason: "size must be positive"}
	}
	if cfg.Overlap < 0 {
		return nil, &models.ChunkingError{Reason: "overlap cannot be negative"}
	}
	if cfg.Overlap >= cfg.Size {
		return nil, &models.ChunkingError{Reason: "overlap must be less than size"}
	}
	switch cfg.Method {
	case "character", "word", "sentence", "paragraph", "token":
	default:
		return nil, &models.ChunkingError{Reason: "unknown method " + cfg.Method}
	}

	c := &Chunker{cfg: cfg, log: log.With().Str("component", "chunker").Logger()}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.Method == "token" && c.tokens == nil {
		tc, err := newTiktokenCounter(cfg.TokenEncoding)
		if err != nil {
			return nil, &models.ChunkingError{Reason: "tokenizer unavailable: " + err.Error()}
		}
		c.tokens = tc
	}
	return c, nil
}

// Chunk splits text with the configured strategy. Empty input yields no
// chunks; upstream stages reject it before it gets here.
func (c *Chunker) Chunk(text string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var pieces []piece
	switch c.cfg.Method {
	case "character":
		pieces = c.chunkRunes(text)
	case "word":
		pieces = packUnits(strings.Fields(text), " ", countOne, c.cfg.Size, c.cfg.Overlap)
	case "sentence":
		pieces = packUnits(splitSentences(text), " ", countRunes, c.cfg.Size, c.cfg.Overlap)
	case "paragraph":
		pieces = packUnits(splitParagraphs(text), "\n\n", countRunes, c.cfg.Size, c.cfg.Overlap)
	case "token":
		pieces = packUnits(splitSentences(text), " ", c.tokens.Count, c.cfg.Size, c.cfg.Overlap)
	}

	pieces = c.mergeTrailingFragment(pieces)

	chunks := make([]models.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = models.Chunk{
			Index:     i,
			Text:      p.text,
			Length:    len([]rune(p.text)),
			WordCount: len(strings.Fields(p.text)),
			IsFirst:   i == 0,
			IsLast:    i == len(pieces)-1,
			Method:    c.cfg.Method,
			Overlap:   p.overlap,
		}
	}

	c.log.Debug().
		Str("method", c.cfg.Method).
		Int("chunks", len(chunks)).
		Msg("chunked content")
	return chunks, nil
}

// piece is a chunk before positional metadata is attached. overlap is the
// rune count of the prefix shared with the previous piece.
type piece struct {
	text    string
	overlap int
}

func countRunes(s string) int { return len([]rune(s)) }

func countOne(string) int { return 1 }

// chunkRunes is the character strategy: fixed-size windows stepping by
// size-overlap runes.
func (c *Chunker) chunkRunes(text string) []piece {
	runes := []rune(text)
	size, overlap := c.cfg.Size, c.cfg.Overlap

	var pieces []piece
	start := 0
	for {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		ov := 0
		if start > 0 {
			ov = overlap
		}
		pieces = append(pieces, piece{text: string(runes[start:end]), overlap: ov})
		if end == len(runes) {
			return pieces
		}
		start = end - overlap
	}
}

// packUnits greedily fills chunks with whole units (words, sentences or
// paragraphs) up to size as measured by measure. A single unit larger than
// size becomes its own chunk rather than being split. The overlap prefix of
// each chunk is the longest unit-aligned tail of the previous chunk whose
// measure fits the overlap budget.
func packUnits(units []string, sep string, measure func(string) int, size, overlap int) []piece {
	var pieces []piece
	var prev []string

	i := 0
	for i < len(units) {
		var cur []string
		total := 0
		for i < len(units) {
			m := measure(units[i])
			if len(cur) > 0 && total+m > size {
				break
			}
			cur = append(cur, units[i])
			total += m
			i++
		}

		prefix := overlapTail(prev, measure, overlap)
		prefixText := strings.Join(prefix, sep)
		text := strings.Join(append(append([]string{}, prefix...), cur...), sep)
		pieces = append(pieces, piece{text: text, overlap: len([]rune(prefixText))})
		prev = cur
	}
	return pieces
}

// overlapTail returns the trailing units of prev whose combined measure
// stays within budget.
func overlapTail(prev []string, measure func(string) int, budget int) []string {
	if budget <= 0 || len(prev) == 0 {
		return nil
	}
	total := 0
	start := len(prev)
	for start > 0 {
		m := measure(prev[start-1])
		if total+m > budget {
			break
		}
		total += m
		start--
	}
	return prev[start:]
}

// mergeTrailingFragment folds a vanishing last chunk into its predecessor.
// A trailing chunk whose content beyond the overlap prefix is shorter than
// the configured floor carries no independent information.
func (c *Chunker) mergeTrailingFragment(pieces []piece) []piece {
	if len(pieces) < 2 || c.cfg.MinChunkLength <= 0 {
		return pieces
	}
	last := pieces[len(pieces)-1]
	runes := []rune(last.text)
	if len(runes)-last.overlap >= c.cfg.MinChunkLength {
		return pieces
	}
	prev := &pieces[len(pieces)-2]
	prev.text += string(runes[last.overlap:])
	return pieces[:len(pieces)-1]
}
