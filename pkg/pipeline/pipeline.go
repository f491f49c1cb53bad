// Package pipeline wires the four stages together: fetch, extract, clean,
// chunk. A failed stage short-circuits the run; a result is returned only
// when every stage succeeded.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/pkg/chunker"
	"github.com/pagesift/pagesift/pkg/cleaner"
	"github.com/pagesift/pagesift/pkg/extractor"
	"github.com/pagesift/pagesift/pkg/fetcher"
)

type Pipeline struct {
	cfg     models.Config
	fetcher *fetcher.Fetcher
	extract *extractor.Extractor
	cleaner *cleaner.Cleaner
	chunker *chunker.Chunker // nil when chunking is disabled
	log     zerolog.Logger
}

// New validates the configuration and constructs all stage components.
func New(cfg models.Config, log zerolog.Logger, chunkerOpts ...chunker.Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher.New(cfg.Fetcher, log),
		extract: extractor.New(cfg.Extractor, log),
		cleaner: cleaner.New(cfg.Cleaner, log),
		log:     log.With().Str("component", "pipeline").Logger(),
	}
	if cfg.Chunker.Enabled {
		ch, err := chunker.New(cfg.Chunker, log, chunkerOpts...)
		if err != nil {
			return nil, err
		}
		p.chunker = ch
	}
	return p, nil
}

// RobotsDecisions exposes the fetcher's cached robots verdicts.
func (p *Pipeline) RobotsDecisions() []models.RobotsDecision {
	return p.fetcher.RobotsDecisions()
}

// Run processes one URL through every stage. Errors carry the identity of
// the failing stage; a partially processed page is never returned as a
// success.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*models.PipelineResult, error) {
	total := time.Now()
	var timing models.TimingStats

	if err := ctx.Err(); err != nil {
		return nil, stageError(models.StageFetch, rawURL, err)
	}

	fetchStart := time.Now()
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, stageError(fetchStage(err), rawURL, err)
	}
	timing.Fetch = time.Since(fetchStart).Seconds()

	if err := ctx.Err(); err != nil {
		return nil, stageError(models.StageExtract, fetched.URL, err)
	}
	extractStart := time.Now()
	extracted, err := p.extract.Extract(fetched)
	if err != nil {
		return nil, stageError(models.StageExtract, fetched.URL, err)
	}
	timing.Extract = time.Since(extractStart).Seconds()

	if err := ctx.Err(); err != nil {
		return nil, stageError(models.StageClean, fetched.URL, err)
	}
	cleanStart := time.Now()
	cleaned, err := p.cleaner.Clean(extracted.Text)
	if err != nil {
		return nil, stageError(models.StageClean, fetched.URL, err)
	}
	timing.Clean = time.Since(cleanStart).Seconds()

	var chunks []models.Chunk
	var chunkStats *models.ChunkStats
	if p.chunker != nil {
		if err := ctx.Err(); err != nil {
			return nil, stageError(models.StageChunk, fetched.URL, err)
		}
		chunkStart := time.Now()
		chunks, err = p.chunker.Chunk(cleaned.Content)
		if err != nil {
			return nil, stageError(models.StageChunk, fetched.URL, err)
		}
		timing.Chunk = time.Since(chunkStart).Seconds()
		chunkStats = summarizeChunks(chunks, p.cfg.Chunker, timing.Chunk)
	}
	timing.Total = time.Since(total).Seconds()

	result := &models.PipelineResult{
		URL:         fetched.URL,
		OriginalURL: fetched.OriginalURL,
		Metadata:    extracted.Metadata,
		Content:     cleaned.Content,
		Chunks:      chunks,
		Timestamp:   time.Now().UTC(),
	}
	if p.cfg.IncludeRawHTML {
		result.RawHTML = string(fetched.Body)
	}
	if p.cfg.IncludeStatistics {
		result.Stats = &models.Statistics{
			Fetch: models.FetchStats{
				StatusCode:  fetched.StatusCode,
				ContentType: fetched.ContentType,
				Seconds:     timing.Fetch,
			},
			Extract: models.ParseStats{
				Method:   extracted.Method,
				Language: extracted.Metadata.Language,
				Seconds:  timing.Extract,
			},
			Clean: models.CleanStats{
				OriginalLength: cleaned.OriginalLength,
				CleanedLength:  cleaned.CleanedLength,
				WordCount:      cleaned.WordCount,
				Seconds:        timing.Clean,
			},
			Chunk:  chunkStats,
			Timing: timing,
		}
	}

	p.log.Info().
		Str("url", result.URL).
		Str("method", string(extracted.Method)).
		Int("words", cleaned.WordCount).
		Int("chunks", len(chunks)).
		Msg("pipeline completed")
	return result, nil
}

// fetchStage distinguishes pre-network validation failures from real fetch
// failures.
func fetchStage(err error) models.Stage {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return models.StageValidate
	}
	return models.StageFetch
}

func stageError(stage models.Stage, url string, err error) error {
	return &models.StageError{Stage: stage, URL: url, Err: err}
}

func summarizeChunks(chunks []models.Chunk, cfg models.ChunkerConfig, seconds float64) *models.ChunkStats {
	stats := &models.ChunkStats{
		Count:   len(chunks),
		Method:  cfg.Method,
		Size:    cfg.Size,
		Overlap: cfg.Overlap,
		Seconds: seconds,
	}
	if len(chunks) > 0 {
		totalLen := 0
		for _, ch := range chunks {
			totalLen += ch.Length
		}
		stats.AverageLength = float64(totalLen) / float64(len(chunks))
	}
	return stats
}
