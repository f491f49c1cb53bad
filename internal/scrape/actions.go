// Package scrape implements the scrape command: it validates raw CLI
// input, drives the pipeline, and maps results and errors onto the output
// format and exit codes.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/pkg/pipeline"
	"github.com/pagesift/pagesift/pkg/store"
)

// urlOutcome is the per-URL record written to the output. Exactly one of
// Error and Result is set.
type urlOutcome struct {
	URL    string                 `json:"url" yaml:"url"`
	Status string                 `json:"status" yaml:"status"`
	Stage  string                 `json:"stage,omitempty" yaml:"stage,omitempty"`
	Error  string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Result *models.PipelineResult `json:"result,omitempty" yaml:"result,omitempty"`
}

func Action(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one URL is required\nUsage: pagesift scrape [options] URL...", 2)
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}
	log := buildLogger(cfg.LogLevel, c.Bool("verbose"))

	p, err := pipeline.New(*cfg, log)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}

	urls := c.Args().Slice()
	outcomes := runAll(c.Context, p, urls, c.Int("workers"))

	var db *store.Store
	if dbPath := c.String("db"); dbPath != "" {
		db, err = store.Open(dbPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("database: %v", err), 2)
		}
		defer db.Close()
		persist(db, outcomes, p.RobotsDecisions(), log)
	}

	if err := writeOutput(c, urls, outcomes); err != nil {
		return cli.Exit(fmt.Sprintf("output: %v", err), 2)
	}

	for _, o := range outcomes {
		if o.Status != "ok" {
			return cli.Exit("", 1)
		}
	}
	return nil
}

// resolveConfig layers the preset or config file under the explicit flag
// overrides.
func resolveConfig(c *cli.Context) (*models.Config, error) {
	var cfg models.Config
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else {
		preset, err := models.PresetByName(c.String("preset"))
		if err != nil {
			return nil, err
		}
		cfg = preset
	}

	if methods := c.String("extract-methods"); methods != "" {
		cfg.Extractor.Methods = splitList(methods)
	}
	if method := c.String("chunk-method"); method != "" {
		cfg.Chunker.Method = method
	}
	if c.IsSet("chunk-size") {
		cfg.Chunker.Size = c.Int("chunk-size")
	}
	if c.IsSet("chunk-overlap") {
		cfg.Chunker.Overlap = c.Int("chunk-overlap")
	}
	if c.Bool("no-chunks") {
		cfg.Chunker.Enabled = false
	}
	if c.Bool("include-raw-html") {
		cfg.IncludeRawHTML = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func runAll(ctx context.Context, p *pipeline.Pipeline, urls []string, workers int) []urlOutcome {
	items := p.RunBatch(ctx, urls, workers)
	outcomes := make([]urlOutcome, len(items))
	for i, item := range items {
		o := urlOutcome{URL: item.URL, Status: "ok", Result: item.Result}
		if item.Err != nil {
			o.Status = "failed"
			o.Error = item.Err.Error()
			if serr, ok := item.Err.(*models.StageError); ok {
				o.Stage = string(serr.Stage)
			}
			o.Result = nil
		}
		outcomes[i] = o
	}
	return outcomes
}

func persist(db *store.Store, outcomes []urlOutcome, decisions []models.RobotsDecision, log zerolog.Logger) {
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		if _, err := db.SaveResult(o.Result); err != nil {
			log.Warn().Str("url", o.URL).Err(err).Msg("failed to persist result")
		}
	}
	if err := db.SaveRobotsDecisions(decisions); err != nil {
		log.Warn().Err(err).Msg("failed to persist robots decisions")
	}
}

func writeOutput(c *cli.Context, urls []string, outcomes []urlOutcome) error {
	// A single URL prints one record, a batch prints a list.
	var payload any = outcomes
	if len(outcomes) == 1 {
		payload = outcomes[0]
	}

	var data []byte
	var err error
	switch format := c.String("format"); format {
	case "", "json":
		data, err = json.MarshalIndent(payload, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(payload)
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}
	if err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
