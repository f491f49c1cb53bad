package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pagesift/pagesift/internal/results"
	"github.com/pagesift/pagesift/internal/scrape"
)

func main() {
	app := &cli.App{
		Name:  "pagesift",
		Usage: "fetch, extract, clean and chunk web content",
		Commands: []*cli.Command{
			{
				Name:      "scrape",
				Usage:     "run the full pipeline over one or more URLs",
				ArgsUsage: "URL...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "preset",
						Aliases: []string{"p"},
						Value:   "default",
						Usage:   "config preset: default, fast, thorough, articles, llm",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML config file (overrides --preset)",
					},
					&cli.StringFlag{
						Name:  "extract-methods",
						Usage: "comma-separated strategy order: readability,markdown,manual",
					},
					&cli.StringFlag{
						Name:  "chunk-method",
						Usage: "chunking strategy: character, word, sentence, paragraph, token",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "chunk size in the method's unit",
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "overlap between consecutive chunks",
					},
					&cli.BoolFlag{
						Name:  "no-chunks",
						Usage: "skip the chunking stage",
					},
					&cli.BoolFlag{
						Name:  "include-raw-html",
						Usage: "carry the fetched HTML into the result",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "json",
						Usage:   "output format: json or yaml",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write output to a file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "SQLite file to persist results and robots decisions",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Value:   4,
						Usage:   "concurrent pipelines for batch runs",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "debug logging",
					},
				},
				Action: scrape.Action,
			},
			{
				Name:  "results",
				Usage: "list recently stored pipeline results",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite results file", Required: true},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum rows to show"},
				},
				Action: results.RecentAction,
			},
			{
				Name:  "robots",
				Usage: "list stored robots.txt decisions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite results file", Required: true},
				},
				Action: results.RobotsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
