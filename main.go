package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-intent-miner/internal/analyze"
	"github.com/dtnitsch/llm-intent-miner/internal/db"
	"github.com/dtnitsch/llm-intent-miner/internal/tune"
	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
	"github.com/dtnitsch/llm-intent-miner/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "llm-intent-miner",
		Usage: "Discover visitor intents in crawled website text",
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Run intent discovery over a corpus of pages",
				Action: analyze.AnalyzeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Pages file (.json, .jsonl, .yaml) or directory of .html files"},
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Extraction method: hybrid, pattern or dynamic"},
					&cli.StringFlag{Name: "embeddings", Usage: "Embeddings provider: hashing[:dims] or ollama:<model>"},
					&cli.IntFlag{Name: "workers", Usage: "Parallel workers for page analysis"},
					&cli.StringFlag{Name: "base-url", Usage: "Base URL for HTML files without a canonical link"},
					&cli.BoolFlag{Name: "english-only", Usage: "Skip pages not written in English"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write intents to file (.json or .yaml) instead of stdout"},
					&cli.StringFlag{Name: "manifest", Usage: "Write a run manifest (.yaml or .json)"},
					&cli.StringFlag{Name: "filter", Usage: "Filter intents, e.g. conf:>=0.5,pages:>=3,method:pattern|lda"},
					&cli.StringFlag{Name: "fields", Usage: "Comma separated intent fields to output (name,conf,kw,phrases,count,method,pages)"},
					&cli.StringFlag{Name: "db", Value: dbpkg.DefaultDBName, Usage: "SQLite database for run history"},
					&cli.BoolFlag{Name: "no-db", Usage: "Do not record the run"},
					&cli.BoolFlag{Name: "reuse", Usage: "Return the stored run when the same corpus and config were analyzed recently"},
					&cli.StringFlag{Name: "max-age", Value: "24h", Usage: "How old a stored run may be for --reuse (0 = any age)"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors and skip the summary"},
				},
			},
			{
				Name:  "db",
				Usage: "Inspect stored runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite database (default: next to the binary)"},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "runs",
						Usage:  "List recent runs with stats",
						Action: db.RunsAction,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of runs"},
						},
					},
					{
						Name:      "run",
						Usage:     "Show methods and intents of a run",
						ArgsUsage: "[run id prefix]",
						Action:    db.RunAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "format", Value: "text", Usage: "text, json or yaml"},
						},
					},
					{
						Name:   "query",
						Usage:  "Filter runs",
						Action: db.QueryAction,
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "today", Usage: "Only runs from today"},
							&cli.BoolFlag{Name: "degraded", Usage: "Only runs with a degraded method"},
							&cli.StringFlag{Name: "url", Usage: "Only runs that assigned a matching URL"},
						},
					},
					{
						Name:      "url",
						Usage:     "Show the intents a page was assigned to across runs",
						ArgsUsage: "<url>",
						Action:    db.URLAction,
					},
					{
						Name:   "init",
						Usage:  "Initialize database schema",
						Action: db.InitAction,
					},
				},
			},
			{
				Name:      "tune",
				Usage:     "Suggest library and threshold changes from a stored run",
				ArgsUsage: "[run-id]",
				Action:    tune.TuneAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Value: dbpkg.DefaultDBName, Usage: "SQLite database with the run history"},
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Pages of the run, for unmatched term suggestions"},
					&cli.StringFlag{Name: "base-url", Usage: "Base URL for HTML files without a canonical link"},
					&cli.StringFlag{Name: "library", Usage: "Pattern library to check terms against (default: the run's)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the tuning report to file (.json or .yaml)"},
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text, json or yaml"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
