package tune

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	dbcmd "github.com/dtnitsch/llm-intent-miner/internal/db"
	"github.com/dtnitsch/llm-intent-miner/models"
	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
	"github.com/dtnitsch/llm-intent-miner/pkg/ingest"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
)

// TuneAction analyzes a stored run and prints or exports a tuning report.
func TuneAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	database, err := dbpkg.OpenPath(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := dbcmd.GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	intents, err := database.GetRunIntents(runID)
	if err != nil {
		return err
	}
	records, err := database.GetRunPages(runID)
	if err != nil {
		return err
	}

	cfg, err := runConfig(run)
	if err != nil {
		return err
	}

	libPath := cfg.PatternLibrary
	if c.IsSet("library") {
		libPath = c.String("library")
	}
	var lib *library.Library
	if libPath != "" {
		lib, err = library.Load(libPath, logger)
	} else {
		lib, err = library.Default(logger)
	}
	if err != nil {
		return err
	}

	s := &storage.Storage{}
	var corpus []models.Page
	if input := c.String("input"); input != "" {
		loader := &ingest.Loader{Storage: s, BaseURL: c.String("base-url")}
		corpus, err = loader.Load(input)
		if err != nil {
			return err
		}
		logger.Info("Loaded pages for term analysis", "count", len(corpus), "input", input)
	}

	report := Analyze(Input{
		RunID:   runID,
		Config:  cfg,
		Intents: intents,
		Pages:   runPages(records, intents, corpus),
		Library: lib,
	})
	logger.Info("Tuning analysis complete",
		"run_id", runID,
		"low_confidence", len(report.LowConfidence),
		"sections_without_intent", len(report.UncoveredSections),
		"unmatched_terms", len(report.UnmatchedTerms),
	)

	if path := c.String("output"); path != "" {
		if err := s.SaveEncoded(path, report); err != nil {
			return fmt.Errorf("failed to write tuning report: %w", err)
		}
		logger.Info("Tuning report saved", "path", path)
	}

	switch format := c.String("format"); format {
	case "json", "yaml":
		data, err := storage.Encode("report."+format, report)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	case "text", "":
		PrintReport(os.Stdout, report)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// runConfig decodes the config a run was recorded with over the defaults.
func runConfig(run *dbpkg.Run) (models.Config, error) {
	cfg := models.DefaultConfig()
	if run.Config == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(run.Config), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config of run %s: %w", run.RunID, err)
	}
	return cfg, nil
}

// runPages joins the stored pages of a run with the loaded corpus. Runs
// recorded without their page list fall back to the pages of their intents.
func runPages(records []dbpkg.PageRecord, intents []models.Intent, corpus []models.Page) []models.Page {
	byURL := make(map[string]models.Page, len(corpus))
	for _, p := range corpus {
		byURL[p.URL] = p
	}

	if len(records) == 0 {
		seen := make(map[string]struct{})
		for _, in := range intents {
			for _, u := range in.Pages {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				records = append(records, dbpkg.PageRecord{URL: u})
			}
		}
	}

	pages := make([]models.Page, len(records))
	for i, r := range records {
		p, ok := byURL[r.URL]
		if !ok {
			p = models.Page{URL: r.URL}
		}
		if r.Section != "" {
			p.Section = r.Section
		}
		pages[i] = p
	}
	return pages
}
