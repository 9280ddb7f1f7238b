package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-intent-miner/internal/common"
	"github.com/dtnitsch/llm-intent-miner/models"
	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
	"github.com/dtnitsch/llm-intent-miner/pkg/engine"
	"github.com/dtnitsch/llm-intent-miner/pkg/extractor"
	"github.com/dtnitsch/llm-intent-miner/pkg/ingest"
	"github.com/dtnitsch/llm-intent-miner/pkg/manifest"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
)

func AnalyzeAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}

	strategy, err := extractor.ParseStrategy(c.String("filter"))
	if err != nil {
		return fmt.Errorf("invalid --filter: %w", err)
	}

	s := &storage.Storage{}
	loader := &ingest.Loader{Storage: s, BaseURL: c.String("base-url")}
	pages, err := loader.Load(c.String("input"))
	if err != nil {
		return err
	}
	logger.Info("Loaded pages", "count", len(pages), "input", c.String("input"))
	for _, u := range ingest.InvalidURLs(pages) {
		logger.Warn("Page URL is not an absolute http(s) URL", "url", u)
	}

	settings, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fingerprint := common.CorpusFingerprint(pages, settings)

	var database *dbpkg.DB
	if !c.Bool("no-db") {
		database, err = dbpkg.OpenPath(c.String("db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
	}

	if database != nil && c.Bool("reuse") {
		maxAge, err := time.ParseDuration(c.String("max-age"))
		if err != nil {
			return fmt.Errorf("invalid max-age duration: %w", err)
		}
		run, found, err := database.FindRecentRun(fingerprint, maxAge)
		if err != nil {
			return err
		}
		if found {
			logger.Info("Reusing stored run", "run_id", run.RunID, "created_at", run.CreatedAt)
			intents, err := database.GetRunIntents(run.RunID)
			if err != nil {
				return err
			}
			return writeIntents(c, s, extractor.FilterIntents(intents, strategy))
		}
	}

	eng, err := engine.New(*cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	res, err := eng.Run(ctx, pages)
	if err != nil {
		return fmt.Errorf("analysis aborted: %w", err)
	}
	logger.Info("Analysis complete",
		"intents", len(res.Intents),
		"pages", res.PagesAnalyzed(),
		"skipped", len(res.Skipped),
		"duration", time.Since(startTime).String(),
	)

	var runID string
	if database != nil {
		runID, err = database.SaveRun(dbpkg.NewRun{
			Fingerprint:      fingerprint,
			ExtractionMethod: cfg.ExtractionMethod.String(),
			Config:           string(settings),
			PagesAnalyzed:    res.PagesAnalyzed(),
			PagesSkipped:     len(res.Skipped),
			Methods:          methodRecords(res.Methods),
			Intents:          res.Intents,
			Pages:            pageRecords(res.Pages),
		})
		if err != nil {
			logger.Warn("Failed to record run", "error", err)
		} else {
			logger.Info("Recorded run", "run_id", runID, "db", database.Path())
		}
	}

	if path := c.String("manifest"); path != "" {
		m := manifest.Generate(res, eng.Library(), runID, time.Now())
		if err := manifest.Save(path, m, s); err != nil {
			return err
		}
		logger.Info("Manifest saved", "path", path)
	}

	intents := extractor.FilterIntents(res.Intents, strategy)
	if err := writeIntents(c, s, intents); err != nil {
		return err
	}

	if !c.Bool("quiet") {
		PrintSummary(os.Stderr, res, runID)
	}
	return nil
}

// LoadConfig reads --config and applies the command line overrides.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("mode") {
		mode, err := models.ParseExtractionMode(c.String("mode"))
		if err != nil {
			return nil, err
		}
		cfg.ExtractionMethod = mode
	}
	if c.IsSet("embeddings") {
		cfg.EmbeddingsModel = c.String("embeddings")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.Bool("english-only") {
		cfg.EnglishOnly = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pageRecords(pages []models.Page) []dbpkg.PageRecord {
	records := make([]dbpkg.PageRecord, len(pages))
	for i, p := range pages {
		records[i] = dbpkg.PageRecord{URL: p.URL, Section: p.Section}
	}
	return records
}

func methodRecords(reports []engine.MethodReport) []dbpkg.MethodRecord {
	records := make([]dbpkg.MethodRecord, len(reports))
	for i, r := range reports {
		records[i] = dbpkg.MethodRecord{
			Method:     string(r.Method),
			Status:     string(r.Status),
			Reason:     r.Reason,
			Candidates: r.Candidates,
			Duration:   r.Duration,
		}
	}
	return records
}

// writeIntents prints the intent list as JSON to stdout, or saves it to
// --output encoded by its extension.
func writeIntents(c *cli.Context, s *storage.Storage, intents []models.Intent) error {
	var out any = intents
	if fields := c.String("fields"); fields != "" {
		out = common.FilterIntentFields(intents, fields)
	}

	if path := c.String("output"); path != "" {
		return s.SaveEncoded(path, out)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
