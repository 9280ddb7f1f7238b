package db

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/llm-intent-miner/models"
	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
)

func printRunTable(runs []dbpkg.Run) {
	fmt.Printf("%-10s %-20s %-8s %-8s %-8s %-8s %-10s %-16s\n",
		"ID", "Created", "Mode", "Pages", "Skipped", "Intents", "Degraded", "Fingerprint")
	fmt.Println(strings.Repeat("-", 96))

	for _, r := range runs {
		fmt.Printf("%-10s %-20s %-8s %-8d %-8d %-8d %-10d %-16s\n",
			shortID(r.RunID),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ExtractionMethod,
			r.PagesAnalyzed,
			r.PagesSkipped,
			r.IntentCount,
			r.DegradedCount,
			r.Fingerprint,
		)
	}
}

func shortID(runID string) string {
	return runID[:min(8, len(runID))]
}

func RunsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	printRunTable(runs)

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'llm-intent-miner db run <id>' to see details\n")

	return nil
}

// RunAction shows the methods and intents of one run
func RunAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	methods, err := database.GetRunMethods(runID)
	if err != nil {
		return err
	}
	intents, err := database.GetRunIntents(runID)
	if err != nil {
		return err
	}

	switch strings.ToLower(c.String("format")) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(intents)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(intents)
	case "", "text":
	default:
		return fmt.Errorf("unknown format: %s (use: text, json, or yaml)", c.String("format"))
	}

	fmt.Printf("Run %s\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:      %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Mode:         %s\n", run.ExtractionMethod)
	fmt.Printf("Pages:        %d analyzed, %d skipped\n", run.PagesAnalyzed, run.PagesSkipped)
	fmt.Printf("Fingerprint:  %s\n", run.Fingerprint)

	fmt.Printf("\nMethods (%d):\n", len(methods))
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range methods {
		fmt.Printf("  %-10s %-9s %3d candidates  %s\n", m.Method, m.Status, m.Candidates, m.Duration)
		if m.Reason != "" {
			fmt.Printf("             Reason: %s\n", m.Reason)
		}
	}

	fmt.Printf("\nIntents (%d):\n", len(intents))
	fmt.Println(strings.Repeat("-", 60))
	for i, in := range intents {
		printIntent(i+1, in)
	}

	fmt.Printf("\nTip: Use 'llm-intent-miner db run --format=json %s' for machine readable output\n", shortID(runID))
	return nil
}

func printIntent(n int, in models.Intent) {
	label := in.DisplayLabel
	if label == "" {
		label = in.PrimaryIntent
	}
	fmt.Printf("%2d. %s conf:%.2f | %d pages | %s\n",
		n, runewidth.FillRight(runewidth.Truncate(label, 32, "..."), 32), in.Confidence, in.PageCount, in.ExtractionMethod)
	if len(in.Keywords) > 0 {
		fmt.Printf("    Keywords: %s\n", strings.Join(in.Keywords, ", "))
	}
	for _, p := range in.RepresentativePhrases {
		fmt.Printf("    \"%s\"\n", runewidth.Truncate(p, 100, "..."))
	}
}

// QueryAction queries runs with filters
func QueryAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	todayOnly := c.Bool("today")
	degradedOnly := c.Bool("degraded")
	urlPattern := c.String("url")

	runs, err := database.QueryRuns(todayOnly, degradedOnly, urlPattern)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found matching filters")
		if todayOnly {
			fmt.Println("  - Filter: today only")
		}
		if degradedOnly {
			fmt.Println("  - Filter: with degraded methods")
		}
		if urlPattern != "" {
			fmt.Printf("  - Filter: URL pattern '%s'\n", urlPattern)
		}
		return nil
	}

	printRunTable(runs)
	fmt.Printf("\nFound: %d runs\n", len(runs))

	return nil
}

// URLAction lists the intents a page was assigned to across runs
func URLAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("URL required\nUsage: llm-intent-miner db url <url>\nExample: llm-intent-miner db url https://example.com/pricing")
	}

	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	url := c.Args().First()
	urlID, err := database.GetURLID(url)
	if err != nil {
		return fmt.Errorf("URL not found in database: %s\nNote: Only pages assigned to an intent are tracked", url)
	}

	assigned, err := database.GetURLIntents(url)
	if err != nil {
		return err
	}

	fmt.Printf("[#%d] %s\n\n", urlID, url)
	for _, a := range assigned {
		fmt.Printf("  %s  %-32s conf:%.2f\n", shortID(a.RunID), a.Intent, a.Confidence)
	}
	return nil
}

func InitAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	fmt.Printf("Database ready: %s\n", database.Path())
	return nil
}
