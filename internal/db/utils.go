package db

import (
	"fmt"

	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
	"github.com/urfave/cli/v2"
)

// openDatabase opens --db, or the default database next to the binary.
func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	var (
		database *dbpkg.DB
		err      error
	)
	if path := c.String("db"); path != "" {
		database, err = dbpkg.OpenPath(path)
	} else {
		database, err = dbpkg.Open()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() == 0 {
		runs, err := database.ListRuns(1)
		if err != nil {
			return "", fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return "", fmt.Errorf("no runs found. Run 'llm-intent-miner analyze --input pages.json' first")
		}
		return runs[0].RunID, nil
	}
	return database.ResolveRunID(c.Args().First())
}
