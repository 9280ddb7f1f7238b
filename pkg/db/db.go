package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	DefaultDBName = "llm-intent-miner.db"

	// MemoryPath opens a private database that lives as long as the DB.
	MemoryPath = ":memory:"
)

// DB is the run history store.
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database next to the binary.
func Open() (*DB, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return OpenPath(filepath.Join(filepath.Dir(execPath), DefaultDBName))
}

// OpenPath opens or creates the database at dbPath and makes sure the
// schema exists.
func OpenPath(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		// each connection to :memory: would see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{DB: sqlDB, path: dbPath}
	if err := db.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) ensureSchema() error {
	var tables int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('urls', 'runs', 'run_methods', 'intents', 'intent_pages', 'run_pages')
	`).Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if tables == 6 {
		return nil
	}
	return db.InitSchema()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema creates any missing tables and indexes.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}
