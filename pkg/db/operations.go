package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InsertURL parses and inserts a URL, returning the url_id.
// If the URL already exists, returns the existing url_id.
func (db *DB) InsertURL(rawURL string) (int64, error) {
	return insertURL(db.DB, rawURL)
}

func insertURL(q execer, rawURL string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	// Check if URL already exists
	var existingID int64
	err = q.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	// Extract canonical URL (scheme + host + path, no query/fragment)
	canonicalURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	result, err := q.Exec(`
		INSERT INTO urls (original_url, canonical_url, scheme, domain, path, fragment)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rawURL, canonicalURL, parsed.Scheme, parsed.Host, parsed.Path, parsed.Fragment)
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// GetURLID returns the url_id for a given original URL.
func (db *DB) GetURLID(originalURL string) (int64, error) {
	var urlID int64
	err := db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", originalURL).Scan(&urlID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("URL not found: %s", originalURL)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// URLIntent is an intent a URL was assigned to in some run.
type URLIntent struct {
	RunID      string
	Intent     string
	Confidence float64
}

// GetURLIntents lists every intent the URL belongs to, most recent run first.
func (db *DB) GetURLIntents(originalURL string) ([]URLIntent, error) {
	rows, err := db.Query(`
		SELECT i.run_id, i.name, i.confidence
		FROM intent_pages ip
		JOIN urls u ON ip.url_id = u.url_id
		JOIN intents i ON ip.intent_id = i.intent_id
		JOIN runs r ON i.run_id = r.run_id
		WHERE u.original_url = ?
		ORDER BY r.created_at DESC, r.rowid DESC, i.position
	`, originalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL intents: %w", err)
	}
	defer rows.Close()

	var out []URLIntent
	for rows.Next() {
		var ui URLIntent
		if err := rows.Scan(&ui.RunID, &ui.Intent, &ui.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan URL intent: %w", err)
		}
		out = append(out, ui)
	}
	return out, rows.Err()
}

// NewNullString creates a sql.NullString from a string value.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
