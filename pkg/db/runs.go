package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// Run represents a persisted engine run
type Run struct {
	RunID            string
	CreatedAt        time.Time
	Fingerprint      string
	ExtractionMethod string
	Config           string
	PagesAnalyzed    int
	PagesSkipped     int
	IntentCount      int
	DegradedCount    int
}

// MethodRecord is the stored status of one discovery method
type MethodRecord struct {
	Method     string
	Status     string
	Reason     string
	Candidates int
	Duration   time.Duration
}

// PageRecord is one analyzed page of a run
type PageRecord struct {
	URL     string
	Section string
}

// NewRun is everything SaveRun stores for a run
type NewRun struct {
	Fingerprint      string
	ExtractionMethod string
	Config           string
	PagesAnalyzed    int
	PagesSkipped     int
	Methods          []MethodRecord
	Intents          []models.Intent
	Pages            []PageRecord
}

const runColumns = `run_id, created_at, corpus_fingerprint, extraction_method, config,
	pages_analyzed, pages_skipped, intent_count, degraded_count`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var config sql.NullString
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.Fingerprint, &r.ExtractionMethod, &config,
		&r.PagesAnalyzed, &r.PagesSkipped, &r.IntentCount, &r.DegradedCount); err != nil {
		return nil, err
	}
	r.Config = config.String
	return &r, nil
}

// SaveRun stores a run with its method reports and intents in one
// transaction and returns the new run id.
func (db *DB) SaveRun(run NewRun) (string, error) {
	runID := uuid.NewString()

	degraded := 0
	for _, m := range run.Methods {
		if m.Status == "degraded" {
			degraded++
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, corpus_fingerprint, extraction_method, config,
			pages_analyzed, pages_skipped, intent_count, degraded_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, run.Fingerprint, run.ExtractionMethod, NewNullString(run.Config),
		run.PagesAnalyzed, run.PagesSkipped, len(run.Intents), degraded)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, m := range run.Methods {
		_, err = tx.Exec(`
			INSERT INTO run_methods (run_id, method, status, reason, candidates, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, m.Method, m.Status, NewNullString(m.Reason), m.Candidates, m.Duration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("failed to insert method %s: %w", m.Method, err)
		}
	}

	for pos, in := range run.Intents {
		if err := insertIntent(tx, runID, pos, in); err != nil {
			return "", err
		}
	}

	for _, p := range run.Pages {
		urlID, err := insertURL(tx, p.URL)
		if err != nil {
			return "", fmt.Errorf("failed to insert URL %s: %w", p.URL, err)
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO run_pages (run_id, url_id, section) VALUES (?, ?, ?)`,
			runID, urlID, NewNullString(p.Section))
		if err != nil {
			return "", fmt.Errorf("failed to link run page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func insertIntent(tx *sql.Tx, runID string, pos int, in models.Intent) error {
	keywords, err := json.Marshal(in.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}
	phrases, err := json.Marshal(in.RepresentativePhrases)
	if err != nil {
		return fmt.Errorf("failed to encode phrases: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO intents (run_id, position, name, display_label, confidence, page_count,
			extraction_method, keywords, phrases)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, pos, in.PrimaryIntent, NewNullString(in.DisplayLabel), in.Confidence, in.PageCount,
		in.ExtractionMethod, string(keywords), string(phrases))
	if err != nil {
		return fmt.Errorf("failed to insert intent %s: %w", in.PrimaryIntent, err)
	}
	intentID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get intent ID: %w", err)
	}

	for _, page := range in.Pages {
		urlID, err := insertURL(tx, page)
		if err != nil {
			return fmt.Errorf("failed to insert URL %s: %w", page, err)
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO intent_pages (intent_id, url_id) VALUES (?, ?)`, intentID, urlID); err != nil {
			return fmt.Errorf("failed to link intent page: %w", err)
		}
	}
	return nil
}

// ResolveRunID expands a unique run id prefix to the full id
func (db *DB) ResolveRunID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("empty run id")
	}
	rows, err := db.Query(`SELECT run_id FROM runs WHERE run_id LIKE ? LIMIT 2`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("run %s not found", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %s is ambiguous", prefix)
	}
}

// GetRun retrieves a run by its ID
func (db *DB) GetRun(runID string) (*Run, error) {
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunMethods retrieves the method reports of a run in pipeline order
func (db *DB) GetRunMethods(runID string) ([]MethodRecord, error) {
	rows, err := db.Query(`
		SELECT method, status, reason, candidates, duration_ms
		FROM run_methods
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run methods: %w", err)
	}
	defer rows.Close()

	var methods []MethodRecord
	for rows.Next() {
		var m MethodRecord
		var reason sql.NullString
		var ms int64
		if err := rows.Scan(&m.Method, &m.Status, &reason, &m.Candidates, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan method: %w", err)
		}
		m.Reason = reason.String
		m.Duration = time.Duration(ms) * time.Millisecond
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// GetRunIntents retrieves the intents of a run in their output order
func (db *DB) GetRunIntents(runID string) ([]models.Intent, error) {
	rows, err := db.Query(`
		SELECT intent_id, name, display_label, confidence, page_count, extraction_method, keywords, phrases
		FROM intents
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run intents: %w", err)
	}

	var ids []int64
	intents := []models.Intent{}
	for rows.Next() {
		var in models.Intent
		var id int64
		var label, keywords, phrases sql.NullString
		if err := rows.Scan(&id, &in.PrimaryIntent, &label, &in.Confidence, &in.PageCount,
			&in.ExtractionMethod, &keywords, &phrases); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		in.DisplayLabel = label.String
		in.Keywords = decodeList(keywords)
		in.RepresentativePhrases = decodeList(phrases)
		ids = append(ids, id)
		intents = append(intents, in)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read intents: %w", err)
	}

	for i, id := range ids {
		pages, err := db.intentPages(id)
		if err != nil {
			return nil, err
		}
		intents[i].Pages = pages
	}
	return intents, nil
}

func (db *DB) intentPages(intentID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT u.original_url
		FROM intent_pages ip
		JOIN urls u ON ip.url_id = u.url_id
		WHERE ip.intent_id = ?
		ORDER BY u.original_url
	`, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get intent pages: %w", err)
	}
	defer rows.Close()

	pages := []string{}
	for rows.Next() {
		var page string
		if err := rows.Scan(&page); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// GetRunPages retrieves the analyzed pages of a run ordered by URL
func (db *DB) GetRunPages(runID string) ([]PageRecord, error) {
	rows, err := db.Query(`
		SELECT u.original_url, rp.section
		FROM run_pages rp
		JOIN urls u ON rp.url_id = u.url_id
		WHERE rp.run_id = ?
		ORDER BY u.original_url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var section sql.NullString
		if err := rows.Scan(&p.URL, &section); err != nil {
			return nil, fmt.Errorf("failed to scan run page: %w", err)
		}
		p.Section = section.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func decodeList(s sql.NullString) []string {
	out := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.queryRuns(query)
}

// QueryRuns filters runs based on criteria
func (db *DB) QueryRuns(todayOnly, degradedOnly bool, urlPattern string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r`

	var conditions []string
	var args []any

	if todayOnly {
		conditions = append(conditions, "DATE(r.created_at) = DATE('now')")
	}
	if degradedOnly {
		conditions = append(conditions, "r.degraded_count > 0")
	}
	if urlPattern != "" {
		conditions = append(conditions, `r.run_id IN (
			SELECT i.run_id FROM intents i
			JOIN intent_pages ip ON i.intent_id = ip.intent_id
			JOIN urls u ON ip.url_id = u.url_id
			WHERE u.original_url LIKE ?)`)
		args = append(args, "%"+urlPattern+"%")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.rowid DESC"

	return db.queryRuns(query, args...)
}

func (db *DB) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// FindRecentRun returns the newest run for a corpus fingerprint if it is
// younger than maxAge. maxAge == 0 means runs never go stale.
func (db *DB) FindRecentRun(fingerprint string, maxAge time.Duration) (*Run, bool, error) {
	run, err := scanRun(db.QueryRow(`
		SELECT `+runColumns+`
		FROM runs
		WHERE corpus_fingerprint = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, fingerprint))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find run: %w", err)
	}
	if maxAge > 0 && time.Since(run.CreatedAt) > maxAge {
		return run, false, nil
	}
	return run, true, nil
}
