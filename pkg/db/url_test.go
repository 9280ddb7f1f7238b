package db

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenPath(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return database
}

func TestOpenPathCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	runID, err := first.SaveRun(sampleRun("abc123"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	first.Close()

	second, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() on existing file error = %v", err)
	}
	defer second.Close()

	if second.Path() != path {
		t.Errorf("Path() = %q, want %q", second.Path(), path)
	}
	if _, err := second.GetRun(runID); err != nil {
		t.Errorf("run saved before reopening is gone: %v", err)
	}
	if err := second.InitSchema(); err != nil {
		t.Errorf("InitSchema() on existing schema error = %v", err)
	}
}

func TestInsertURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	pages := []string{
		"https://bakery.example/",
		"https://bakery.example/learn/sourdough",
		"https://bakery.example/pricing?plan=wholesale",
		"https://bakery.example/learn/sourdough#shaping",
	}

	seen := make(map[int64]string)
	for _, page := range pages {
		urlID, err := db.InsertURL(page)
		if err != nil {
			t.Fatalf("InsertURL(%q) error = %v", page, err)
		}
		if urlID == 0 {
			t.Errorf("InsertURL(%q) returned 0 ID", page)
		}
		if other, dup := seen[urlID]; dup {
			t.Errorf("InsertURL(%q) reused the ID of %q", page, other)
		}
		seen[urlID] = page
	}

	again, err := db.InsertURL(pages[1])
	if err != nil {
		t.Fatalf("InsertURL() error = %v", err)
	}
	if seen[again] != pages[1] {
		t.Errorf("InsertURL() of a known page returned ID %d, want the existing one", again)
	}
}

func TestInsertURL_ParsesComponents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://bakery.example/learn/sourdough.html?step=2#shaping")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var canonical, scheme, domain, path, fragment string
	err = db.QueryRow(`
		SELECT canonical_url, scheme, domain, path, fragment
		FROM urls WHERE url_id = ?
	`, urlID).Scan(&canonical, &scheme, &domain, &path, &fragment)
	if err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}

	want := map[string][2]string{
		"canonical_url": {canonical, "https://bakery.example/learn/sourdough.html"},
		"scheme":        {scheme, "https"},
		"domain":        {domain, "bakery.example"},
		"path":          {path, "/learn/sourdough.html"},
		"fragment":      {fragment, "shaping"},
	}
	for col, v := range want {
		if v[0] != v[1] {
			t.Errorf("%s = %q, want %q", col, v[0], v[1])
		}
	}
}

func TestGetURLID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.SaveRun(sampleRun("abc123")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	if _, err := db.GetURLID("https://bakery.example/pricing/a"); err != nil {
		t.Errorf("GetURLID() of an intent page error = %v", err)
	}
	if _, err := db.GetURLID("https://bakery.example/never-seen"); err == nil {
		t.Error("GetURLID() with unknown URL should return error")
	}
}
