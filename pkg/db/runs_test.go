package db

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/llm-intent-miner/models"
)

func sampleRun(fingerprint string) NewRun {
	return NewRun{
		Fingerprint:      fingerprint,
		ExtractionMethod: "hybrid",
		Config:           `{"extraction_method":"hybrid"}`,
		PagesAnalyzed:    10,
		PagesSkipped:     1,
		Methods: []MethodRecord{
			{Method: "pattern", Status: "ok", Candidates: 2, Duration: 15 * time.Millisecond},
			{Method: "lda", Status: "ok", Candidates: 3, Duration: 120 * time.Millisecond},
			{Method: "embedding", Status: "degraded", Reason: "no embeddings_model configured"},
		},
		Intents: []models.Intent{
			{
				PrimaryIntent:         "learn_and_understand",
				DisplayLabel:          "Learn And Understand",
				Confidence:            0.82,
				Keywords:              []string{"tutorial", "guide"},
				RepresentativePhrases: []string{"How to bake sourdough bread: a tutorial guide."},
				PageCount:             2,
				ExtractionMethod:      "lda+pattern",
				Pages:                 []string{"https://bakery.example/learn/b", "https://bakery.example/learn/a"},
			},
			{
				PrimaryIntent:         "evaluate_and_purchase",
				Confidence:            0.5,
				Keywords:              []string{"pricing"},
				RepresentativePhrases: []string{},
				PageCount:             1,
				ExtractionMethod:      "pattern",
				Pages:                 []string{"https://bakery.example/pricing/a"},
			},
		},
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runID, err := db.SaveRun(sampleRun("abc123"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if len(runID) != 36 {
		t.Errorf("SaveRun() run id = %q, want a uuid", runID)
	}

	run, err := db.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.IntentCount != 2 {
		t.Errorf("run.IntentCount = %d, want 2", run.IntentCount)
	}
	if run.DegradedCount != 1 {
		t.Errorf("run.DegradedCount = %d, want 1", run.DegradedCount)
	}
	if run.PagesAnalyzed != 10 || run.PagesSkipped != 1 {
		t.Errorf("run pages = %d/%d, want 10/1", run.PagesAnalyzed, run.PagesSkipped)
	}

	methods, err := db.GetRunMethods(runID)
	if err != nil {
		t.Fatalf("GetRunMethods() error = %v", err)
	}
	if len(methods) != 3 {
		t.Fatalf("GetRunMethods() returned %d methods, want 3", len(methods))
	}
	if methods[1].Duration != 120*time.Millisecond {
		t.Errorf("lda duration = %v, want 120ms", methods[1].Duration)
	}
	if methods[2].Reason != "no embeddings_model configured" {
		t.Errorf("embedding reason = %q", methods[2].Reason)
	}

	intents, err := db.GetRunIntents(runID)
	if err != nil {
		t.Fatalf("GetRunIntents() error = %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("GetRunIntents() returned %d intents, want 2", len(intents))
	}
	learn := intents[0]
	if learn.PrimaryIntent != "learn_and_understand" || learn.DisplayLabel != "Learn And Understand" {
		t.Errorf("first intent = %q (%q)", learn.PrimaryIntent, learn.DisplayLabel)
	}
	wantPages := []string{"https://bakery.example/learn/a", "https://bakery.example/learn/b"}
	if !reflect.DeepEqual(learn.Pages, wantPages) {
		t.Errorf("learn.Pages = %v, want %v", learn.Pages, wantPages)
	}
	if !reflect.DeepEqual(learn.Keywords, []string{"tutorial", "guide"}) {
		t.Errorf("learn.Keywords = %v", learn.Keywords)
	}
	if intents[1].RepresentativePhrases == nil || len(intents[1].RepresentativePhrases) != 0 {
		t.Errorf("empty phrases should decode to an empty list, got %v", intents[1].RepresentativePhrases)
	}
}

func TestSaveRun_Pages(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run := sampleRun("abc123")
	run.Pages = []PageRecord{
		{URL: "https://bakery.example/pricing/a", Section: "pricing"},
		{URL: "https://bakery.example/learn/a", Section: "learn"},
		{URL: "https://bakery.example/about"},
	}
	runID, err := db.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	pages, err := db.GetRunPages(runID)
	if err != nil {
		t.Fatalf("GetRunPages() error = %v", err)
	}
	want := []PageRecord{
		{URL: "https://bakery.example/about"},
		{URL: "https://bakery.example/learn/a", Section: "learn"},
		{URL: "https://bakery.example/pricing/a", Section: "pricing"},
	}
	if !reflect.DeepEqual(pages, want) {
		t.Errorf("GetRunPages() = %v, want %v", pages, want)
	}

	none, err := db.GetRunPages("missing")
	if err != nil {
		t.Fatalf("GetRunPages() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("GetRunPages(missing) = %v, want none", none)
	}
}

func TestResolveRunID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runID, err := db.SaveRun(sampleRun("abc123"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.ResolveRunID(runID[:8])
	if err != nil {
		t.Fatalf("ResolveRunID() error = %v", err)
	}
	if got != runID {
		t.Errorf("ResolveRunID() = %q, want %q", got, runID)
	}

	if _, err := db.ResolveRunID("zzzz"); err == nil {
		t.Error("ResolveRunID() with unknown prefix should return error")
	}
	if _, err := db.ResolveRunID(""); err == nil {
		t.Error("ResolveRunID() with empty prefix should return error")
	}
}

func TestListAndQueryRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	clean := sampleRun("clean")
	clean.Methods = clean.Methods[:2]
	clean.Intents = clean.Intents[1:]
	cleanID, err := db.SaveRun(clean)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	degradedID, err := db.SaveRun(sampleRun("degraded"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].RunID != degradedID {
		t.Errorf("ListRuns()[0] = %s, want most recent %s", runs[0].RunID, degradedID)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListRuns(1) returned %d runs", len(limited))
	}

	degraded, err := db.QueryRuns(false, true, "")
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	if len(degraded) != 1 || degraded[0].RunID != degradedID {
		t.Errorf("QueryRuns(degradedOnly) = %v, want only %s", degraded, degradedID)
	}

	byURL, err := db.QueryRuns(true, false, "/learn/")
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	if len(byURL) != 1 || byURL[0].RunID != degradedID {
		t.Errorf("QueryRuns(url) = %v, want only %s", byURL, degradedID)
	}

	all, err := db.QueryRuns(false, false, "pricing")
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.RunID
	}
	if !strings.Contains(strings.Join(ids, ","), cleanID) || len(all) != 2 {
		t.Errorf("QueryRuns(pricing) = %v, want both runs", ids)
	}
}

func TestFindRecentRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, found, err := db.FindRecentRun("abc123", time.Hour); err != nil || found {
		t.Fatalf("FindRecentRun() on empty db = found %v, err %v", found, err)
	}

	runID, err := db.SaveRun(sampleRun("abc123"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	run, found, err := db.FindRecentRun("abc123", time.Hour)
	if err != nil {
		t.Fatalf("FindRecentRun() error = %v", err)
	}
	if !found || run.RunID != runID {
		t.Errorf("FindRecentRun() = %v, %v; want %s", run, found, runID)
	}

	if _, found, _ := db.FindRecentRun("abc123", 0); !found {
		t.Error("FindRecentRun() with maxAge 0 should never go stale")
	}

	if _, err := db.Exec(`UPDATE runs SET created_at = datetime('now', '-2 hours') WHERE run_id = ?`, runID); err != nil {
		t.Fatalf("failed to age run: %v", err)
	}
	if _, found, _ := db.FindRecentRun("abc123", time.Hour); found {
		t.Error("FindRecentRun() returned a stale run as fresh")
	}
}

func TestGetURLIntents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runID, err := db.SaveRun(sampleRun("abc123"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.GetURLIntents("https://bakery.example/learn/a")
	if err != nil {
		t.Fatalf("GetURLIntents() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GetURLIntents() returned %d rows, want 1", len(got))
	}
	if got[0].RunID != runID || got[0].Intent != "learn_and_understand" || got[0].Confidence != 0.82 {
		t.Errorf("GetURLIntents() = %+v", got[0])
	}
}
