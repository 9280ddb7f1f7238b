package tune

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/llm-intent-miner/models"
	dbpkg "github.com/dtnitsch/llm-intent-miner/pkg/db"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
)

func bakeryRun(t *testing.T) Input {
	t.Helper()
	lib, err := library.Default(nil)
	require.NoError(t, err)
	return Input{
		RunID:  "run-1",
		Config: models.DefaultConfig(),
		Intents: []models.Intent{
			{
				PrimaryIntent:    "learn_and_understand",
				Confidence:       0.8,
				Keywords:         []string{"tutorial", "guide", "how to", "sourdough"},
				PageCount:        2,
				ExtractionMethod: "lda+pattern",
				Pages:            []string{"https://bakery.example/learn/a", "https://bakery.example/learn/b"},
			},
			{
				PrimaryIntent:    "topic_3",
				Confidence:       0.15,
				Keywords:         []string{"workflow", "automation", "automated", "onboarding"},
				PageCount:        1,
				ExtractionMethod: "lda",
				Pages:            []string{"https://bakery.example/tools/x"},
			},
			{
				PrimaryIntent:    "evaluate_and_purchase",
				Confidence:       0.5,
				Keywords:         []string{"pricing", "cost"},
				PageCount:        1,
				ExtractionMethod: "pattern",
				Pages:            []string{"https://bakery.example/pricing/a"},
			},
		},
		Pages: []models.Page{
			{URL: "https://bakery.example/learn/a", CleanedText: "Sourdough starter feeding schedule and sourdough hydration tutorial."},
			{URL: "https://bakery.example/learn/b", CleanedText: "Starter hydration explained in a tutorial guide."},
			{URL: "https://bakery.example/pricing/a"},
			{URL: "https://bakery.example/tools/x"},
			{URL: "https://bakery.example/about", CleanedText: "Our bakery story and the starter we keep."},
			{URL: "https://bakery.example/"},
			{URL: "https://bakery.example/news/1", Section: "blog"},
		},
		Library: lib,
	}
}

func TestAnalyzeDistributionAndGaps(t *testing.T) {
	r := Analyze(bakeryRun(t))

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 3, r.IntentCount)
	assert.Equal(t, 7, r.PagesAnalyzed)
	assert.InDelta(t, 1.45/3, r.AvgConfidence, 1e-9)
	require.Len(t, r.Distribution, 3)
	assert.Equal(t, IntentStat{Intent: "learn_and_understand", Pages: 2, Confidence: 0.8, Method: "lda+pattern"}, r.Distribution[0])

	require.Len(t, r.LowConfidence, 1)
	assert.Equal(t, "topic_3", r.LowConfidence[0].Intent)
	assert.Equal(t, []string{"https://bakery.example/pricing/a", "https://bakery.example/tools/x"}, r.WeakSignalPages)

	// tutorial, guide, how to, pricing and cost are already library patterns.
	assert.Equal(t, []string{"sourdough", "workflow", "automation", "automated", "onboarding"}, r.RareKeywords)
	assert.Equal(t, []string{"add onboarding patterns to learn_and_understand"}, r.LibraryHints)
}

func TestAnalyzeSectionCoverage(t *testing.T) {
	r := Analyze(bakeryRun(t))

	names := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		names[i] = s.Section
	}
	assert.Equal(t, []string{"about", "blog", "home", "learn", "pricing", "tools"}, names)
	assert.Equal(t, SectionStat{Section: "learn", Pages: 2, Covered: 2, IntentDiversity: 1, DominantIntent: "learn_and_understand"}, r.Sections[3])
	assert.Equal(t, []string{"about", "blog", "home"}, r.UncoveredSections)
}

func TestAnalyzeUnmatchedTerms(t *testing.T) {
	r := Analyze(bakeryRun(t))

	terms := make([]string, len(r.UnmatchedTerms))
	for i, s := range r.UnmatchedTerms {
		terms[i] = s.Term
		assert.Equal(t, "learn_and_understand", s.Intent)
		assert.Contains(t, s.Suggestion, "signal_patterns of learn_and_understand")
	}
	// sourdough is an intent keyword; the other terms occur on one page only.
	assert.ElementsMatch(t, []string{"starter", "hydration"}, terms)
}

func TestAnalyzeNewIntentTypesAndRecommendations(t *testing.T) {
	r := Analyze(bakeryRun(t))

	assert.Equal(t, []IntentType{{Name: "automate_processes", Keywords: []string{"workflow", "automation", "automated"}}}, r.NewIntentTypes)
	assert.Equal(t, []string{
		"few intents detected: consider lowering similarity_threshold (currently 0.70)",
		"3 section(s) have no intent: about, blog, home",
	}, r.Recommendations)
}

func TestAnalyzeEmptyRun(t *testing.T) {
	cfg := models.DefaultConfig()
	r := Analyze(Input{RunID: "empty", Config: cfg})

	assert.Zero(t, r.AvgConfidence)
	assert.Equal(t, []string{"no intents: consider lowering min_cluster_size (currently 3)"}, r.Recommendations)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"low_confidence":[]`)
	assert.Contains(t, string(data), `"unmatched_terms":[]`)
}

func TestRunPages(t *testing.T) {
	corpus := []models.Page{{URL: "https://bakery.example/learn/a", CleanedText: "Starter guide", Section: "docs"}}

	stored := []dbpkg.PageRecord{
		{URL: "https://bakery.example/learn/a", Section: "learn"},
		{URL: "https://bakery.example/about"},
	}
	pages := runPages(stored, nil, corpus)
	require.Len(t, pages, 2)
	assert.Equal(t, models.Page{URL: "https://bakery.example/learn/a", CleanedText: "Starter guide", Section: "learn"}, pages[0])
	assert.Equal(t, models.Page{URL: "https://bakery.example/about"}, pages[1])

	intents := []models.Intent{
		{Pages: []string{"https://bakery.example/learn/a", "https://bakery.example/learn/b"}},
		{Pages: []string{"https://bakery.example/learn/b"}},
	}
	pages = runPages(nil, intents, corpus)
	require.Len(t, pages, 2)
	assert.Equal(t, "docs", pages[0].Section)
	assert.Equal(t, "https://bakery.example/learn/b", pages[1].URL)
}

func TestRunConfig(t *testing.T) {
	cfg, err := runConfig(&dbpkg.Run{RunID: "r1", Config: `{"similarity_threshold":0.5,"extraction_method":"pattern"}`})
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.SimilarityThreshold)
	assert.Equal(t, models.ExtractionPattern, cfg.ExtractionMethod)
	assert.Equal(t, 3, cfg.MinClusterSize)

	cfg, err = runConfig(&dbpkg.Run{RunID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig().SimilarityThreshold, cfg.SimilarityThreshold)

	_, err = runConfig(&dbpkg.Run{RunID: "r3", Config: "{"})
	assert.ErrorContains(t, err, "r3")
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	PrintReport(&buf, Analyze(bakeryRun(t)))
	out := buf.String()

	assert.Contains(t, out, "Intent distribution (3 intents, 7 pages, avg confidence 0.48)")
	assert.Contains(t, out, "topic_3")
	assert.Contains(t, out, "Pages with weak signals: 2")
	assert.Contains(t, out, "main: learn_and_understand")
	assert.Contains(t, out, `add "starter" to the signal_patterns of learn_and_understand`)
	assert.Contains(t, out, "automate_processes: workflow, automation, automated")
	assert.Contains(t, out, "- few intents detected")
}
