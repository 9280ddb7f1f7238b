package manifest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/engine"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Pages: []models.Page{
			{URL: "https://bakery.example/learn/a", Title: "Sourdough", CleanedText: "Sourdough tutorial guide. Sourdough starter."},
			{URL: "https://bakery.example/learn/b", CleanedText: "Baguette tutorial guide."},
			{URL: "https://bakery.example/", Section: "Landing", CleanedText: "Welcome to the bakery, see pricing."},
		},
		Intents: []models.Intent{
			{
				PrimaryIntent:    "learn_and_understand",
				DisplayLabel:     "Learn And Understand",
				Confidence:       0.9,
				Keywords:         []string{"tutorial", "guide", "how to", "step by step", "learn", "basics"},
				PageCount:        2,
				ExtractionMethod: "lda+pattern",
				Pages:            []string{"https://bakery.example/learn/a", "https://bakery.example/learn/b"},
			},
			{
				PrimaryIntent:    "topic_3",
				DisplayLabel:     "Topic 3",
				Confidence:       0.4,
				Keywords:         []string{"pricing"},
				PageCount:        1,
				ExtractionMethod: "lda",
				Pages:            []string{"https://bakery.example/"},
			},
		},
		Methods: []engine.MethodReport{
			{Method: models.MethodPattern, Status: engine.StatusOK, Candidates: 1},
			{Method: models.MethodTopic, Status: engine.StatusOK, Candidates: 2},
			{Method: models.MethodEmbedding, Status: engine.StatusDegraded, Reason: "no embeddings_model configured"},
		},
		Skipped: []engine.SkippedPage{{URL: "https://bakery.example/tiny", Reason: "text too short"}},
	}
}

func TestGenerate(t *testing.T) {
	lib, err := library.Default(nil)
	require.NoError(t, err)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	m := Generate(sampleResult(), lib, "run-1", now)

	assert.Equal(t, "2026-01-15T10:00:00Z", m.GeneratedAt)
	assert.Equal(t, 3, m.TotalPagesAnalyzed)
	assert.Equal(t, 1, m.TotalPagesSkipped)
	assert.Equal(t, 2, m.TotalIntentsDiscovered)
	assert.Equal(t, []string{"pattern", "lda"}, m.ExtractionMethodsUsed)
	assert.Equal(t, "bakery.example", m.Site.Domain)

	require.NotEmpty(t, m.AggregateKeywords)
	assert.Equal(t, "sourdough:3", m.AggregateKeywords[0])
	assert.Contains(t, m.AggregateKeywords, "tutorial:2")

	require.Len(t, m.Intents, 2)
	assert.Equal(t, "Visitors acquiring knowledge or skills", m.Intents[0].Description)
	assert.Contains(t, m.Intents[0].UserGoals, "acquire new skills")
	assert.Empty(t, m.Intents[1].UserGoals)

	require.Len(t, m.BySection["learn"], 2)
	entry := m.BySection["learn"][0]
	assert.Equal(t, "learn_and_understand", entry.Intent)
	assert.Equal(t, "Sourdough", entry.PageTitle)
	assert.Len(t, entry.Keywords, 5)
	assert.Len(t, m.BySection["landing"], 1, "explicit section wins over the url")
}

func TestGenerateEmptyRun(t *testing.T) {
	m := Generate(&engine.Result{Intents: []models.Intent{}}, nil, "", time.Now())
	assert.Zero(t, m.TotalPagesAnalyzed)
	assert.NotNil(t, m.Intents)
	assert.NotNil(t, m.BySection)
	assert.NotNil(t, m.ExtractionMethodsUsed)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	m := Generate(sampleResult(), nil, "run-1", time.Now())
	s := &storage.Storage{}

	require.NoError(t, Save(path, m, s))
	data, err := s.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_intents_discovered: 2")
	assert.Contains(t, string(data), "by_section:")
}
