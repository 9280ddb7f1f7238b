package merge

import (
	"fmt"
	"testing"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(method models.SourceMethod, id string, keywords []string, pages ...string) models.Candidate {
	scores := make(map[string]float64, len(pages))
	for _, p := range pages {
		scores[p] = 0.5
	}
	return models.Candidate{
		Method:     method,
		LocalID:    id,
		Index:      -1,
		Pages:      pages,
		Keywords:   keywords,
		Phrases:    []string{id + " phrase"},
		PageScores: scores,
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 0.5, Similarity([]string{"a", "b", "c"}, []string{"B", "c", "d"}), 1e-9)
	assert.Equal(t, 1.0, Similarity([]string{"Pricing"}, []string{" pricing "}))
	assert.Equal(t, 0.0, Similarity(nil, nil))
	assert.Equal(t, 0.0, Similarity([]string{"a"}, nil))
}

func TestMergeLinksSimilarCandidates(t *testing.T) {
	cands := []models.Candidate{
		cand(models.MethodPattern, "pattern:learn", []string{"tutorial", "guide", "how to"}, "u1", "u2", "u3"),
		cand(models.MethodTopic, "lda:0", []string{"guide", "tutorial", "how to"}, "u2", "u3", "u4"),
		cand(models.MethodPattern, "pattern:buy", []string{"pricing", "cost"}, "u5", "u6", "u7"),
	}

	groups := Merge(cands, Options{SimilarityThreshold: 0.7, MinClusterSize: 3})
	require.Len(t, groups, 2)

	learn := groups[0]
	assert.Equal(t, "lda+pattern", learn.Provenance)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, learn.Pages)
	assert.Len(t, learn.Candidates, 2)
	assert.ElementsMatch(t, []string{"tutorial", "guide", "how to"}, learn.Keywords)
	assert.Equal(t, "guide", learn.Keywords[0], "highest combined rank weight first")

	buy := groups[1]
	assert.Equal(t, "pattern", buy.Provenance)
	assert.Equal(t, cands[2].Keywords, buy.Keywords)
	assert.Equal(t, cands[2].Phrases, buy.Phrases)
}

func TestMergeSingleCandidatePassesThrough(t *testing.T) {
	c := cand(models.MethodEmbedding, "embedding:0", []string{"flour", "oven", "dough"}, "u1", "u2", "u3")
	groups := Merge([]models.Candidate{c}, Options{SimilarityThreshold: 0.7, MinClusterSize: 1})
	require.Len(t, groups, 1)
	assert.Equal(t, []models.Candidate{c}, groups[0].Candidates)
	assert.Equal(t, c.Pages, groups[0].Pages)
	assert.Equal(t, c.Keywords, groups[0].Keywords)
}

func TestMergeDropsSmallGroups(t *testing.T) {
	cands := []models.Candidate{
		cand(models.MethodPattern, "pattern:small", []string{"oven"}, "u1", "u2"),
		cand(models.MethodKeywords, "keywords:wholesale", []string{"wholesale"}, "u3"),
	}

	groups := Merge(cands, Options{SimilarityThreshold: 0.7, MinClusterSize: 3})
	assert.Empty(t, groups)

	groups = Merge(cands, Options{SimilarityThreshold: 0.7, MinClusterSize: 3, FallbackKeywords: true})
	require.Len(t, groups, 1)
	assert.Equal(t, "keywords", groups[0].Provenance)
}

func TestMergeNoDuplicatePairsAboveThreshold(t *testing.T) {
	cands := []models.Candidate{
		cand(models.MethodPattern, "a", []string{"a", "b", "c"}, "u1", "u2", "u3"),
		cand(models.MethodTopic, "b", []string{"b", "c", "d"}, "u3", "u4", "u5"),
		cand(models.MethodTopic, "c", []string{"c", "d", "e"}, "u5", "u6", "u7"),
		cand(models.MethodEmbedding, "d", []string{"x", "y", "z"}, "u8", "u9", "u10"),
	}

	groups := Merge(cands, Options{SimilarityThreshold: 0.5, MinClusterSize: 1})
	require.Len(t, groups, 2, "chained candidates collapse into one group")
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			assert.Less(t, Similarity(groups[i].Keywords, groups[j].Keywords), 0.5)
		}
	}
}

func toIntents(groups []Group) []models.Intent {
	intents := make([]models.Intent, len(groups))
	for i, g := range groups {
		intents[i] = models.Intent{
			PrimaryIntent:         fmt.Sprintf("intent_%d", i),
			Confidence:            scoring.Confidence(g.Candidates),
			Keywords:              g.Keywords,
			RepresentativePhrases: g.Phrases,
			PageCount:             len(g.Pages),
			ExtractionMethod:      g.Provenance,
			Pages:                 g.Pages,
			MethodScores:          scoring.MethodScores(g.Candidates),
		}
	}
	return intents
}

func TestMergeIsIdempotent(t *testing.T) {
	cands := []models.Candidate{
		cand(models.MethodPattern, "pattern:learn", []string{"tutorial", "guide", "how to"}, "u1", "u2", "u3"),
		cand(models.MethodTopic, "lda:0", []string{"guide", "tutorial", "how to", "bread"}, "u2", "u3", "u4"),
		cand(models.MethodEmbedding, "embedding:0", []string{"tutorial", "bread", "guide"}, "u1", "u4"),
		cand(models.MethodPattern, "pattern:buy", []string{"pricing", "cost"}, "u5", "u6", "u7"),
		cand(models.MethodKeywords, "keywords:wholesale", []string{"wholesale", "flour"}, "u7"),
	}
	opts := Options{SimilarityThreshold: 0.6, MinClusterSize: 3, FallbackKeywords: true}

	first := Merge(cands, opts)
	require.NotEmpty(t, first)
	intents := toIntents(first)

	second := Merge(FromIntents(intents), opts)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Pages, second[i].Pages)
		assert.Equal(t, first[i].Keywords, second[i].Keywords)
		assert.Equal(t, first[i].Phrases, second[i].Phrases)
		assert.Equal(t, first[i].Provenance, second[i].Provenance)
		assert.Equal(t, intents[i].Confidence, scoring.Confidence(second[i].Candidates))
	}
}

func TestFromIntentsWithoutMethodScores(t *testing.T) {
	cands := FromIntents([]models.Intent{{
		PrimaryIntent:    "learn_and_understand",
		Confidence:       0.8,
		Keywords:         []string{"guide"},
		ExtractionMethod: "lda+pattern",
		Pages:            []string{"u1", "u2"},
	}})
	require.Len(t, cands, 2)
	assert.Equal(t, models.MethodTopic, cands[0].Method)
	assert.Equal(t, models.MethodPattern, cands[1].Method)
	assert.Equal(t, "learn_and_understand", cands[1].Label)
	assert.Equal(t, 0.8, cands[0].PageScores["u2"])
	assert.Equal(t, 0.8, cands[0].FixedConfidence)
}

func TestFromIntentsCarriesUnreproducibleConfidence(t *testing.T) {
	exact := models.Intent{
		PrimaryIntent: "learn_and_understand",
		Confidence:    0.5,
		Pages:         []string{"u1", "u2"},
		MethodScores:  map[models.SourceMethod]map[string]float64{models.MethodPattern: {"u1": 0.5, "u2": 0.5}},
	}
	cands := FromIntents([]models.Intent{exact})
	require.Len(t, cands, 1)
	assert.Zero(t, cands[0].FixedConfidence, "scores reproduce the confidence")

	weak := exact
	weak.PrimaryIntent = "find_hours"
	weak.Confidence = 0.15
	weak.MethodScores = map[models.SourceMethod]map[string]float64{models.MethodPattern: {"u1": 0.15, "u2": 0.15}}
	cands = FromIntents([]models.Intent{weak})
	require.Len(t, cands, 1)
	assert.Equal(t, 0.15, cands[0].FixedConfidence)
	assert.Equal(t, 0.15, scoring.Confidence(cands))
}

func TestMergeExactThresholdKeepsDifferentSetsApart(t *testing.T) {
	cands := []models.Candidate{
		cand(models.MethodPattern, "pattern:buy", []string{"pricing", "cost", "plans"}, "u1", "u2", "u3"),
		cand(models.MethodTopic, "lda:0", []string{"pricing", "cost", "plans", "quote"}, "u1", "u2", "u3"),
		cand(models.MethodTopic, "lda:1", []string{"pricing", "cost"}, "u1", "u2", "u3"),
		cand(models.MethodEmbedding, "embedding:0", []string{"flour", "oven", "dough"}, "u4", "u5", "u6"),
		cand(models.MethodKeywords, "keywords:bake", []string{"Dough", "oven", "FLOUR"}, "u7", "u8", "u9"),
	}

	groups := Merge(cands, Options{SimilarityThreshold: 1.0, MinClusterSize: 1})
	require.Len(t, groups, 4)
	var merged []Group
	for _, g := range groups {
		if len(g.Candidates) > 1 {
			merged = append(merged, g)
		}
	}
	require.Len(t, merged, 1, "only the identical keyword sets merge")
	assert.Equal(t, "embedding+keywords", merged[0].Provenance)
	assert.Equal(t, []string{"u4", "u5", "u6", "u7", "u8", "u9"}, merged[0].Pages)
}

func TestMergeIdenticalKeywordsAcrossMethods(t *testing.T) {
	keywords := []string{"wedding", "cake", "tasting"}
	for _, threshold := range []float64{0.3, 0.7, 1.0} {
		t.Run(fmt.Sprint(threshold), func(t *testing.T) {
			cands := []models.Candidate{
				cand(models.MethodPattern, "pattern:order", keywords, "u1", "u2"),
				cand(models.MethodTopic, "lda:3", []string{"tasting", "wedding", "cake"}, "u3", "u4"),
				cand(models.MethodEmbedding, "embedding:1", keywords, "u5"),
			}
			groups := Merge(cands, Options{SimilarityThreshold: threshold, MinClusterSize: 1})
			require.Len(t, groups, 1)
			assert.Equal(t, "embedding+lda+pattern", groups[0].Provenance)
			assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5"}, groups[0].Pages)
		})
	}
}
