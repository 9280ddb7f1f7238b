package discovery

import (
	"context"
	"fmt"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
	"github.com/dtnitsch/llm-intent-miner/pkg/dbscan"
	"github.com/dtnitsch/llm-intent-miner/pkg/embed"
	"github.com/dtnitsch/llm-intent-miner/pkg/mapreduce"
)

const (
	// MaxEmbedRunes bounds the text sent to the embedding provider.
	MaxEmbedRunes     = 2000
	clusterKeywords   = 10
	defaultMinSamples = 2
)

// EmbeddingMethod clusters page embeddings with DBSCAN over cosine distance.
type EmbeddingMethod struct {
	Embedder   embed.Embedder
	Eps        float64
	MinSamples int // 0 = max(2, 5% of pages)
}

func (m *EmbeddingMethod) Name() models.SourceMethod { return models.MethodEmbedding }

func (m *EmbeddingMethod) minSamples(n int) int {
	if m.MinSamples > 0 {
		return m.MinSamples
	}
	return max(defaultMinSamples, n*5/100)
}

func (m *EmbeddingMethod) Produce(ctx context.Context, in *Input) ([]models.Candidate, error) {
	if m.Embedder == nil {
		return nil, Degraded("no embeddings_model configured")
	}
	if !m.Embedder.Available() {
		return nil, Degraded("embedding provider is unavailable")
	}

	texts := make([]string, len(in.Evidence))
	for i, ev := range in.Evidence {
		texts[i] = truncate(ev.Text, MaxEmbedRunes)
	}
	vecs, err := embed.EmbedAll(ctx, m.Embedder, texts)
	if err != nil {
		return nil, Degraded(fmt.Sprintf("embedding failed: %v", err))
	}
	if len(vecs) != len(texts) {
		return nil, Degraded(fmt.Sprintf("embedding provider returned %d vectors for %d pages", len(vecs), len(texts)))
	}

	points := make([][]float64, len(vecs))
	for i, v := range vecs {
		points[i] = make([]float64, len(v))
		for j, x := range v {
			points[i][j] = float64(x)
		}
	}

	labels, err := dbscan.Cluster(ctx, points, m.Eps, m.minSamples(len(points)), embed.CosineDistance)
	if err != nil {
		return nil, err
	}

	var out []models.Candidate
	for c, members := range dbscan.Groups(labels) {
		if len(members) == 0 {
			continue
		}
		centroid := mean(points, members)
		scores := make(map[string]float64, len(members))
		closest, best := members[0], 3.0
		for _, idx := range members {
			d := embed.CosineDistance(points[idx], centroid)
			scores[in.Pages[idx].URL] = 1 - d/2
			if d < best {
				closest, best = idx, d
			}
		}

		keywords := m.clusterKeywords(in, members)
		// Phrases come from the most central page first.
		ordered := append([]int{closest}, without(members, closest)...)
		out = append(out, models.Candidate{
			Method:     models.MethodEmbedding,
			LocalID:    fmt.Sprintf("embedding:%d", c),
			Index:      c,
			Pages:      sortedURLs(in, members),
			Keywords:   keywords,
			Phrases:    pickPhrases(termPhrases(in, ordered, keywords), MaxPhrases),
			PageScores: scores,
		})
	}
	return out, nil
}

// clusterKeywords ranks terms by cluster term frequency times corpus IDF.
func (m *EmbeddingMethod) clusterKeywords(in *Input, members []int) []string {
	counts := make([]map[string]int, len(members))
	for i, idx := range members {
		counts[i] = analytics.TermCounts(in.Evidence[idx].Tokens)
	}
	tf := mapreduce.Reduce(counts)
	weights := make(map[string]float64, len(tf))
	for term, n := range tf {
		weights[term] = float64(n) * in.Corpus.IDF(term)
	}
	return mapreduce.RankWeighted(weights, clusterKeywords)
}

func mean(points [][]float64, members []int) []float64 {
	c := make([]float64, len(points[members[0]]))
	for _, idx := range members {
		for j, x := range points[idx] {
			c[j] += x
		}
	}
	for j := range c {
		c[j] /= float64(len(members))
	}
	return c
}

func without(list []int, drop int) []int {
	out := make([]int, 0, len(list))
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
