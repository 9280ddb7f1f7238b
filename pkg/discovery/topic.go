package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/lda"
)

const (
	maxVocabulary = 500
	topicKeywords = 10
	defaultMinDF  = 2
	topicSeed     = 42
)

// TopicMethod discovers latent themes with an LDA topic model.
type TopicMethod struct {
	Topics          int
	Iterations      int
	AssignThreshold float64
	Logger          *slog.Logger
}

func (m *TopicMethod) Name() models.SourceMethod { return models.MethodTopic }

func (m *TopicMethod) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

func (m *TopicMethod) Produce(ctx context.Context, in *Input) ([]models.Candidate, error) {
	docs := make([][]string, len(in.Evidence))
	for i, ev := range in.Evidence {
		docs[i] = ev.Tokens
	}

	minDF := defaultMinDF
	if len(docs) < 2 {
		minDF = 1
	}
	vocab := in.Corpus.Vocabulary(docs, minDF, maxVocabulary)
	if len(vocab) == 0 {
		return nil, Degraded("vocabulary is empty after stop-word and document-frequency filtering")
	}
	ids := make(map[string]int, len(vocab))
	for i, term := range vocab {
		ids[term] = i
	}

	// Pages without vocabulary terms stay out of the fit and unassigned.
	var fitDocs [][]int
	var fitPages []int
	for i, doc := range docs {
		var encoded []int
		for _, term := range doc {
			if id, ok := ids[term]; ok {
				encoded = append(encoded, id)
			}
		}
		if len(encoded) > 0 {
			fitDocs = append(fitDocs, encoded)
			fitPages = append(fitPages, i)
		}
	}

	k := min(m.Topics, len(fitDocs), len(vocab))
	if k < 1 {
		return nil, Degraded("corpus too small for a topic model")
	}
	if k < m.Topics {
		m.logger().Warn("Reducing topic count for small corpus",
			"requested", m.Topics, "topics", k, "documents", len(fitDocs), "vocabulary", len(vocab))
	}

	opts := lda.DefaultOptions(k)
	opts.Seed = topicSeed
	if m.Iterations > 0 {
		opts.Iterations = m.Iterations
	}
	model, err := lda.Fit(ctx, fitDocs, len(vocab), opts)
	if err != nil {
		return nil, fmt.Errorf("fit topic model: %w", err)
	}

	assigned := make(map[int][]int)
	weights := make(map[int]map[string]float64)
	for d, page := range fitPages {
		topic, w := model.Dominant(d)
		if w <= m.AssignThreshold {
			continue
		}
		assigned[topic] = append(assigned[topic], page)
		if weights[topic] == nil {
			weights[topic] = make(map[string]float64)
		}
		weights[topic][in.Pages[page].URL] = w
	}

	topics := make([]int, 0, len(assigned))
	for t := range assigned {
		topics = append(topics, t)
	}
	sort.Ints(topics)

	var out []models.Candidate
	for _, t := range topics {
		top := model.TopWords(t, topicKeywords)
		keywords := make([]string, len(top))
		for i, id := range top {
			keywords[i] = vocab[id]
		}
		pages := assigned[t]
		out = append(out, models.Candidate{
			Method:     models.MethodTopic,
			LocalID:    fmt.Sprintf("lda:%d", t),
			Index:      t,
			Pages:      sortedURLs(in, pages),
			Keywords:   keywords,
			Phrases:    pickPhrases(termPhrases(in, pages, keywords), MaxPhrases),
			PageScores: weights[t],
		})
	}
	return out, nil
}
