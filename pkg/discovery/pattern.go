package discovery

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
	"github.com/dtnitsch/llm-intent-miner/pkg/mapreduce"
)

const (
	// hitsForFullScore hits per scoreUnitWords of text give a score of 1.
	hitsForFullScore = 10.0
	scoreUnitWords   = 250.0
	// StrongScore is the page score above which a match counts as strong.
	StrongScore = 0.2
)

// PatternMethod scores every page against every definition of a library.
type PatternMethod struct {
	Library       *library.Library
	MinConfidence float64
	MaxPerPage    int
}

func (m *PatternMethod) Name() models.SourceMethod { return models.MethodPattern }

type pageHits struct {
	count int
	terms map[string]int
}

// hitsByDefinition groups a page's keyword matches by definition name.
func hitsByDefinition(matches []models.Match) map[string]*pageHits {
	out := make(map[string]*pageHits)
	for _, mt := range matches {
		cut := strings.LastIndex(mt.PatternID, "#")
		if cut < 0 {
			continue
		}
		name := mt.PatternID[:cut]
		h, ok := out[name]
		if !ok {
			h = &pageHits{terms: make(map[string]int)}
			out[name] = h
		}
		h.count++
		h.terms[mt.Text]++
	}
	return out
}

// Score returns the page score of one definition: weighted hits divided by
// text length in 250-word units, plus the definition's boosts, clipped to
// [0, 1]. Zero hits always score 0.
func Score(def *library.Compiled, hits, words int, text string, painSignals int) float64 {
	if hits == 0 {
		return 0
	}
	units := math.Max(1, float64(words)/scoreUnitWords)
	score := float64(hits) / (hitsForFullScore * units)
	if def.Boost > 0 && def.HasBoost(text) {
		score += def.Boost
	}
	if def.PainBoost > 0 && painSignals > 0 {
		score += def.PainBoost
	}
	return math.Min(1, math.Max(0, score))
}

func (m *PatternMethod) Produce(ctx context.Context, in *Input) ([]models.Candidate, error) {
	if m.Library == nil || len(m.Library.Definitions) == 0 {
		return nil, Degraded("intent definition library is empty")
	}
	maxPerPage := m.MaxPerPage
	if maxPerPage < 1 {
		maxPerPage = 1
	}

	type membership struct {
		pages  []int
		scores map[string]float64
		terms  map[string]float64
	}
	members := make(map[string]*membership)

	for i, ev := range in.Evidence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		byDef := hitsByDefinition(ev.Signals[models.SignalKeyword])
		pain := ev.Signals.Count(models.SignalPain)

		type scored struct {
			def   *library.Compiled
			order int
			score float64
		}
		var page []scored
		for order, def := range m.Library.Definitions {
			h := byDef[def.Name]
			if h == nil {
				continue
			}
			s := Score(def, h.count, ev.WordCount, ev.Text, pain)
			if s > 0 && s > m.MinConfidence {
				page = append(page, scored{def: def, order: order, score: s})
			}
		}
		sort.SliceStable(page, func(a, b int) bool {
			if page[a].score != page[b].score {
				return page[a].score > page[b].score
			}
			return page[a].order < page[b].order
		})
		if len(page) > maxPerPage {
			page = page[:maxPerPage]
		}

		for _, s := range page {
			mem, ok := members[s.def.Name]
			if !ok {
				mem = &membership{scores: make(map[string]float64), terms: make(map[string]float64)}
				members[s.def.Name] = mem
			}
			mem.pages = append(mem.pages, i)
			mem.scores[ev.URL] = s.score
			for term, n := range byDef[s.def.Name].terms {
				mem.terms[term] += float64(n)
			}
		}
	}

	var out []models.Candidate
	for _, def := range m.Library.Definitions {
		mem, ok := members[def.Name]
		if !ok {
			continue
		}
		out = append(out, models.Candidate{
			Method:     models.MethodPattern,
			LocalID:    "pattern:" + def.Name,
			Label:      def.Name,
			Index:      -1,
			Pages:      sortedURLs(in, mem.pages),
			Keywords:   mapreduce.RankWeighted(mem.terms, MaxKeywords),
			Phrases:    pickPhrases(m.matchPhrases(in, mem.pages, def.Name), MaxPhrases),
			PageScores: mem.scores,
		})
	}
	return out, nil
}

// matchPhrases scores member sentences by the definition hits inside them.
func (m *PatternMethod) matchPhrases(in *Input, pages []int, defName string) []scoredPhrase {
	var out []scoredPhrase
	order := 0
	for _, idx := range pages {
		ev := in.Evidence[idx]
		for _, s := range ev.Sentences {
			n := ev.HitsIn(models.SignalKeyword, defName+"#", s.Start, s.Start+len(s.Text))
			out = append(out, scoredPhrase{text: s.Text, score: float64(n), order: order})
			order++
		}
	}
	return out
}
