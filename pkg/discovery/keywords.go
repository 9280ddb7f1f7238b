package discovery

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/mapreduce"
)

// KeywordMethod maps pages to configured custom keyword categories. A page
// belongs to a category when it contains at least one of its keywords; its
// score is the fraction of the category's keywords it contains.
type KeywordMethod struct {
	Categories map[string][]string
}

func (m *KeywordMethod) Name() models.SourceMethod { return models.MethodKeywords }

type keywordPattern struct {
	term string
	re   *regexp.Regexp
}

func (m *KeywordMethod) Produce(ctx context.Context, in *Input) ([]models.Candidate, error) {
	if len(m.Categories) == 0 {
		return nil, Degraded("no custom keyword categories configured")
	}

	names := make([]string, 0, len(m.Categories))
	for name := range m.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []models.Candidate
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		patterns := compileKeywords(m.Categories[name])
		if len(patterns) == 0 {
			continue
		}

		var members []int
		scores := make(map[string]float64)
		counts := make(map[string]float64)
		for i, ev := range in.Evidence {
			matched := 0
			for _, p := range patterns {
				if n := len(p.re.FindAllStringIndex(ev.Text, -1)); n > 0 {
					matched++
					counts[p.term] += float64(n)
				}
			}
			if matched == 0 {
				continue
			}
			members = append(members, i)
			scores[ev.URL] = float64(matched) / float64(len(patterns))
		}
		if len(members) == 0 {
			continue
		}

		keywords := mapreduce.RankWeighted(counts, MaxKeywords)
		out = append(out, models.Candidate{
			Method:     models.MethodKeywords,
			LocalID:    "keywords:" + name,
			Label:      name,
			Index:      -1,
			Pages:      sortedURLs(in, members),
			Keywords:   keywords,
			Phrases:    pickPhrases(m.phrases(in, members, patterns), MaxPhrases),
			PageScores: scores,
		})
	}
	return out, nil
}

func compileKeywords(keywords []string) []keywordPattern {
	seen := make(map[string]struct{})
	var out []keywordPattern
	for _, kw := range keywords {
		term := strings.ToLower(strings.TrimSpace(kw))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, keywordPattern{
			term: term,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return out
}

func (m *KeywordMethod) phrases(in *Input, members []int, patterns []keywordPattern) []scoredPhrase {
	var out []scoredPhrase
	order := 0
	for _, idx := range members {
		for _, s := range in.Evidence[idx].Sentences {
			n := 0
			for _, p := range patterns {
				if p.re.MatchString(s.Text) {
					n++
				}
			}
			out = append(out, scoredPhrase{text: s.Text, score: float64(n), order: order})
			order++
		}
	}
	return out
}
