package manifest

import (
	"time"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
	"github.com/dtnitsch/llm-intent-miner/pkg/detector"
	"github.com/dtnitsch/llm-intent-miner/pkg/engine"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
	"github.com/dtnitsch/llm-intent-miner/pkg/mapreduce"
	"github.com/dtnitsch/llm-intent-miner/pkg/storage"
)

const (
	aggregateKeywordCount = 25
	sectionKeywordCount   = 5
)

// Generate builds the manifest of a finished run. lib may be nil.
func Generate(res *engine.Result, lib *library.Library, runID string, now time.Time) *RunManifest {
	m := &RunManifest{
		GeneratedAt:            now.Format(time.RFC3339),
		RunID:                  runID,
		TotalPagesAnalyzed:     res.PagesAnalyzed(),
		TotalPagesSkipped:      len(res.Skipped),
		TotalIntentsDiscovered: len(res.Intents),
		ExtractionMethodsUsed:  []string{},
		Methods:                res.Methods,
		Intents:                []IntentSummary{},
		BySection:              map[string][]SectionEntry{},
		Skipped:                res.Skipped,
	}
	for _, meth := range res.MethodsUsed() {
		m.ExtractionMethodsUsed = append(m.ExtractionMethodsUsed, string(meth))
	}

	pages := make(map[string]models.Page, len(res.Pages))
	a := &analytics.Analytics{}
	intermediate := make([]map[string]int, 0, len(res.Pages))
	for _, p := range res.Pages {
		pages[p.URL] = p
		intermediate = append(intermediate, mapreduce.Map(p.FullText(), a))
	}
	m.AggregateKeywords = mapreduce.TopKeywords(mapreduce.Reduce(intermediate), aggregateKeywordCount)
	if len(res.Pages) > 0 {
		m.Site = detector.Classify(res.Pages[0].URL)
	}

	for _, in := range res.Intents {
		m.Intents = append(m.Intents, summarize(in, lib))

		keywords := in.Keywords
		if len(keywords) > sectionKeywordCount {
			keywords = keywords[:sectionKeywordCount]
		}
		for _, url := range in.Pages {
			page := pages[url]
			section := detector.Section(page.Section, url)
			m.BySection[section] = append(m.BySection[section], SectionEntry{
				Intent:     in.PrimaryIntent,
				Confidence: in.Confidence,
				Keywords:   keywords,
				PageURL:    url,
				PageTitle:  page.Title,
			})
		}
	}
	return m
}

func summarize(in models.Intent, lib *library.Library) IntentSummary {
	s := IntentSummary{
		PrimaryIntent:    in.PrimaryIntent,
		DisplayLabel:     in.DisplayLabel,
		Confidence:       in.Confidence,
		PageCount:        in.PageCount,
		ExtractionMethod: in.ExtractionMethod,
	}
	if lib != nil {
		if def, ok := lib.Lookup(in.PrimaryIntent); ok {
			s.Description = def.Description
			s.UserGoals = def.UserGoals
			s.PainPoints = def.PainPoints
		}
	}
	return s
}

// Save writes the manifest as JSON or YAML depending on the path extension.
func Save(path string, m *RunManifest, s *storage.Storage) error {
	return s.SaveEncoded(path, m)
}
