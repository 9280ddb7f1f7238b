// Package tune inspects a finished run and suggests changes to the intent
// library and the merge thresholds.
package tune

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
	"github.com/dtnitsch/llm-intent-miner/pkg/detector"
	"github.com/dtnitsch/llm-intent-miner/pkg/library"
)

const (
	// LowConfidence marks intents worth reviewing.
	LowConfidence = 0.3
	// WeakConfidence marks intents whose pages likely lack signals.
	WeakConfidence = 0.2
	// MinKeywords is the keyword count below which an intent is weak.
	MinKeywords = 3
	// MisfitConfidence bounds the intents whose keywords feed new type
	// suggestions.
	MisfitConfidence = 0.4

	maxRareKeywords   = 20
	maxUnmatchedTerms = 20
	minThemeKeywords  = 3
	fewIntents        = 5
	manyIntents       = 15
)

// Input is a stored run plus what is known about its pages.
type Input struct {
	RunID   string
	Config  models.Config
	Intents []models.Intent
	// Pages are the analyzed pages. CleanedText is optional; without it no
	// unmatched terms are reported.
	Pages   []models.Page
	Library *library.Library
}

type IntentStat struct {
	Intent     string  `json:"intent" yaml:"intent"`
	Pages      int     `json:"pages" yaml:"pages"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Method     string  `json:"method" yaml:"method"`
}

type SectionStat struct {
	Section         string `json:"section" yaml:"section"`
	Pages           int    `json:"pages" yaml:"pages"`
	Covered         int    `json:"covered" yaml:"covered"`
	IntentDiversity int    `json:"intent_diversity" yaml:"intent_diversity"`
	DominantIntent  string `json:"dominant_intent,omitempty" yaml:"dominant_intent,omitempty"`
}

// TermSuggestion is a frequent page term no definition pattern matches.
type TermSuggestion struct {
	Term string `json:"term" yaml:"term"`
	// Intent is the intent whose pages use the term most, if any.
	Intent     string `json:"intent,omitempty" yaml:"intent,omitempty"`
	Suggestion string `json:"suggestion" yaml:"suggestion"`
}

// IntentType is a proposed new definition built from misfit keywords.
type IntentType struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Report is the tuning analysis of one run.
type Report struct {
	RunID             string           `json:"run_id" yaml:"run_id"`
	PagesAnalyzed     int              `json:"pages_analyzed" yaml:"pages_analyzed"`
	IntentCount       int              `json:"intent_count" yaml:"intent_count"`
	AvgConfidence     float64          `json:"avg_confidence" yaml:"avg_confidence"`
	Distribution      []IntentStat     `json:"distribution" yaml:"distribution"`
	LowConfidence     []IntentStat     `json:"low_confidence" yaml:"low_confidence"`
	WeakSignalPages   []string         `json:"weak_signal_pages" yaml:"weak_signal_pages"`
	RareKeywords      []string         `json:"rare_keywords" yaml:"rare_keywords"`
	Sections          []SectionStat    `json:"sections" yaml:"sections"`
	UncoveredSections []string         `json:"sections_without_intent" yaml:"sections_without_intent"`
	UnmatchedTerms    []TermSuggestion `json:"unmatched_terms" yaml:"unmatched_terms"`
	LibraryHints      []string         `json:"library_hints" yaml:"library_hints"`
	NewIntentTypes    []IntentType     `json:"new_intent_types" yaml:"new_intent_types"`
	Recommendations   []string         `json:"recommendations" yaml:"recommendations"`
}

// Analyze builds the tuning report of a run.
func Analyze(in Input) *Report {
	r := &Report{
		RunID:             in.RunID,
		PagesAnalyzed:     len(in.Pages),
		IntentCount:       len(in.Intents),
		Distribution:      []IntentStat{},
		LowConfidence:     []IntentStat{},
		WeakSignalPages:   []string{},
		UncoveredSections: []string{},
		UnmatchedTerms:    []TermSuggestion{},
		LibraryHints:      []string{},
		NewIntentTypes:    []IntentType{},
		Recommendations:   []string{},
	}

	sum := 0.0
	weak := make(map[string]struct{})
	for _, intent := range in.Intents {
		stat := IntentStat{
			Intent:     intent.PrimaryIntent,
			Pages:      intent.PageCount,
			Confidence: intent.Confidence,
			Method:     intent.ExtractionMethod,
		}
		r.Distribution = append(r.Distribution, stat)
		if intent.Confidence < LowConfidence {
			r.LowConfidence = append(r.LowConfidence, stat)
		}
		if intent.Confidence < WeakConfidence || len(intent.Keywords) < MinKeywords {
			for _, p := range intent.Pages {
				weak[p] = struct{}{}
			}
		}
		sum += intent.Confidence
	}
	if len(in.Intents) > 0 {
		r.AvgConfidence = sum / float64(len(in.Intents))
	}
	r.WeakSignalPages = sortedKeys(weak)

	r.RareKeywords = rareKeywords(in.Intents, in.Library)
	r.Sections, r.UncoveredSections = sectionCoverage(in.Pages, in.Intents)
	r.UnmatchedTerms = unmatchedTerms(in.Pages, in.Intents, in.Library)
	r.LibraryHints = libraryHints(r.RareKeywords)
	r.NewIntentTypes = newIntentTypes(in.Intents, in.Library)
	r.Recommendations = recommendations(r, in.Config)
	return r
}

// covered reports whether a definition pattern of lib matches term.
func covered(lib *library.Library, term string) bool {
	if lib == nil {
		return false
	}
	for _, def := range lib.Definitions {
		for _, p := range def.Patterns {
			if p.Regexp.MatchString(term) {
				return true
			}
		}
	}
	return false
}

// rareKeywords lists keywords used by exactly one intent that no definition
// pattern matches, in order of appearance.
func rareKeywords(intents []models.Intent, lib *library.Library) []string {
	counts := make(map[string]int)
	var order []string
	for _, intent := range intents {
		seen := make(map[string]struct{})
		for _, kw := range intent.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if _, ok := seen[kw]; ok || kw == "" {
				continue
			}
			seen[kw] = struct{}{}
			if counts[kw] == 0 {
				order = append(order, kw)
			}
			counts[kw]++
		}
	}

	out := []string{}
	for _, kw := range order {
		if counts[kw] != 1 || covered(lib, kw) {
			continue
		}
		out = append(out, kw)
		if len(out) == maxRareKeywords {
			break
		}
	}
	return out
}

func sectionCoverage(pages []models.Page, intents []models.Intent) ([]SectionStat, []string) {
	byPage := make(map[string][]string)
	for _, intent := range intents {
		for _, p := range intent.Pages {
			byPage[p] = append(byPage[p], intent.PrimaryIntent)
		}
	}

	type acc struct {
		pages   int
		covered int
		intents map[string]int
	}
	sections := make(map[string]*acc)
	for _, p := range pages {
		name := detector.Section(p.Section, p.URL)
		a, ok := sections[name]
		if !ok {
			a = &acc{intents: make(map[string]int)}
			sections[name] = a
		}
		a.pages++
		if names := byPage[p.URL]; len(names) > 0 {
			a.covered++
			for _, n := range names {
				a.intents[n]++
			}
		}
	}

	stats := []SectionStat{}
	uncovered := []string{}
	for _, name := range sortedKeys(sections) {
		a := sections[name]
		stat := SectionStat{Section: name, Pages: a.pages, Covered: a.covered, IntentDiversity: len(a.intents)}
		best := 0
		for _, n := range sortedKeys(a.intents) {
			if a.intents[n] > best {
				best = a.intents[n]
				stat.DominantIntent = n
			}
		}
		if a.covered == 0 {
			uncovered = append(uncovered, name)
		}
		stats = append(stats, stat)
	}
	return stats, uncovered
}

// unmatchedTerms ranks page terms by TF-IDF and keeps those that neither an
// intent keyword nor a definition pattern accounts for.
func unmatchedTerms(pages []models.Page, intents []models.Intent, lib *library.Library) []TermSuggestion {
	var docs [][]string
	var urls []string
	for _, p := range pages {
		if tokens := analytics.Tokenize(p.Title + " " + p.CleanedText); len(tokens) > 0 {
			docs = append(docs, tokens)
			urls = append(urls, p.URL)
		}
	}
	out := []TermSuggestion{}
	if len(docs) == 0 {
		return out
	}

	known := make(map[string]struct{})
	for _, intent := range intents {
		for _, kw := range intent.Keywords {
			for _, tok := range analytics.Tokenize(kw) {
				known[tok] = struct{}{}
			}
		}
	}

	minDF := 2
	if len(docs) < 2 {
		minDF = 1
	}
	corpus := analytics.NewCorpus(docs)
	for _, term := range corpus.Vocabulary(docs, minDF, 0) {
		if _, ok := known[term]; ok || covered(lib, term) {
			continue
		}
		s := TermSuggestion{Term: term, Intent: ownerOf(term, docs, urls, intents)}
		switch {
		case s.Intent == "":
			s.Suggestion = fmt.Sprintf("no intent covers %q; consider a new definition around it", term)
		case lib != nil && isDefinition(lib, s.Intent):
			s.Suggestion = fmt.Sprintf("add %q to the signal_patterns of %s", term, s.Intent)
		default:
			s.Suggestion = fmt.Sprintf("%q recurs in %s; consider a definition for it", term, s.Intent)
		}
		out = append(out, s)
		if len(out) == maxUnmatchedTerms {
			break
		}
	}
	return out
}

// ownerOf returns the intent with the most member pages containing term.
// Ties go to the earlier intent.
func ownerOf(term string, docs [][]string, urls []string, intents []models.Intent) string {
	hasTerm := make(map[string]bool, len(docs))
	for i, doc := range docs {
		for _, tok := range doc {
			if tok == term {
				hasTerm[urls[i]] = true
				break
			}
		}
	}
	owner, best := "", 0
	for _, intent := range intents {
		n := 0
		for _, p := range intent.Pages {
			if hasTerm[p] {
				n++
			}
		}
		if n > best {
			owner, best = intent.PrimaryIntent, n
		}
	}
	return owner
}

func isDefinition(lib *library.Library, name string) bool {
	_, ok := lib.Lookup(name)
	return ok
}

var keywordHints = []struct {
	stems []string
	hint  string
}{
	{[]string{"onboard"}, "add onboarding patterns to learn_and_understand"},
	{[]string{"migrat"}, "add migration patterns to implement_and_integrate"},
	{[]string{"scale", "grow"}, "consider scale_and_grow as a new intent type"},
}

func libraryHints(rare []string) []string {
	out := []string{}
	for _, h := range keywordHints {
		if anyContains(rare, h.stems) {
			out = append(out, h.hint)
		}
	}
	return out
}

var themes = []struct {
	name  string
	stems []string
}{
	{"scale_and_grow", []string{"scale", "grow", "expand"}},
	{"ensure_security_compliance", []string{"security", "secure", "compliance"}},
	{"collaborate_and_share", []string{"team", "collaborate", "share"}},
	{"automate_processes", []string{"automate", "automation", "workflow"}},
	{"mobile_access", []string{"mobile", "app", "device"}},
}

// newIntentTypes groups the keywords of low confidence intents by theme and
// proposes every theme with enough keywords that the library lacks.
func newIntentTypes(intents []models.Intent, lib *library.Library) []IntentType {
	byTheme := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, intent := range intents {
		if intent.Confidence >= MisfitConfidence {
			continue
		}
		for _, kw := range intent.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if _, ok := seen[kw]; ok || kw == "" {
				continue
			}
			seen[kw] = struct{}{}
			for _, th := range themes {
				if anyContains([]string{kw}, th.stems) {
					byTheme[th.name] = append(byTheme[th.name], kw)
					break
				}
			}
		}
	}

	out := []IntentType{}
	for _, th := range themes {
		kws := byTheme[th.name]
		if len(kws) < minThemeKeywords || (lib != nil && isDefinition(lib, th.name)) {
			continue
		}
		out = append(out, IntentType{Name: th.name, Keywords: kws})
	}
	return out
}

func recommendations(r *Report, cfg models.Config) []string {
	out := []string{}
	if r.IntentCount == 0 {
		return append(out, fmt.Sprintf("no intents: consider lowering min_cluster_size (currently %d)", cfg.MinClusterSize))
	}
	if r.AvgConfidence < MisfitConfidence {
		out = append(out, fmt.Sprintf("overall confidence is low: consider lowering min_confidence_threshold (currently %.2f)", cfg.MinConfidenceThreshold))
	}
	if r.IntentCount < fewIntents {
		out = append(out, fmt.Sprintf("few intents detected: consider lowering similarity_threshold (currently %.2f)", cfg.SimilarityThreshold))
	}
	if r.IntentCount > manyIntents {
		out = append(out, fmt.Sprintf("many intents detected: consider raising similarity_threshold (currently %.2f) or min_cluster_size (currently %d)",
			cfg.SimilarityThreshold, cfg.MinClusterSize))
	}
	if n := len(r.UncoveredSections); n > 0 {
		out = append(out, fmt.Sprintf("%d section(s) have no intent: %s", n, strings.Join(r.UncoveredSections, ", ")))
	}
	return out
}

func anyContains(words, stems []string) bool {
	for _, w := range words {
		for _, s := range stems {
			if strings.Contains(w, s) {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
