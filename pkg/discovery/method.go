// Package discovery holds the independent intent discovery methods. Each
// method reads the shared page evidence and produces candidates; none of
// them mutates its input or depends on another method's output.
package discovery

import (
	"context"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
	"github.com/dtnitsch/llm-intent-miner/pkg/signals"
)

const (
	// MaxKeywords caps the keyword list of a candidate.
	MaxKeywords = 15
	// MaxPhrases caps the representative phrases of a candidate.
	MaxPhrases = 3

	maxPhraseRunes = 160
)

// Input is the read-only view every method works from. Evidence[i] belongs
// to Pages[i].
type Input struct {
	Pages    []models.Page
	Evidence []*signals.Evidence
	Corpus   *analytics.Corpus
}

// NewInput bundles pages with their evidence and computes corpus document
// frequencies over the page tokens.
func NewInput(pages []models.Page, evidence []*signals.Evidence) *Input {
	docs := make([][]string, len(evidence))
	for i, ev := range evidence {
		docs[i] = ev.Tokens
	}
	return &Input{Pages: pages, Evidence: evidence, Corpus: analytics.NewCorpus(docs)}
}

// Method is one discovery strategy.
type Method interface {
	Name() models.SourceMethod
	Produce(ctx context.Context, in *Input) ([]models.Candidate, error)
}

// DegradedError reports that a method could not run and produced nothing.
type DegradedError struct {
	Reason string
}

func (e *DegradedError) Error() string {
	return "degraded: " + e.Reason
}

// Degraded returns a *DegradedError with the given reason.
func Degraded(reason string) error {
	return &DegradedError{Reason: reason}
}

type scoredPhrase struct {
	text  string
	score float64
	order int
}

// pickPhrases returns up to n distinct phrases, best score first and earlier
// phrases first on ties.
func pickPhrases(phrases []scoredPhrase, n int) []string {
	sort.SliceStable(phrases, func(i, j int) bool {
		if phrases[i].score != phrases[j].score {
			return phrases[i].score > phrases[j].score
		}
		return phrases[i].order < phrases[j].order
	})

	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range phrases {
		if len(out) == n {
			break
		}
		if p.score <= 0 {
			continue
		}
		text := trimPhrase(p.text)
		key := strings.ToLower(text)
		if _, ok := seen[key]; ok || text == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, text)
	}
	return out
}

func trimPhrase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxPhraseRunes {
		s = strings.TrimSpace(string(r[:maxPhraseRunes])) + "…"
	}
	return s
}

// tokenSet builds a lookup set of terms.
func tokenSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// termPhrases scores every sentence of the member pages by how many of the
// given terms it contains.
func termPhrases(in *Input, members []int, terms []string) []scoredPhrase {
	want := tokenSet(terms)
	var out []scoredPhrase
	order := 0
	for _, idx := range members {
		for _, s := range in.Evidence[idx].Sentences {
			score := 0.0
			for _, tok := range analytics.Tokenize(s.Text) {
				if _, ok := want[tok]; ok {
					score++
				}
			}
			out = append(out, scoredPhrase{text: s.Text, score: score, order: order})
			order++
		}
	}
	return out
}

func sortedURLs(in *Input, members []int) []string {
	urls := make([]string, len(members))
	for i, idx := range members {
		urls[i] = in.Pages[idx].URL
	}
	sort.Strings(urls)
	return urls
}
