package models

import (
	"sort"
	"strings"
)

// SourceMethod identifies the discovery method that produced a candidate.
type SourceMethod string

const (
	MethodPattern   SourceMethod = "pattern"
	MethodTopic     SourceMethod = "lda"
	MethodEmbedding SourceMethod = "embedding"
	MethodKeywords  SourceMethod = "keywords"
)

// SignalType classifies a signal match.
type SignalType string

const (
	SignalKeyword SignalType = "keyword"
	SignalAction  SignalType = "action"
	SignalPain    SignalType = "pain"
	SignalOutcome SignalType = "outcome"
)

// Match is a single signal hit inside a page's text. Start and End are byte
// offsets into the text the signal was extracted from.
type Match struct {
	Type      SignalType `json:"type"`
	PatternID string     `json:"pattern_id"`
	Text      string     `json:"text"`
	Context   string     `json:"context,omitempty"`
	Start     int        `json:"start"`
	End       int        `json:"end"`
}

// Signals groups the matches of one page by signal type.
type Signals map[SignalType][]Match

// Count returns the number of matches of the given type.
func (s Signals) Count(t SignalType) int {
	return len(s[t])
}

// Candidate is a provisional intent produced by exactly one discovery method.
// Candidates are never mutated after they are produced.
type Candidate struct {
	Method     SourceMethod       `json:"source_method"`
	LocalID    string             `json:"local_id"`
	Label      string             `json:"label,omitempty"`
	Index      int                `json:"index"`
	Pages      []string           `json:"member_pages"`
	Keywords   []string           `json:"keywords"`
	Phrases    []string           `json:"representative_phrases"`
	PageScores map[string]float64 `json:"per_page_score"`
	// FixedConfidence is the confidence of the intent a re-merged candidate
	// was read back from. Zero for freshly discovered candidates.
	FixedConfidence float64 `json:"fixed_confidence,omitempty"`
}

// Intent is a merged, scored, named intent. The JSON field set is the
// output contract consumed downstream.
type Intent struct {
	PrimaryIntent         string   `json:"primary_intent"`
	Confidence            float64  `json:"confidence"`
	Keywords              []string `json:"keywords"`
	RepresentativePhrases []string `json:"representative_phrases"`
	PageCount             int      `json:"page_count"`
	ExtractionMethod      string   `json:"extraction_method"`
	Pages                 []string `json:"pages"`

	// DisplayLabel is the human readable form of PrimaryIntent.
	DisplayLabel string `json:"-"`
	// MethodScores keeps the per-method page scores the confidence was
	// computed from, so the intent can be merged again.
	MethodScores map[SourceMethod]map[string]float64 `json:"-"`
}

// Methods splits an extraction_method provenance string into its methods.
func Methods(provenance string) []SourceMethod {
	if provenance == "" {
		return nil
	}
	parts := strings.Split(provenance, "+")
	out := make([]SourceMethod, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, SourceMethod(p))
		}
	}
	return out
}

// Provenance joins methods into the sorted, de-duplicated "+" form used by
// extraction_method.
func Provenance(methods []SourceMethod) string {
	seen := make(map[string]struct{}, len(methods))
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		for _, part := range Methods(string(m)) {
			if _, ok := seen[string(part)]; ok {
				continue
			}
			seen[string(part)] = struct{}{}
			names = append(names, string(part))
		}
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
