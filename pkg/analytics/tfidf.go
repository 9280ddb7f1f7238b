package analytics

import (
	"math"
	"sort"
)

// Corpus holds document frequencies over a tokenized document set.
type Corpus struct {
	Docs int
	DF   map[string]int
}

// NewCorpus counts, for every term, the number of documents containing it.
func NewCorpus(docs [][]string) *Corpus {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	return &Corpus{Docs: len(docs), DF: df}
}

// IDF returns the smoothed inverse document frequency of term:
// ln((1+N)/(1+df)) + 1.
func (c *Corpus) IDF(term string) float64 {
	return math.Log(float64(1+c.Docs)/float64(1+c.DF[term])) + 1
}

// TermCounts counts term occurrences in one document.
func TermCounts(doc []string) map[string]int {
	counts := make(map[string]int, len(doc))
	for _, term := range doc {
		counts[term]++
	}
	return counts
}

// Vocabulary selects up to maxTerms terms whose document frequency is at least
// minDF, ranked by their TF-IDF mass summed over all documents. Ties break
// lexicographically. The result is sorted by rank.
func (c *Corpus) Vocabulary(docs [][]string, minDF, maxTerms int) []string {
	mass := make(map[string]float64)
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		for term, n := range TermCounts(doc) {
			if c.DF[term] < minDF {
				continue
			}
			mass[term] += float64(n) / float64(len(doc)) * c.IDF(term)
		}
	}

	terms := make([]string, 0, len(mass))
	for term := range mass {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if mass[terms[i]] != mass[terms[j]] {
			return mass[terms[i]] > mass[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxTerms > 0 && len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms
}
