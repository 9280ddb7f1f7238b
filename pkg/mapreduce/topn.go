package mapreduce

import (
	"fmt"
	"sort"
	"strings"
)

// isValidKeyword checks if a keyword should be included in results.
// Filters malformed tokens (unmatched delimiters, trailing special chars, unmatched quotes).
func isValidKeyword(word string) bool {
	if word == "" {
		return false
	}
	if strings.HasSuffix(word, ":") || strings.HasSuffix(word, "=") {
		return false
	}

	pairs := [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}}
	for _, p := range pairs {
		if strings.Contains(word, p[0]) && !strings.Contains(word, p[1]) {
			return false
		}
	}

	if strings.Count(word, "\"")%2 != 0 {
		return false
	}
	return true
}

// RankWeighted returns up to n keywords ordered by descending weight, ties
// broken lexicographically. n <= 0 returns every valid keyword.
func RankWeighted(weights map[string]float64, n int) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		if isValidKeyword(k) {
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// TopKeywords returns the top N keywords from aggregated word counts as formatted strings.
// Each string is formatted as "word:count" (e.g., "pricing:42").
func TopKeywords(wordCounts map[string]int, n int) []string {
	weights := make(map[string]float64, len(wordCounts))
	for k, v := range wordCounts {
		weights[k] = float64(v)
	}

	ranked := RankWeighted(weights, n)
	keywords := make([]string, len(ranked))
	for i, k := range ranked {
		keywords[i] = fmt.Sprintf("%s:%d", k, wordCounts[k])
	}
	return keywords
}
