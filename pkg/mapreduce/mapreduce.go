package mapreduce

import "github.com/dtnitsch/llm-intent-miner/pkg/analytics"

// Map generates a word frequency map for a single document's content.
func Map(content string, a *analytics.Analytics) map[string]int {
	return a.WordFrequency(content)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// ReduceWeights sums keyword weights across several weight maps.
func ReduceWeights(intermediate []map[string]float64) map[string]float64 {
	finalResults := make(map[string]float64)
	for _, weights := range intermediate {
		for word, w := range weights {
			finalResults[word] += w
		}
	}
	return finalResults
}
