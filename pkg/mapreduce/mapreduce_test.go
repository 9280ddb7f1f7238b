package mapreduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	got := Reduce([]map[string]int{
		{"pricing": 2, "plans": 1},
		{"pricing": 1, "install": 4},
	})
	assert.Equal(t, map[string]int{"pricing": 3, "plans": 1, "install": 4}, got)
}

func TestRankWeighted(t *testing.T) {
	weights := map[string]float64{
		"tutorial": 2,
		"guide":    2,
		"how to":   3,
		"broken(":  9,
	}
	assert.Equal(t, []string{"how to", "guide", "tutorial"}, RankWeighted(weights, 0))
	assert.Equal(t, []string{"how to"}, RankWeighted(weights, 1))
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords(map[string]int{"learning": 10, "api": 3, "x_train": 3}, 2)
	assert.Equal(t, []string{"learning:10", "api:3"}, got)
}
