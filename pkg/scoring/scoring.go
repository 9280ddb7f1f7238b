// Package scoring turns the per-page scores of a group of candidates into a
// single confidence value.
package scoring

import (
	"math"
	"sort"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// StrongScore is the page score above which a page counts as consistent
// evidence.
const StrongScore = 0.2

// MethodScores collects, per source method, the best score each member page
// received from that method's candidates.
func MethodScores(cands []models.Candidate) map[models.SourceMethod]map[string]float64 {
	out := make(map[models.SourceMethod]map[string]float64)
	for _, c := range cands {
		scores, ok := out[c.Method]
		if !ok {
			scores = make(map[string]float64)
			out[c.Method] = scores
		}
		for _, page := range c.Pages {
			s := c.PageScores[page]
			if prev, seen := scores[page]; !seen || s > prev {
				scores[page] = s
			}
		}
	}
	return out
}

// MethodConfidence is min(consistency * average, 1) over one method's page
// scores, where consistency is the share of pages scoring above StrongScore.
func MethodConfidence(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	pages := make([]string, 0, len(scores))
	for p := range scores {
		pages = append(pages, p)
	}
	sort.Strings(pages)

	strong := 0
	sum := 0.0
	for _, p := range pages {
		s := scores[p]
		if s > StrongScore {
			strong++
		}
		sum += s
	}
	n := float64(len(scores))
	return math.Min(1, (float64(strong)/n)*(sum/n))
}

// Combine averages the per-method confidences weighted by each method's
// member-page count.
func Combine(byMethod map[models.SourceMethod]map[string]float64) float64 {
	methods := make([]string, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)

	num, den := 0.0, 0.0
	for _, m := range methods {
		scores := byMethod[models.SourceMethod(m)]
		n := float64(len(scores))
		num += MethodConfidence(scores) * n
		den += n
	}
	if den == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, num/den))
}

// Confidence scores a group of candidates. A group made only of candidates
// re-read from one emitted intent keeps that intent's confidence.
func Confidence(cands []models.Candidate) float64 {
	if fixed, ok := singleOrigin(cands); ok {
		return fixed
	}
	return Combine(MethodScores(cands))
}

func singleOrigin(cands []models.Candidate) (float64, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	first := cands[0]
	if first.FixedConfidence <= 0 || first.Label == "" {
		return 0, false
	}
	for _, c := range cands[1:] {
		if c.FixedConfidence != first.FixedConfidence || c.Label != first.Label {
			return 0, false
		}
	}
	return math.Min(1, first.FixedConfidence), true
}

// Round2 rounds to two decimals for output.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
